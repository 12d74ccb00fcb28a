// Package service 实现 docvault 的业务逻辑：文件夹层级、文件元数据、存储配置与预签名 URL.
// 服务只处理领域语义，不处理 HTTP 细节；所有依赖在 app.New 中显式构造后注入.
package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/types"
)

const (
	// DefaultSliceCapacity 默认slice预分配容量.
	DefaultSliceCapacity = 64
	// batchSize IN 子句单批最大 id 数，兼容 SQLite 的变量个数上限.
	batchSize = 500
)

// wrapNotFound 把 gorm.ErrRecordNotFound 翻译为 errs.ErrNotFound.
func wrapNotFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", errs.ErrNotFound, kind, id)
	}

	return err
}

// normalizeFolderID nil、空串与 "root" 都表示根目录.
func normalizeFolderID(id *string) *string {
	if id == nil {
		return nil
	}

	v := strings.TrimSpace(*id)
	if v == "" || v == types.RootFolderID {
		return nil
	}

	return &v
}

// whereNullable 生成 col = ? 或 col IS NULL 条件.
func whereNullable(db *gorm.DB, col string, id *string) *gorm.DB {
	if id == nil {
		return db.Where(col + " IS NULL")
	}

	return db.Where(col+" = ?", *id)
}

// chunk 按 batchSize 切分 id 列表.
func chunk(ids []string) [][]string {
	out := make([][]string, 0, len(ids)/batchSize+1)
	for len(ids) > batchSize {
		out = append(out, ids[:batchSize])
		ids = ids[batchSize:]
	}

	if len(ids) > 0 {
		out = append(out, ids)
	}

	return out
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}
