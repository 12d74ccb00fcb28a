//go:build !no_sqlite && cgo

package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

// createSQLiteDialector 创建SQLite dialector (CGo版本).
// DSN 按纯 Go 驱动的 _pragma 写法生成，这里换成 mattn 驱动识别的参数.
func createSQLiteDialector(dsn string) gorm.Dialector {
	dsn = strings.ReplaceAll(dsn, "_pragma=foreign_keys(1)", "_foreign_keys=1")

	return sqlite.Open(dsn)
}

// 注册SQLite dialector工厂函数 (CGo版本).
func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
