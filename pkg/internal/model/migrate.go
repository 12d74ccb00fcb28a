package model

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// All 返回需要迁移的全部模型.
func All() []any {
	return []any{
		&Folder{},
		&File{},
		&StorageConfig{},
		&ConfigLock{},
	}
}

// AutoMigrate 创建或更新表结构.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
