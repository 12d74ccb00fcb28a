//go:build !no_sqlite

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

// createPureSQLiteDialector 创建纯 Go SQLite dialector.
func createPureSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}

// 纯 Go 版本始终可用.
func init() {
	RegisterDialectorFactory(configs.SQLitePure, createPureSQLiteDialector)
}
