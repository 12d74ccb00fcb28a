//go:build !no_sqlite && !cgo

package db

import "github.com/yeisme/docvault/pkg/configs"

// 未启用 cgo 时 sqlite 退回纯 Go 驱动.
func init() {
	RegisterDialectorFactory(configs.SQLite, createPureSQLiteDialector)
}
