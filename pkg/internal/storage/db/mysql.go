//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/configs"
)

// mysqlStringSize 未显式指定长度的字符串列（名称、对象键）使用的 varchar 长度.
const mysqlStringSize = 512

// createMySQLDialector 创建MySQL dialector.
func createMySQLDialector(dsn string) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:               dsn,
		DefaultStringSize: mysqlStringSize,
	})
}

// 注册MySQL/MariaDB dialector工厂函数.
func init() {
	RegisterDialectorFactory(configs.MySQL, createMySQLDialector)
	RegisterDialectorFactory(configs.MariaDB, createMySQLDialector)
}
