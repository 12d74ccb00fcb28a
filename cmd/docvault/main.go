// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/docvault/pkg/cmd"
)

//	@title			DocVault API
//	@version		1.0
//	@description	DocVault 是一个文档库后端：文件夹层级、一次性锁定的对象存储配置与预签名直传.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@BasePath	/api

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
