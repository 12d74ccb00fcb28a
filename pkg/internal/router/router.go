// Package router 把 handle 中的处理器绑定到 gin 路由，并为各组挂载中间件.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/middleware"
)

// Options 路由级中间件的配置.
type Options struct {
	Auth           configs.AuthConfig
	RateLimit      configs.RateLimitConfig
	CircuitBreaker configs.CircuitBreakerConfig
}

// Register 在 engine 上注册 /api 下的全部路由，返回 /api 路由组.
func Register(engine *gin.Engine, h *handle.Handlers, opts Options) *gin.RouterGroup {
	api := engine.Group("/api")

	RegisterHealthCheckRoute(api, h)
	RegisterStorageRoutes(api, h, opts)
	RegisterFolderRoutes(api, h)
	RegisterFilesRoutes(api, h, opts)

	return api
}

// RegisterStorageRoutes 注册存储配置路由.
func RegisterStorageRoutes(g *gin.RouterGroup, h *handle.Handlers, opts Options) {
	storage := g.Group("/storage")
	{
		storage.POST("/configure", h.ConfigureStorage)
		storage.POST("/test", middleware.CircuitBreakerMiddleware("storage-test", opts.CircuitBreaker), h.TestStorage)
		storage.GET("/status", middleware.ETagMiddleware(), h.StorageStatus)
		storage.DELETE("/lock", middleware.RequireAdminKey(opts.Auth), h.RemoveStorageLock)
	}
}

// RegisterFolderRoutes 注册文件夹路由.
func RegisterFolderRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	folders := g.Group("/folders")
	{
		folders.POST("", h.CreateFolder)
		folders.GET("", middleware.ETagMiddleware(), h.ListFolders)

		single := folders.Group("/:id")
		{
			single.GET("", h.GetFolder)
			single.PUT("", h.RenameFolder)
			single.DELETE("", h.DeleteFolder)
			single.PATCH("/star", h.StarFolder)
			single.GET("/contents", middleware.ETagMiddleware(), h.FolderContents)
			single.GET("/breadcrumb", h.Breadcrumb)
		}
	}
}
