package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/middleware"
)

// RegisterFilesRoutes 注册文件路由. 签发预签名 URL 的接口依赖外部存储，挂载限流与熔断.
func RegisterFilesRoutes(g *gin.RouterGroup, h *handle.Handlers, opts Options) {
	presign := []gin.HandlerFunc{
		middleware.RateLimitMiddleware(opts.RateLimit),
		middleware.CircuitBreakerMiddleware("presign", opts.CircuitBreaker),
	}

	files := g.Group("/files")
	{
		files.GET("/list", middleware.ETagMiddleware(), h.ListFiles)
		files.POST("/presigned-url", append(presign, h.PresignedUpload)...)

		// 批量操作
		files.POST("/bulk-delete", h.BulkDeleteFiles)
		files.POST("/bulk-move", h.BulkMoveFiles)

		single := files.Group("/:id")
		{
			single.GET("", h.GetFile)
			single.PUT("", h.UpdateFile)
			single.DELETE("", h.DeleteFile)
			single.POST("/download-url", append(presign, h.DownloadURL)...)
			single.POST("/preview-url", append(presign, h.PreviewURL)...)
		}
	}
}
