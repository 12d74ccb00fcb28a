// Package handle 提供 HTTP 请求处理器，负责参数绑定、调用 service 与错误翻译.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/rule"
)

const msgInvalidRequest = "invalid request parameters"

// Handlers 持有全部 service，由 app 显式构造后注入路由.
type Handlers struct {
	folders *service.FolderService
	files   *service.FileService
	storage *service.StorageService
	presign *service.PresignService
	checks  []HealthCheck
}

// New 创建 Handlers. checks 为 /health 依次执行的依赖检查.
func New(
	folders *service.FolderService,
	files *service.FileService,
	storage *service.StorageService,
	presign *service.PresignService,
	checks ...HealthCheck,
) *Handlers {
	// 让 gin 的绑定使用 rule 标签与领域规则
	rule.Engine()

	return &Handlers{
		folders: folders,
		files:   files,
		storage: storage,
		presign: presign,
		checks:  checks,
	}
}

// fail 把 service 错误翻译为 HTTP 响应. 5xx 只返回统一文案，细节写日志.
func fail(c *gin.Context, op string, err error) {
	l := log.Ctx(c.Request.Context())

	var cte *service.ConnectionTestError
	if errors.As(err, &cte) {
		l.Warn().Err(err).Str("op", op).Msg("storage connection test failed")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: cte.Error(), Details: cte.Result})

		return
	}

	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("op", op).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("op", op).Int("status", status).Msg("request rejected")
	}

	c.JSON(status, types.ErrorResponse{Error: errs.PublicMessage(err)})
}

// badRequest 绑定或校验失败，字段错误放在 details 中.
func badRequest(c *gin.Context, err error) {
	log.Ctx(c.Request.Context()).Debug().Err(err).Msg("invalid request")

	resp := types.ErrorResponse{Error: msgInvalidRequest}
	if fields := rule.Errors(err); len(fields) > 0 {
		resp.Details = fields
	}

	c.JSON(http.StatusBadRequest, resp)
}

// bindOptionalJSON 请求体为空时保留零值.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return rule.ValidateStruct(obj)
	}

	return c.ShouldBindJSON(obj)
}
