package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/log"
)

const healthTimeout = 2 * time.Second

// HealthCheck 单个依赖的检查，例如数据库 ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ComponentHealth 单个依赖的检查结果.
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse 健康检查响应.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Health 依次检查各依赖，任一失败返回 503.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "ok",
		Version:    configs.AppVersion,
		Components: make(map[string]ComponentHealth, len(h.checks)),
	}

	for _, hc := range h.checks {
		if err := hc.Check(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("component", hc.Name).Msg("health check failed")

			resp.Status = "unhealthy"
			resp.Components[hc.Name] = ComponentHealth{Status: "unhealthy", Error: err.Error()}

			continue
		}

		resp.Components[hc.Name] = ComponentHealth{Status: "ok"}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
