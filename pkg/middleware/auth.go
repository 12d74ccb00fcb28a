package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/configs"
)

const (
	// HeaderAPIKey 特权操作的 API Key 头，与 Authorization: Bearer 等价.
	HeaderAPIKey = "X-API-Key"

	principalKey = "principal"
	bearerPrefix = "bearer "
)

// AuthMiddleware 基于 oauth2-proxy 注入的请求头做统一身份认证校验.
//   - 要求存在 X-Auth-Request-Email 或 X-Forwarded-Email
//   - 支持通过配置跳过某些路径（如 /metrics, /api/health）.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || conf.Skipped(c.Request.URL.Path) {
			c.Next()
			return
		}

		email := strings.TrimSpace(c.GetHeader("X-Auth-Request-Email"))
		if email == "" {
			email = strings.TrimSpace(c.GetHeader("X-Forwarded-Email"))
		}

		if email == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		c.Set(principalKey, email)
		c.Next()
	}
}

// GetPrincipal 返回网关认证得到的身份，未认证时为空.
func GetPrincipal(c *gin.Context) string {
	return c.GetString(principalKey)
}

// RequireAdminKey 校验特权操作的 API Key.
// 未配置密钥返回 403；未携带凭据返回 401；凭据不匹配返回 403. 通过后角色提升为 admin.
func RequireAdminKey(conf configs.AuthConfig) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(conf.AdminAPIKey))

	return func(c *gin.Context) {
		if len(want) == 0 {
			abortWithError(c, http.StatusForbidden, "forbidden: admin api key not configured")
			return
		}

		got := presentedKey(c)
		if got == "" {
			c.Header("WWW-Authenticate", `Bearer realm="docvault"`)
			abortWithError(c, http.StatusUnauthorized, "unauthorized: valid api key required")

			return
		}

		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			abortWithError(c, http.StatusForbidden, "forbidden: invalid api key")
			return
		}

		SetRole(c, RoleAdmin)
		c.Next()
	}
}

// presentedKey 依次读取 Authorization: Bearer 与 X-API-Key.
func presentedKey(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); len(h) > len(bearerPrefix) &&
		strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}

	return strings.TrimSpace(c.GetHeader(HeaderAPIKey))
}
