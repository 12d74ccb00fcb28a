package configs

import (
	"strings"

	"github.com/spf13/viper"
)

// AuthConfig 身份认证配置.
//
// 普通接口可选地要求上游网关（oauth2-proxy）注入的身份头；解除存储配置锁等特权操作
// 始终要求 admin_api_key，未配置时特权操作一律拒绝.
type AuthConfig struct {
	Enabled     bool     `mapstructure:"enabled"`       // 开启网关身份头校验
	SkipPaths   []string `mapstructure:"skip_paths"`    // 跳过身份头校验的路径前缀（如 /metrics、/api/health）
	AdminAPIKey string   `mapstructure:"admin_api_key"` // 特权操作的 API Key，通过 Authorization: Bearer 或 X-API-Key 传入
}

// AdminEnabled 是否配置了特权操作密钥.
func (c AuthConfig) AdminEnabled() bool {
	return strings.TrimSpace(c.AdminAPIKey) != ""
}

// Skipped 判断路径是否免于身份头校验.
func (c AuthConfig) Skipped(path string) bool {
	if path == "" {
		return false
	}

	for _, p := range c.SkipPaths {
		p = strings.TrimSpace(p)
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/api/health",
	})
	// 注册键名以便 DOCVAULT_AUTH_ADMIN_API_KEY 生效
	v.SetDefault("auth.admin_api_key", "")
}
