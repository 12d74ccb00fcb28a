package configs

import (
	"strings"

	"github.com/spf13/viper"
)

// 限流维度.
const (
	RateLimitKeyGlobal = "global"
	RateLimitKeyIP     = "ip"
	rateLimitHeaderPre = "header:"
)

// RateLimitConfig 预签名接口的令牌桶限流.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"` // 每个键每秒补充的令牌
	Burst   int     `mapstructure:"burst" rule:"gte=0"` // 桶容量，0 按 1 处理
	// Key 限流维度：global、ip，或 header:X-User 按请求头（缺失时回退到 IP）
	Key string `mapstructure:"key"`
}

// Active 是否需要挂载限流.
func (c *RateLimitConfig) Active() bool {
	return c.Enabled && c.RPS > 0
}

// BucketSize 返回至少为 1 的桶容量.
func (c *RateLimitConfig) BucketSize() int {
	return max(c.Burst, 1)
}

// KeyHeader Key 为 header:Name 时返回请求头名称.
func (c *RateLimitConfig) KeyHeader() (string, bool) {
	k := strings.TrimSpace(c.Key)
	if len(k) <= len(rateLimitHeaderPre) || !strings.EqualFold(k[:len(rateLimitHeaderPre)], rateLimitHeaderPre) {
		return "", false
	}

	return k[len(rateLimitHeaderPre):], true
}

// Global 所有请求共用一个桶.
func (c *RateLimitConfig) Global() bool {
	k := strings.TrimSpace(c.Key)

	return k == "" || strings.EqualFold(k, RateLimitKeyGlobal)
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.key", RateLimitKeyIP)
}
