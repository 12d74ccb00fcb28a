package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPresignTTLSeconds = 900              // 默认预签名有效期 15 分钟
	MaxPresignTTLSeconds     = 7 * 24 * 60 * 60 // SigV4 上限 7 天
)

// PresignConfig 预签名 URL 配置.
type PresignConfig struct {
	DefaultTTLSeconds int `mapstructure:"default_ttl_seconds" rule:"min=1,max=604800"`
	MaxTTLSeconds     int `mapstructure:"max_ttl_seconds"     rule:"min=1,max=604800,gtefield=DefaultTTLSeconds"`
}

// DefaultTTL 返回默认有效期.
func (c *PresignConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// MaxTTL 返回允许的最大有效期.
func (c *PresignConfig) MaxTTL() time.Duration {
	return time.Duration(c.MaxTTLSeconds) * time.Second
}

func (c *PresignConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("presign.default_ttl_seconds", DefaultPresignTTLSeconds)
	v.SetDefault("presign.max_ttl_seconds", MaxPresignTTLSeconds)
}
