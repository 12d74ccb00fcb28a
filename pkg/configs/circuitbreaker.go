package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断配置，同时用于连接测试/预签名路由与事件发布.
type CircuitBreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"gt=0,lte=1"`
	MinRequests       uint32  `mapstructure:"min_requests"` // 窗口内少于该请求数时不熔断
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"gte=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"gte=0"` // 打开后多久进入半开
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half"`
}

// Interval 关闭状态下清零计数的周期.
func (c *CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout 打开状态持续时间.
func (c *CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShouldTrip 失败比例达到阈值且样本足够时打开.
func (c *CircuitBreakerConfig) ShouldTrip(requests, failures uint32) bool {
	if requests == 0 || requests < c.MinRequests {
		return false
	}

	return float64(failures)/float64(requests) >= c.FailureRate
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 10)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_requests_in_half", 1)
}
