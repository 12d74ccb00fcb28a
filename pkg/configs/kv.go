package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 键值存储配置，用于缓存存储状态等热点读.
type KVConfig struct {
	Type       string        `mapstructure:"type"        rule:"oneof=memory redis"`
	Prefix     string        `mapstructure:"prefix"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	Redis      RedisKVConfig `mapstructure:"redis"`
}

// RedisKVConfig Redis KV 配置. 多实例部署共享 Redis 时，状态缓存失效对所有实例可见.
type RedisKVConfig struct {
	Addr         string        `mapstructure:"addr"          rule:"hostname_port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"            rule:"min=0,max=15"`
	PoolSize     int           `mapstructure:"pool_size"     rule:"gte=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GetKVType 返回当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")
	v.SetDefault("kv.prefix", AppName+":")
	v.SetDefault("kv.default_ttl", "5m")

	// Redis 默认值
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.pool_size", 10)
	v.SetDefault("kv.redis.dial_timeout", "3s")
	v.SetDefault("kv.redis.read_timeout", "1s")
	v.SetDefault("kv.redis.write_timeout", "1s")
}
