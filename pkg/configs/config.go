// Package configs 管理应用程序配置，包括数据库、凭据加密、预签名、缓存与事件的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing DB config:
//
//	dsn := configs.GetConfig().DB.GetDSN()
//	fmt.Println("DSN:", dsn)
//
// Example accessing presign config:
//
//	ttl := configs.GetConfig().Presign.DefaultTTL()
//	fmt.Println("default ttl:", ttl)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/docvault/pkg/rule"
)

// AppName 应用名称，同时作为环境变量前缀.
const AppName = "docvault"

// AppVersion 应用版本，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 监听地址、调试模式等
		Auth           AuthConfig           `mapstructure:"auth"`            // 网关身份头与特权操作密钥
		DB             DBConfig             `mapstructure:"db"`              // 元数据数据库
		Log            LogConfig            `mapstructure:"log"`             // 日志
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // Prometheus 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // OpenTelemetry 追踪
		Vault          VaultConfig          `mapstructure:"vault"`           // 凭据加密
		Presign        PresignConfig        `mapstructure:"presign"`         // 预签名 URL
		KV             KVConfig             `mapstructure:"kv"`              // 状态缓存
		Events         EventsConfig         `mapstructure:"events"`          // 领域事件
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // 预签名接口限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 事件发布熔断
		Scheduler      SchedulerConfig      `mapstructure:"scheduler"`       // 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(strings.ToUpper(AppName))
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := globalConfig.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// Validate 使用 rule 标签校验配置.
func (c *AppConfig) Validate() error {
	return rule.ValidateStruct(c)
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig  ServerConfig
		authConfig    AuthConfig
		dbConfig      DBConfig
		logConfig     LogConfig
		metricsConfig MetricsConfig
		tracingConfig TracingConfig
		vaultConfig   VaultConfig
		presignConfig PresignConfig
		kvConfig      KVConfig
		eventsConfig  EventsConfig
		rateConfig    RateLimitConfig
		cbConfig      CircuitBreakerConfig
		schedConfig   SchedulerConfig
	)

	serverConfig.setDefaults(v)
	authConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	vaultConfig.setDefaults(v)
	presignConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	rateConfig.setDefaults(v)
	cbConfig.setDefaults(v)
	schedConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		if err := next.Validate(); err != nil {
			fmt.Printf("Reloaded config rejected: %v\n", err)

			return
		}

		globalConfig = next
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}

// SetConfig 直接替换全局配置，供测试和嵌入式使用.
func SetConfig(c AppConfig) {
	globalConfig = c
}

// Defaults 返回仅包含默认值的配置.
func Defaults() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var c AppConfig
	_ = v.Unmarshal(&c)

	return c
}
