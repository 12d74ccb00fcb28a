package configs

import (
	"maps"
	"time"

	"github.com/spf13/viper"
)

// 追踪导出器类型.
const (
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterZipkin   = "zipkin"
)

// TracingConfig OpenTelemetry 追踪配置. 服务层在重命名、配置存储与签发 URL 时打 span.
type TracingConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ServiceName    string            `mapstructure:"service_name"    rule:"required_if=Enabled true"`
	ServiceVersion string            `mapstructure:"service_version"`
	ExporterType   string            `mapstructure:"exporter_type"   rule:"omitempty,oneof=otlp-http otlp-grpc zipkin"`
	Endpoint       string            `mapstructure:"endpoint"        rule:"required_if=Enabled true"`
	SampleRate     float64           `mapstructure:"sample_rate"     rule:"gte=0,lte=1"`
	BatchTimeout   time.Duration     `mapstructure:"batch_timeout"`
	MaxBatchSize   int               `mapstructure:"max_batch_size"  rule:"gte=0"`
	MaxQueueSize   int               `mapstructure:"max_queue_size"  rule:"gtefield=MaxBatchSize"`
	ResourceLabels map[string]string `mapstructure:"resource_labels"` // 追加到 resource 的属性，如 deployment.environment
}

// Labels 返回附加的 resource 属性. service.name 与 service.version 由字段决定，不允许被覆盖.
func (c TracingConfig) Labels() map[string]string {
	out := make(map[string]string, len(c.ResourceLabels)+1)
	maps.Copy(out, c.ResourceLabels)
	delete(out, "service.name")
	delete(out, "service.version")

	if _, ok := out["service.namespace"]; !ok {
		out["service.namespace"] = AppName
	}

	return out
}

func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", AppName)
	v.SetDefault("tracing.service_version", AppVersion)
	v.SetDefault("tracing.exporter_type", ExporterOTLPHTTP)
	v.SetDefault("tracing.endpoint", "http://localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.batch_timeout", "5s")
	v.SetDefault("tracing.max_batch_size", 512)
	v.SetDefault("tracing.max_queue_size", 2048)
	v.SetDefault("tracing.resource_labels", map[string]string{
		"deployment.environment": "development",
	})
}
