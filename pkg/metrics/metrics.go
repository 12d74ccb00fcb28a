// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、运行时以及预签名、连接测试等业务指标.
//
// Example:
//
//	import "github.com/yeisme/docvault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/api/folders/:id").Inc()
//	metrics.PresignIssued.WithLabelValues("s3", metrics.PresignUpload).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/docvault/pkg/configs"
)

// 预签名类型标签.
const (
	PresignUpload   = "upload"
	PresignDownload = "download"
	PresignPreview  = "preview"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// PresignIssued 已签发的预签名 URL.
	PresignIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_presigned_urls_total",
			Help: "Presigned URLs issued by provider and kind",
		},
		[]string{"provider", "kind"},
	)

	// ConnectionTests 存储连接测试次数.
	ConnectionTests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docvault_connection_tests_total",
			Help: "Storage connection tests by provider and result",
		},
		[]string{"provider", "result"},
	)

	// ConnectionTestDuration 连接测试耗时.
	ConnectionTestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docvault_connection_test_duration_seconds",
			Help:    "Storage connection test duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		// 注册标准收集器
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		reg := prometheus.WrapRegistererWith(config.Labels, registry)
		reg.MustRegister(
			RequestCounter, RequestDuration, ActiveConnections,
			PresignIssued, ConnectionTests, ConnectionTestDuration,
		)
	})

	return nil
}

// StartMetricsServer 在调试引擎上挂载 /metrics.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// ObserveConnectionTest 记录一次连接测试.
func ObserveConnectionTest(provider string, success bool, elapsed time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}

	ConnectionTests.WithLabelValues(provider, result).Inc()
	ConnectionTestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
