// Package app 提供应用程序的初始化和配置功能.
//
// 所有依赖在这里显式构造并注入：Open 构造数据与领域层（CLI 复用），
// New 在其上装配 HTTP 引擎、定时任务与指标端点.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/events"
	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/internal/jobs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/router"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage/db"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	"github.com/yeisme/docvault/pkg/internal/vault"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/middleware"
	"github.com/yeisme/docvault/pkg/scheduler"
	"github.com/yeisme/docvault/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

// Core 数据与领域层：数据库、缓存、事件总线与各 service.
type Core struct {
	Config *configs.AppConfig

	DB  *db.Client
	KV  *kv.Client
	Bus *events.Bus // events.enabled=false 时为 nil

	Folders *service.FolderService
	Files   *service.FileService
	Storage *service.StorageService
	Presign *service.PresignService
}

// Open 按配置连接数据库与 KV，迁移表结构并构造 service.
func Open(ctx context.Context, cfg *configs.AppConfig) (*Core, error) {
	dbClient, err := db.New(ctx, &cfg.DB, cfg.Server.Debug)
	if err != nil {
		return nil, err
	}

	c := &Core{Config: cfg, DB: dbClient}

	if cfg.Metrics.Enabled {
		if err := dbClient.RegisterGORMMetrics(cfg.DB.Database); err != nil {
			log.Logger().Warn().Err(err).Msg("gorm metrics disabled")
		}
	}

	if cfg.DB.AutoMigrate {
		if err := model.AutoMigrate(ctx, dbClient.DB); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.KV, err = kv.NewKVClient(ctx, &cfg.KV)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	v, err := vault.New(cfg.Vault.EncryptionKey)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	var emitter events.Emitter = events.Nop{}

	if cfg.Events.Enabled {
		client, err := mq.New(ctx, &cfg.Events, cfg.Metrics.Enabled)
		if err != nil {
			_ = c.Close()
			return nil, err
		}

		c.Bus = events.New(client, cfg.Events, cfg.CircuitBreaker)
		emitter = c.Bus
	}

	statusCache := cache.NewCache(c.KV, cfg.KV.Prefix, cfg.KV.DefaultTTL)

	c.Files = service.NewFileService(dbClient.DB, emitter)
	c.Folders = service.NewFolderService(dbClient.DB, c.Files, emitter)
	c.Storage = service.NewStorageService(dbClient.DB, v, provider.NewRegistry(), statusCache, emitter)
	c.Presign = service.NewPresignService(c.Storage, c.Files, cfg.Presign)

	return c, nil
}

// Close 依次关闭事件总线、KV 与数据库.
func (c *Core) Close() error {
	var errs []error

	if c.Bus != nil {
		errs = append(errs, c.Bus.Close())
	}

	if c.KV != nil {
		errs = append(errs, c.KV.Close())
	}

	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}

	return errors.Join(errs...)
}

// App HTTP 服务.
type App struct {
	*Core

	Engine    *gin.Engine
	scheduler *scheduler.Scheduler
	debug     *gin.Engine // metrics 与 pprof，独立端口
}

// New 初始化日志、追踪、指标，并装配 HTTP 路由与定时任务.
func New(ctx context.Context, cfg *configs.AppConfig) (*App, error) {
	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	core, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Core: core, Engine: newEngine(cfg)}

	h := handle.New(core.Folders, core.Files, core.Storage, core.Presign,
		handle.HealthCheck{Name: "db", Check: func(ctx context.Context) error {
			sqlDB, err := core.DB.DB.DB()
			if err != nil {
				return err
			}

			return sqlDB.PingContext(ctx)
		}},
		handle.HealthCheck{Name: "kv", Check: func(ctx context.Context) error {
			_, err := core.KV.Exists(ctx, "health")
			return err
		}},
	)

	router.Register(a.Engine, h, router.Options{
		Auth:           cfg.Auth,
		RateLimit:      cfg.RateLimit,
		CircuitBreaker: cfg.CircuitBreaker,
	})

	if cfg.Metrics.Enabled {
		a.debug = gin.New()
		a.debug.Use(gin.Recovery())
		_ = metrics.StartMetricsServer(cfg.Metrics, a.debug)
	}

	if cfg.Scheduler.Enabled {
		if a.scheduler, err = scheduler.New(); err != nil {
			_ = core.Close()
			return nil, err
		}

		if err := jobs.Register(a.scheduler, cfg.Scheduler, core.Storage, core.Folders); err != nil {
			_ = core.Close()
			return nil, err
		}
	}

	return a, nil
}

func newEngine(cfg *configs.AppConfig) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		middleware.AuthMiddleware(cfg.Auth),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
	)

	if cfg.Server.Gzip {
		engine.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	return engine
}

// Run 启动 HTTP 服务、指标端点与定时任务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config
	l := log.Logger()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: cfg.Server.GetTimeoutDuration(),
		WriteTimeout:      cfg.Server.GetTimeoutDuration(),
	}

	servers := []*http.Server{srv}
	if a.debug != nil {
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Endpoint,
			Handler:           a.debug,
			ReadHeaderTimeout: cfg.Server.GetTimeoutDuration(),
		})
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		g.Go(func() error {
			l.Info().Str("addr", s.Addr).Msg("HTTP server listening")

			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", s.Addr, err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		l.Info().Msg("Shutting down")

		var errs []error
		for _, s := range servers {
			errs = append(errs, s.Shutdown(sctx))
		}

		if a.scheduler != nil {
			errs = append(errs, a.scheduler.Shutdown())
		}

		errs = append(errs, tracing.ShutdownTracer(sctx), a.Close())

		return errors.Join(errs...)
	})

	return g.Wait()
}
