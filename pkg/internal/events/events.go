// Package events 发布 docvault 的领域事件.
//
// 服务层只依赖 Emitter 接口：事件是尽力而为的通知，发布失败只记录日志，
// 不会影响已经提交的数据库事务.
package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/queue"
)

// ErrTopicDisabled 主题被配置关闭.
var ErrTopicDisabled = errors.New("event topic disabled")

// Emitter 领域事件发送端.
type Emitter interface {
	Emit(ctx context.Context, topic string, payload any)
}

// Nop 丢弃所有事件，events.enabled=false 时使用.
type Nop struct{}

func (Nop) Emit(context.Context, string, any) {}

// Bus 基于 mq.Client 的 Emitter 实现.
type Bus struct {
	client *mq.Client
	cfg    configs.EventsConfig
	cb     *gobreaker.CircuitBreaker
}

// New 创建 Bus；cbCfg.Enabled 时用熔断器保护发布，避免 broker 故障拖慢请求.
func New(client *mq.Client, cfg configs.EventsConfig, cbCfg configs.CircuitBreakerConfig) *Bus {
	b := &Bus{client: client, cfg: cfg}
	if cbCfg.Enabled {
		b.cb = NewBreaker("events-publish", cbCfg)
	}

	return b
}

// NewBreaker 按配置构造 gobreaker，失败比例达到阈值后打开.
func NewBreaker(name string, cfg configs.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.ShouldTrip(counts.Requests, counts.TotalFailures)
		},
	})
}

// Enabled 判断主题是否开启.
func (b *Bus) Enabled(topic string) bool {
	switch topic {
	case queue.TopicFolderCreated:
		return b.cfg.Folder.Created
	case queue.TopicFolderRenamed:
		return b.cfg.Folder.Renamed
	case queue.TopicFolderDeleted:
		return b.cfg.Folder.Deleted
	case queue.TopicFilePending:
		return b.cfg.File.Pending
	case queue.TopicFileUpdated:
		return b.cfg.File.Updated
	case queue.TopicFileMoved:
		return b.cfg.File.Moved
	case queue.TopicFileDeleted:
		return b.cfg.File.Deleted
	case queue.TopicStorageConfigured, queue.TopicStorageUnlocked, queue.TopicStorageTested:
		return b.cfg.Storage
	default:
		return false
	}
}

// Publish 封装信封并发布，返回错误.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	if !b.Enabled(topic) {
		return ErrTopicDisabled
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(configs.AppName)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	msg, err := queue.NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	msg.SetContext(ctx)

	if b.cb == nil {
		return b.client.Publish(ctx, topic, msg)
	}

	_, err = b.cb.Execute(func() (any, error) {
		return nil, b.client.Publish(ctx, topic, msg)
	})

	return err
}

// Emit 发布事件，失败只记录日志.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) {
	err := b.Publish(ctx, topic, payload)
	if err == nil || errors.Is(err, ErrTopicDisabled) {
		return
	}

	nlog.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("publish event failed")
}

// Subscribe 订阅主题.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.client.Subscribe(ctx, topic)
}

// Close 关闭底层客户端.
func (b *Bus) Close() error {
	return b.client.Close()
}
