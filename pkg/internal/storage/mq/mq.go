// Package mq 基于 Watermill 封装事件总线的发布/订阅端.
//
// 支持的驱动：
//   - gochannel：进程内总线，单机部署与测试使用
//   - nats：NATS Core / JetStream
//
// 使用示例：
//
//	client, err := mq.New(ctx, &cfg.Events, cfg.Metrics.Enabled)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicFolderCreated, payload)
//	err = client.Publish(ctx, queue.TopicFolderCreated, msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/docvault/pkg/configs"
	nlog "github.com/yeisme/docvault/pkg/log"
)

// ErrNotInitialized 客户端未初始化.
var ErrNotInitialized = errors.New("mq client not initialized")

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.EventsConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.EventsDriver]Factory{}

// RegisterFactory 注册指定驱动的工厂.
func RegisterFactory(d configs.EventsDriver, f Factory) {
	factories[d] = f
}

// GetRegisteredDrivers 返回已注册的驱动.
func GetRegisteredDrivers() []string {
	out := make([]string, 0, len(factories))
	for d := range factories {
		out = append(out, string(d))
	}

	sort.Strings(out)

	return out
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	driver      configs.EventsDriver
	topicPrefix string
	publisher   message.Publisher
	subscriber  message.Subscriber
}

// New 按配置创建客户端；metricsEnabled 时用 Prometheus 装饰 Publisher 与 Subscriber.
func New(ctx context.Context, cfg *configs.EventsConfig, metricsEnabled bool) (*Client, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = configs.EventsDriverGoChannel
	}

	factory, ok := factories[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported events driver: %s", driver)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", driver, err)
	}

	if metricsEnabled {
		builder := metrics.NewPrometheusMetricsBuilder(prometheus.DefaultRegisterer, configs.AppName, "events")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	c := &Client{driver: driver, publisher: pub, subscriber: sub}
	if driver == configs.EventsDriverNATS {
		c.topicPrefix = cfg.NATS.SubjectPrefix
	}

	nlog.Logger().Info().Str("driver", string(driver)).Msg("event bus initialized")

	return c, nil
}

// Driver 返回驱动名.
func (c *Client) Driver() configs.EventsDriver { return c.driver }

func (c *Client) topic(t string) string { return c.topicPrefix + t }

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return ErrNotInitialized
	}

	return c.publisher.Publish(c.topic(topic), msgs...)
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, ErrNotInitialized
	}

	return c.subscriber.Subscribe(ctx, c.topic(topic))
}

// Close 关闭资源.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	var errList []error

	if c.publisher != nil {
		errList = append(errList, c.publisher.Close())
	}

	// gochannel 的 Publisher 与 Subscriber 是同一个实例，Close 幂等
	if c.subscriber != nil {
		errList = append(errList, c.subscriber.Close())
	}

	return errors.Join(errList...)
}
