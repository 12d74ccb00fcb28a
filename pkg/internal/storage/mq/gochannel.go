package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/docvault/pkg/configs"
)

// DefaultOutputBuffer gochannel 订阅端缓冲.
const DefaultOutputBuffer = 64

func init() {
	RegisterFactory(configs.EventsDriverGoChannel, goChannelFactory)
}

// goChannelFactory 创建进程内总线，发布端与订阅端共享同一实例.
func goChannelFactory(_ context.Context, _ *configs.EventsConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: DefaultOutputBuffer,
	}, logger)

	return ch, ch, nil
}
