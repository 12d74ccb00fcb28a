package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/storage/mq"
	"github.com/yeisme/docvault/pkg/queue"
)

func newTestBus(t *testing.T, cfg configs.EventsConfig) *Bus {
	t.Helper()

	cfg.Driver = configs.EventsDriverGoChannel

	client, err := mq.New(context.Background(), &cfg, false)
	require.NoError(t, err)

	b := New(client, cfg, configs.CircuitBreakerConfig{})
	t.Cleanup(func() { _ = b.Close() })

	return b
}

func TestBus_PublishDelivers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b := newTestBus(t, configs.EventsConfig{
		Enabled: true,
		Folder:  configs.FolderEventsConfig{Renamed: true},
	})

	ch, err := b.Subscribe(ctx, queue.TopicFolderRenamed)
	require.NoError(t, err)

	payload := queue.FolderRenamedPayload{
		Folder:          queue.FolderRef{ID: "f1", Name: "Reports", Path: "/Reports"},
		OldPath:         "/Docs",
		DescendantsMove: 2,
	}
	require.NoError(t, b.Publish(ctx, queue.TopicFolderRenamed, payload))

	select {
	case msg := <-ch:
		msg.Ack()

		env, err := queue.ParseFolderRenamed(msg)
		require.NoError(t, err)
		assert.Equal(t, queue.TopicFolderRenamed, env.Header.Topic)
		assert.Equal(t, configs.AppName, env.Header.Producer)
		assert.Equal(t, queue.PayloadVersionV1, env.Header.Version)
		assert.Equal(t, payload, env.Payload)
		assert.Equal(t, queue.TopicFolderRenamed, msg.Metadata.Get("topic"))
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestBus_DisabledTopic(t *testing.T) {
	b := newTestBus(t, configs.EventsConfig{Enabled: true})

	assert.False(t, b.Enabled(queue.TopicFolderCreated))
	assert.ErrorIs(t, b.Publish(context.Background(), queue.TopicFolderCreated, queue.FolderCreatedPayload{}), ErrTopicDisabled)
	assert.False(t, b.Enabled("dv.unknown"))

	// Emit 吞掉错误
	b.Emit(context.Background(), queue.TopicFolderCreated, queue.FolderCreatedPayload{})
}

func TestBus_StorageToggleCoversAllStorageTopics(t *testing.T) {
	b := newTestBus(t, configs.EventsConfig{Enabled: true, Storage: true})

	for _, topic := range []string{queue.TopicStorageConfigured, queue.TopicStorageUnlocked, queue.TopicStorageTested} {
		assert.True(t, b.Enabled(topic), topic)
	}
}

func TestNop(t *testing.T) {
	var e Emitter = Nop{}
	e.Emit(context.Background(), queue.TopicFileDeleted, nil)
}
