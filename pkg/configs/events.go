package configs

import "github.com/spf13/viper"

// EventsDriver 事件总线实现.
type EventsDriver string

const (
	EventsDriverGoChannel EventsDriver = "gochannel"
	EventsDriverNATS      EventsDriver = "nats"

	DefaultEventsNATSURL       = "nats://localhost:4222"
	DefaultEventsSubjectPrefix = "docvault."
	DefaultMaxReconnects       = 5 // 默认最大重连次数.
	DefaultReconnectWait       = 5 // 默认重连等待时间（秒）.
)

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool               `mapstructure:"enabled"` // 总开关
	Driver  EventsDriver       `mapstructure:"driver"  rule:"oneof=gochannel nats"`
	NATS    EventsNATSConfig   `mapstructure:"nats"`
	Folder  FolderEventsConfig `mapstructure:"folder"`
	File    FileEventsConfig   `mapstructure:"file"`
	Storage bool               `mapstructure:"storage"` // 存储配置、锁变更
}

// EventsNATSConfig NATS 连接配置.
type EventsNATSConfig struct {
	URL           string `mapstructure:"url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	JetStream     bool   `mapstructure:"jetstream"`
}

// FolderEventsConfig 文件夹领域的事件开关。
type FolderEventsConfig struct {
	Created bool `mapstructure:"created"`
	Renamed bool `mapstructure:"renamed"`
	Deleted bool `mapstructure:"deleted"`
}

// FileEventsConfig 文件领域的事件开关。
type FileEventsConfig struct {
	Pending bool `mapstructure:"pending"`
	Updated bool `mapstructure:"updated"`
	Deleted bool `mapstructure:"deleted"`
	Moved   bool `mapstructure:"moved"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，单机部署无需事件总线
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.driver", EventsDriverGoChannel)

	v.SetDefault("events.nats.url", DefaultEventsNATSURL)
	v.SetDefault("events.nats.user", "")
	v.SetDefault("events.nats.password", "")
	v.SetDefault("events.nats.subject_prefix", DefaultEventsSubjectPrefix)
	v.SetDefault("events.nats.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("events.nats.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("events.nats.jetstream", false)

	v.SetDefault("events.folder.created", true)
	v.SetDefault("events.folder.renamed", true)
	v.SetDefault("events.folder.deleted", true)

	v.SetDefault("events.file.pending", true)
	v.SetDefault("events.file.deleted", true)
	// 可选事件：默认关闭，按需开启
	v.SetDefault("events.file.updated", false)
	v.SetDefault("events.file.moved", false)

	v.SetDefault("events.storage", true)
}
