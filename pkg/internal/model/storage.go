package model

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// ErrObjectKeyImmutable 对象键创建后不可修改.
var ErrObjectKeyImmutable = errors.New("object key is immutable")

// StorageConfigSingleton 唯一配置行的 Singleton 取值.
const StorageConfigSingleton = 1

// StorageConfig 存储配置，至多一行（Singleton 唯一约束）.
// 凭据以 AES-256-GCM 加密，三个字段均为 hex.
type StorageConfig struct {
	ID           string    `gorm:"primaryKey;size:26"`
	Singleton    int       `gorm:"not null;uniqueIndex"`
	Provider     string    `gorm:"size:32;not null"`
	Ciphertext   string    `gorm:"type:text;not null"`
	IV           string    `gorm:"size:64;not null"`
	AuthTag      string    `gorm:"size:64;not null"`
	IsLocked     bool      `gorm:"not null;default:false"`
	ConfiguredAt time.Time `gorm:"not null"`
	LastTestedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 表名.
func (StorageConfig) TableName() string { return "storage_configs" }

// ConfigLock 配置锁，存在即表示配置处于锁定状态，解锁时删除.
type ConfigLock struct {
	ID              string    `gorm:"primaryKey;size:26"`
	ConfigurationID string    `gorm:"size:26;not null;uniqueIndex"`
	LockedAt        time.Time `gorm:"not null"`
	LockedBy        string    `gorm:"size:255;not null"`
	Reason          string    `gorm:"size:1024"`
	CanOverride     bool      `gorm:"not null;default:false"`
}

// TableName 表名.
func (ConfigLock) TableName() string { return "config_locks" }

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewULID 生成按时间单调递增的 ULID.
func NewULID(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String()
}
