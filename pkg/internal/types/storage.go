package types

import (
	"time"

	"github.com/yeisme/docvault/pkg/internal/provider"
)

// StorageConfigureRequest 配置存储.
type StorageConfigureRequest struct {
	Provider    string               `json:"provider"    rule:"required,storage_type"`
	Credentials provider.Credentials `json:"credentials"`
}

// StorageTestRequest 测试连接. 省略凭据时测试已保存的配置.
type StorageTestRequest struct {
	Provider    string                `json:"provider"    rule:"omitempty,storage_type"`
	Credentials *provider.Credentials `json:"credentials"`
}

// ConfigureResponse 配置结果.
type ConfigureResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	Provider     provider.Type        `json:"provider"`
	Locked       bool                 `json:"locked"`
	ConfiguredAt time.Time            `json:"configuredAt"`
	TestResult   *provider.TestResult `json:"testResult"`
}

// StorageStatus 存储配置状态，未配置时只有 configured=false.
type StorageStatus struct {
	Configured   bool          `json:"configured"`
	Locked       bool          `json:"locked"`
	Provider     provider.Type `json:"provider,omitempty"`
	BucketName   string        `json:"bucketName,omitempty"`
	Region       string        `json:"region,omitempty"`
	LastTested   *time.Time    `json:"lastTested,omitempty"`
	ConfiguredAt *time.Time    `json:"configuredAt,omitempty"`
	LockedBy     string        `json:"lockedBy,omitempty"`
	LockedAt     *time.Time    `json:"lockedAt,omitempty"`
}

// RemoveLockResponse 解锁结果.
type RemoveLockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
