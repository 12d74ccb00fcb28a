package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 文件夹领域 --------------------------

// FolderRef 文件夹标识.
type FolderRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
	Path     string  `json:"path"`
}

// FolderCreatedPayload 文件夹已创建.
type FolderCreatedPayload struct {
	Folder FolderRef `json:"folder"`
}

// FolderRenamedPayload 文件夹已重命名.
type FolderRenamedPayload struct {
	Folder          FolderRef `json:"folder"`
	OldPath         string    `json:"old_path"`
	DescendantsMove int       `json:"descendants_moved"` // 路径被重算的后代数量
}

// FolderDeletedPayload 文件夹及其后代已软删除.
type FolderDeletedPayload struct {
	FolderID      string   `json:"folder_id"`
	DescendantIDs []string `json:"descendant_ids,omitempty"`
}

// -------------------------- 文件领域 --------------------------

// FileRef 文件标识.
type FileRef struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ObjectKey string  `json:"object_key"`
	FolderID  *string `json:"folder_id,omitempty"`
	Size      int64   `json:"size,omitempty"`
	MimeType  string  `json:"mime_type,omitempty"`
}

// FilePendingPayload 已签发上传 URL.
type FilePendingPayload struct {
	File      FileRef   `json:"file"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileChangedPayload 文件元数据变化（更新、移动、删除共用）.
type FileChangedPayload struct {
	Files []FileRef `json:"files"`
}

// -------------------------- 存储配置领域 --------------------------

// StoragePayload 存储配置变化，不包含任何凭据.
type StoragePayload struct {
	Provider string `json:"provider"`
	Bucket   string `json:"bucket,omitempty"`
	Locked   bool   `json:"locked"`
	Actor    string `json:"actor,omitempty"`
	Success  *bool  `json:"success,omitempty"` // 仅 tested
}
