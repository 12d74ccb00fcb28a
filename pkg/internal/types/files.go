package types

import (
	"time"

	"github.com/yeisme/docvault/pkg/internal/model"
)

// 文件列表排序字段.
const (
	SortByName      = "name"
	SortBySize      = "size"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"

	DefaultPageSize = 50
	MaxPageSize     = 200
)

// PresignedUploadRequest 申请上传 URL.
type PresignedUploadRequest struct {
	FileName  string  `json:"fileName"  rule:"required,filename"`
	FileType  string  `json:"fileType"  rule:"required,max=255"`
	FileSize  int64   `json:"fileSize"  rule:"gte=0"`
	FolderID  *string `json:"folderId"`
	ExpiresIn int     `json:"expiresIn" rule:"omitempty,min=1,max=604800"` // 秒
}

// PresignedUploadResponse 上传 URL 与待上传的文件记录.
type PresignedUploadResponse struct {
	UploadURL string    `json:"uploadUrl"`
	FileID    string    `json:"fileId"`
	ObjectKey string    `json:"objectKey"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PresignedURLRequest 下载、预览 URL 的可选有效期.
type PresignedURLRequest struct {
	ExpiresIn int `json:"expiresIn" rule:"omitempty,min=1,max=604800"`
}

// PresignedURLResponse 下载或预览 URL.
type PresignedURLResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType,omitempty"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FileListQuery 文件列表查询. FolderID 为 "root" 时只列出根目录文件，缺省时不按目录过滤.
type FileListQuery struct {
	FolderID  *string `form:"folderId"`
	Search    string  `form:"search"    rule:"max=255"`
	Starred   *bool   `form:"starred"`
	SortBy    string  `form:"sortBy"    rule:"omitempty,oneof=name size createdAt updatedAt"`
	SortOrder string  `form:"sortOrder" rule:"omitempty,oneof=asc desc"`
	Page      int     `form:"page"      rule:"omitempty,min=1"`
	Limit     int     `form:"limit"     rule:"omitempty,min=1,max=200"`
}

// Pagination 分页信息.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// FileListResponse 文件列表.
type FileListResponse struct {
	Files      []model.File `json:"files"`
	Pagination Pagination   `json:"pagination"`
}

// UpdateFileRequest 更新文件元数据，字段缺省表示不修改.
// FolderID 为 "" 或 "root" 时移动到根目录.
type UpdateFileRequest struct {
	Name     *string `json:"name"     rule:"omitempty,filename"`
	FolderID *string `json:"folderId"`
	Starred  *bool   `json:"starred"`
}

// BulkDeleteRequest 批量删除.
type BulkDeleteRequest struct {
	FileIDs []string `json:"fileIds" rule:"required,min=1,max=500,dive,required"`
}

// BulkMoveRequest 批量移动，TargetFolderID 为空或 "root" 时移动到根目录.
type BulkMoveRequest struct {
	FileIDs        []string `json:"fileIds"        rule:"required,min=1,max=500,dive,required"`
	TargetFolderID *string  `json:"targetFolderId"`
}

// BulkResult 批量操作结果.
type BulkResult struct {
	Affected int64 `json:"affected"`
}
