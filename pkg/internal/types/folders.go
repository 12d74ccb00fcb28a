// Package types 定义 HTTP 接口的请求与响应结构.
package types

import (
	"time"

	"github.com/yeisme/docvault/pkg/internal/model"
)

// RootFolderID 虚拟根目录的标识，用于 /folders/root/contents 等接口.
const RootFolderID = "root"

// CreateFolderRequest 创建文件夹请求.
type CreateFolderRequest struct {
	Name     string  `json:"name"     rule:"required,foldername"`
	ParentID *string `json:"parentId"`
}

// RenameFolderRequest 重命名文件夹请求.
type RenameFolderRequest struct {
	Name string `json:"name" rule:"required,foldername"`
}

// StarRequest 收藏开关.
type StarRequest struct {
	Starred *bool `json:"starred" rule:"required"`
}

// BreadcrumbItem 面包屑中的一级.
type BreadcrumbItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// FolderSummary 带直接子项数量的文件夹.
type FolderSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	Path      string    `json:"path"`
	Starred   bool      `json:"starred"`
	ItemCount int64     `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewFolderSummary 由模型构造摘要.
func NewFolderSummary(f *model.Folder, itemCount int64) FolderSummary {
	return FolderSummary{
		ID:        f.ID,
		Name:      f.Name,
		ParentID:  f.ParentID,
		Path:      f.Path,
		Starred:   f.Starred,
		ItemCount: itemCount,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// FolderContents 文件夹内容：自身、直接子文件夹、直接文件与面包屑.
// 虚拟根目录时 Folder 为 nil.
type FolderContents struct {
	Folder     *model.Folder    `json:"folder"`
	Subfolders []FolderSummary  `json:"subfolders"`
	Files      []model.File     `json:"files"`
	Breadcrumb []BreadcrumbItem `json:"breadcrumb"`
}
