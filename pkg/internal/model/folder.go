// Package model 定义持久化模型（gorm）.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder 文件夹. Path 为从根到自身的名称以 "/" 拼接的物化路径，例如 /Research/2024.
// 同一 ParentID 下的未删除文件夹名称唯一，由服务层保证.
type Folder struct {
	ID        string         `gorm:"primaryKey;size:36"           json:"id"`
	Name      string         `gorm:"size:255;not null"            json:"name"`
	ParentID  *string        `gorm:"size:36;index"                json:"parentId"`
	Path      string         `gorm:"size:4096;not null"           json:"path"`
	Starred   bool           `gorm:"not null;default:false;index" json:"starred"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                        json:"-"`
}

// TableName 表名.
func (Folder) TableName() string { return "folders" }

// BeforeCreate 未指定 ID 时生成 UUID.
func (f *Folder) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	return nil
}

// ChildPath 计算子文件夹的路径.
func ChildPath(parentPath, name string) string {
	return parentPath + "/" + name
}
