package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File 文件元数据. 在签发上传 URL 时乐观创建，此时对象可能尚未写入存储.
// ObjectKey 创建后不可变，重命名只修改 Name.
type File struct {
	ID        string         `gorm:"primaryKey;size:36"           json:"id"`
	Name      string         `gorm:"size:512;not null;index"      json:"name"`
	Size      int64          `gorm:"not null;default:0"           json:"size"`
	MimeType  string         `gorm:"size:255"                     json:"mimeType"`
	ObjectKey string         `gorm:"size:1024;not null;uniqueIndex" json:"objectKey"`
	FolderID  *string        `gorm:"size:36;index"                json:"folderId"`
	Starred   bool           `gorm:"not null;default:false;index" json:"starred"`
	CreatedAt time.Time      `gorm:"index"                        json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                        json:"-"`
}

// TableName 表名.
func (File) TableName() string { return "files" }

// BeforeCreate 未指定 ID 时生成 UUID.
func (f *File) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	return nil
}

// BeforeUpdate 拒绝修改对象键.
func (f *File) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("ObjectKey") {
		return ErrObjectKeyImmutable
	}

	return nil
}
