// Package provider 抽象 S3 兼容的对象存储提供商（AWS S3、Cloudflare R2、MinIO）.
//
// 每个提供商实现同一个 Provider 接口：连通性诊断与三类预签名 URL（上传、下载、预览）.
// S3 与 R2 基于 aws-sdk-go-v2，MinIO 基于 minio-go. 构造时只做参数校验，不发起网络请求.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yeisme/docvault/pkg/internal/errs"
)

// Type 存储提供商类型.
type Type string

const (
	TypeS3    Type = "s3"
	TypeR2    Type = "r2"
	TypeMinIO Type = "minio"
)

// ParseType 解析提供商类型，兼容 aws-s3 / cloudflare-r2 写法.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s3", "aws-s3", "aws":
		return TypeS3, nil
	case "r2", "cloudflare-r2", "cloudflare":
		return TypeR2, nil
	case "minio":
		return TypeMinIO, nil
	default:
		return "", fmt.Errorf("%w: unsupported storage provider %q", errs.ErrValidation, s)
	}
}

// DisplayName 返回用于诊断信息的名称.
func (t Type) DisplayName() string {
	switch t {
	case TypeS3:
		return "AWS S3"
	case TypeR2:
		return "Cloudflare R2"
	case TypeMinIO:
		return "MinIO"
	default:
		return string(t)
	}
}

// Credentials 明文凭据，只在内存中存在，落库前必须经 vault 加密.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"        rule:"required"`
	SecretAccessKey string `json:"secretAccessKey"    rule:"required"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"             rule:"required"`
	Endpoint        string `json:"endpoint,omitempty" rule:"omitempty,url"`
}

// BucketInfo 桶的名称与生效区域.
type BucketInfo struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Provider 存储提供商的统一能力.
type Provider interface {
	// Type 提供商类型.
	Type() Type
	// Bucket 返回桶名称与生效区域（R2 恒为 auto）.
	Bucket() BucketInfo
	// TestConnection 依次执行诊断检查，在第一个阻断性失败处停止.
	TestConnection(ctx context.Context) *TestResult
	// GenerateUploadURL 签发 PUT 上传 URL，Content-Type 参与签名.
	GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	// GenerateDownloadURL 签发以附件形式下载的 GET URL.
	GenerateDownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error)
	// GeneratePreviewURL 签发浏览器内联展示的 GET URL.
	GeneratePreviewURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error)
}

// contentDisposition 生成 response-content-disposition 的取值.
func contentDisposition(kind, fileName string) string {
	name := strings.NewReplacer(`"`, `'`, "\r", "", "\n", "").Replace(fileName)

	return fmt.Sprintf(`%s; filename="%s"`, kind, name)
}

const (
	dispositionAttachment = "attachment"
	dispositionInline     = "inline"
)

// requireEndpoint R2 与 MinIO 必须显式提供 endpoint.
func requireEndpoint(t Type, creds Credentials) error {
	if strings.TrimSpace(creds.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required for %s", errs.ErrValidation, t.DisplayName())
	}

	return nil
}

func validateCommon(creds Credentials) error {
	switch {
	case creds.AccessKeyID == "":
		return fmt.Errorf("%w: accessKeyId is required", errs.ErrValidation)
	case creds.SecretAccessKey == "":
		return fmt.Errorf("%w: secretAccessKey is required", errs.ErrValidation)
	case creds.Bucket == "":
		return fmt.Errorf("%w: bucket is required", errs.ErrValidation)
	}

	return nil
}
