package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/errs"
)

// defaultMinIORegion MinIO 未配置区域时的默认值.
const defaultMinIORegion = "us-east-1"

// minioProvider 基于 minio-go 的实现，强制 path-style 访问.
type minioProvider struct {
	bucket BucketInfo
	core   *minio.Core
	now    func() time.Time
}

// NewMinIO 创建 MinIO 提供商，endpoint 必填，可带 http:// 或 https:// 前缀.
func NewMinIO(creds Credentials) (Provider, error) {
	if err := validateCommon(creds); err != nil {
		return nil, err
	}

	if err := requireEndpoint(TypeMinIO, creds); err != nil {
		return nil, err
	}

	host, secure, err := splitEndpoint(creds.Endpoint)
	if err != nil {
		return nil, err
	}

	region := creds.Region
	if region == "" {
		region = defaultMinIORegion
	}

	// 显式指定 Region，预签名时无需查询桶位置
	core, err := minio.NewCore(host, &minio.Options{
		Creds:        miniocreds.NewStaticV4(creds.AccessKeyID, creds.SecretAccessKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
		// 1 表示只发一次请求，不重试
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create minio client: %v", errs.ErrValidation, err)
	}

	core.SetAppInfo(configs.AppName, configs.AppVersion)

	return &minioProvider{
		bucket: BucketInfo{Name: creds.Bucket, Region: region},
		core:   core,
		now:    time.Now,
	}, nil
}

// splitEndpoint 允许用户传完整 schema endpoint（http:// 或 https://），无 schema 时默认 https.
func splitEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if !strings.Contains(endpoint, "://") {
		return endpoint, true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, fmt.Errorf("%w: invalid endpoint %q", errs.ErrValidation, endpoint)
	}

	return u.Host, u.Scheme == "https", nil
}

func (p *minioProvider) Type() Type { return TypeMinIO }

func (p *minioProvider) Bucket() BucketInfo { return p.bucket }

// TestConnection 执行诊断检查.
func (p *minioProvider) TestConnection(ctx context.Context) *TestResult {
	return runDiagnostics(ctx, TypeMinIO, p, p.now)
}

// GenerateUploadURL 签发 PUT 上传 URL，Content-Type 作为签名头.
func (p *minioProvider) GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	var headers http.Header
	if contentType != "" {
		headers = http.Header{"Content-Type": []string{contentType}}
	}

	u, err := p.core.PresignHeader(ctx, http.MethodPut, p.bucket.Name, key, ttl, nil, headers)
	if err != nil {
		return "", wrapMinIOError(err)
	}

	return u.String(), nil
}

// GenerateDownloadURL 签发附件下载 URL.
func (p *minioProvider) GenerateDownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	return p.presignGet(ctx, key, contentDisposition(dispositionAttachment, fileName), ttl)
}

// GeneratePreviewURL 签发内联预览 URL.
func (p *minioProvider) GeneratePreviewURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	return p.presignGet(ctx, key, contentDisposition(dispositionInline, fileName), ttl)
}

func (p *minioProvider) presignGet(ctx context.Context, key, disposition string, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", disposition)

	u, err := p.core.PresignedGetObject(ctx, p.bucket.Name, key, ttl, params)
	if err != nil {
		return "", wrapMinIOError(err)
	}

	return u.String(), nil
}

// 以下实现 bucketOps.

func (p *minioProvider) HeadBucket(ctx context.Context) error {
	exists, err := p.core.BucketExists(ctx, p.bucket.Name)
	if err != nil {
		return wrapMinIOError(err)
	}

	if !exists {
		return fmt.Errorf("%w: NoSuchBucket: bucket %s not found", errs.ErrProvider, p.bucket.Name)
	}

	return nil
}

func (p *minioProvider) PutObject(ctx context.Context, key, body, contentType string) error {
	_, err := p.core.Client.PutObject(ctx, p.bucket.Name, key, strings.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})

	return wrapMinIOError(err)
}

func (p *minioProvider) DeleteObject(ctx context.Context, key string) error {
	return wrapMinIOError(p.core.RemoveObject(ctx, p.bucket.Name, key, minio.RemoveObjectOptions{}))
}

func (p *minioProvider) GetBucketCORS(ctx context.Context) error {
	_, err := p.core.GetBucketCors(ctx, p.bucket.Name)

	return wrapMinIOError(err)
}

func (p *minioProvider) CreateMultipart(ctx context.Context, key string) (string, error) {
	id, err := p.core.NewMultipartUpload(ctx, p.bucket.Name, key, minio.PutObjectOptions{})
	if err != nil {
		return "", wrapMinIOError(err)
	}

	return id, nil
}

func (p *minioProvider) AbortMultipart(ctx context.Context, key, uploadID string) error {
	return wrapMinIOError(p.core.AbortMultipartUpload(ctx, p.bucket.Name, key, uploadID))
}

// wrapMinIOError 把 minio 错误归一为 errs.ErrProvider.
func wrapMinIOError(err error) error {
	if err == nil {
		return nil
	}

	if resp := minio.ToErrorResponse(err); resp.Code != "" {
		return fmt.Errorf("%w: %s: %v", errs.ErrProvider, resp.Code, err)
	}

	return fmt.Errorf("%w: %v", errs.ErrProvider, err)
}
