package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	nlog "github.com/yeisme/docvault/pkg/log"
)

// Checks 各项诊断的结果.
type Checks struct {
	BucketExists       bool `json:"bucketExists"`
	ReadPermission     bool `json:"readPermission"`
	WritePermission    bool `json:"writePermission"`
	CORSConfigured     bool `json:"corsConfigured"`
	MultipartSupported bool `json:"multipartSupported"`
}

// TestResult 连通性诊断结果.
type TestResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Details      Checks `json:"details"`
	Error        string `json:"error,omitempty"`
	ResponseTime int64  `json:"responseTime"` // 毫秒
}

// bucketOps 诊断所需的最小桶操作集合，由各提供商实现.
type bucketOps interface {
	HeadBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body string, contentType string) error
	DeleteObject(ctx context.Context, key string) error
	GetBucketCORS(ctx context.Context) error
	CreateMultipart(ctx context.Context, key string) (uploadID string, err error)
	AbortMultipart(ctx context.Context, key, uploadID string) error
}

const writeCheckBody = "test-write-access"

// runDiagnostics 依次执行：
//  1. 桶存在与读权限（阻断）
//  2. 写权限：写入并删除临时对象（阻断）
//  3. CORS 配置（仅记录）
//  4. 分片上传：创建并中止（仅记录）
func runDiagnostics(ctx context.Context, t Type, ops bucketOps, now func() time.Time) *TestResult {
	start := now()
	name := t.DisplayName()
	res := &TestResult{}

	finish := func(success bool, msg string, err error) *TestResult {
		res.Success = success
		res.Message = msg
		if err != nil {
			res.Error = err.Error()
		}

		res.ResponseTime = now().Sub(start).Milliseconds()

		return res
	}

	if err := ops.HeadBucket(ctx); err != nil {
		return finish(false, name+" bucket does not exist or is not accessible", err)
	}

	res.Details.BucketExists = true
	res.Details.ReadPermission = true

	writeKey := fmt.Sprintf(".test-write-%d.txt", start.UnixMilli())
	if err := ops.PutObject(ctx, writeKey, writeCheckBody, "text/plain"); err != nil {
		return finish(false, name+" write permission denied", err)
	}

	if err := ops.DeleteObject(ctx, writeKey); err != nil {
		return finish(false, name+" write permission denied", fmt.Errorf("cleanup ops object: %w", err))
	}

	res.Details.WritePermission = true

	res.Details.CORSConfigured = ops.GetBucketCORS(ctx) == nil

	multipartKey := fmt.Sprintf(".test-multipart-%d.txt", start.UnixMilli())
	if uploadID, err := ops.CreateMultipart(ctx, multipartKey); err == nil && uploadID != "" {
		res.Details.MultipartSupported = true
		// 中止失败会在桶中留下未完成的分片，不影响结论但需要运维清理
		if err := ops.AbortMultipart(ctx, multipartKey, uploadID); err != nil {
			nlog.Ctx(ctx).Warn().Err(err).
				Str("provider", string(t)).
				Str("key", multipartKey).
				Str("upload_id", uploadID).
				Msg("abort diagnostic multipart upload failed, orphaned parts may remain")
		}
	}

	return finish(true, name+" connection successful", nil)
}

// Summary 以单行文本概括诊断结果，用于日志与错误信息.
func (r *TestResult) Summary() string {
	var b strings.Builder

	b.WriteString(r.Message)

	if r.Error != "" {
		b.WriteString(": ")
		b.WriteString(r.Error)
	}

	return b.String()
}
