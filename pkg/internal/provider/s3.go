package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/yeisme/docvault/pkg/internal/errs"
)

const (
	// r2Region Cloudflare R2 只接受 auto.
	r2Region = "auto"
	// defaultS3Region 未填写区域时的回退值.
	defaultS3Region = "us-east-1"
)

// awsProvider 基于 aws-sdk-go-v2 的实现，服务 AWS S3 与 Cloudflare R2.
type awsProvider struct {
	kind      Type
	bucket    BucketInfo
	client    *s3.Client
	presigner *s3.PresignClient
	now       func() time.Time
}

// NewS3 创建 AWS S3 提供商，endpoint 可选（用于 S3 兼容网关）.
func NewS3(creds Credentials) (Provider, error) {
	if err := validateCommon(creds); err != nil {
		return nil, err
	}

	region := creds.Region
	if region == "" {
		region = defaultS3Region
	}

	return newAWSProvider(TypeS3, creds, region, false), nil
}

// NewR2 创建 Cloudflare R2 提供商，endpoint 必填，区域固定为 auto.
func NewR2(creds Credentials) (Provider, error) {
	if err := validateCommon(creds); err != nil {
		return nil, err
	}

	if err := requireEndpoint(TypeR2, creds); err != nil {
		return nil, err
	}

	return newAWSProvider(TypeR2, creds, r2Region, false), nil
}

func newAWSProvider(kind Type, creds Credentials, region string, pathStyle bool) *awsProvider {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID,
				creds.SecretAccessKey,
				"",
			)
			// 预签名 PUT 不能携带空 body 的校验和
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
			// 提供商调用失败立即返回，不做重试
			o.Retryer = aws.NopRetryer{}
		},
	}

	if creds.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(strings.TrimSuffix(creds.Endpoint, "/"))
			o.UsePathStyle = pathStyle
		})
	}

	client := s3.New(s3.Options{}, opts...)

	return &awsProvider{
		kind:      kind,
		bucket:    BucketInfo{Name: creds.Bucket, Region: region},
		client:    client,
		presigner: s3.NewPresignClient(client),
		now:       time.Now,
	}
}

func (p *awsProvider) Type() Type { return p.kind }

func (p *awsProvider) Bucket() BucketInfo { return p.bucket }

// TestConnection 执行诊断检查.
func (p *awsProvider) TestConnection(ctx context.Context) *TestResult {
	return runDiagnostics(ctx, p.kind, p, p.now)
}

// GenerateUploadURL 签发 PUT 上传 URL.
func (p *awsProvider) GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket.Name),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := p.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapS3Error(err)
	}

	return req.URL, nil
}

// GenerateDownloadURL 签发附件下载 URL.
func (p *awsProvider) GenerateDownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	return p.presignGet(ctx, key, contentDisposition(dispositionAttachment, fileName), ttl)
}

// GeneratePreviewURL 签发内联预览 URL.
func (p *awsProvider) GeneratePreviewURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error) {
	return p.presignGet(ctx, key, contentDisposition(dispositionInline, fileName), ttl)
}

func (p *awsProvider) presignGet(ctx context.Context, key, disposition string, ttl time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket:                     aws.String(p.bucket.Name),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(disposition),
	}

	req, err := p.presigner.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapS3Error(err)
	}

	return req.URL, nil
}

// 以下实现 bucketOps.

func (p *awsProvider) HeadBucket(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket.Name)})

	return wrapS3Error(err)
}

func (p *awsProvider) PutObject(ctx context.Context, key, body, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket.Name),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String(contentType),
	})

	return wrapS3Error(err)
}

func (p *awsProvider) DeleteObject(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket.Name),
		Key:    aws.String(key),
	})

	return wrapS3Error(err)
}

func (p *awsProvider) GetBucketCORS(ctx context.Context) error {
	_, err := p.client.GetBucketCors(ctx, &s3.GetBucketCorsInput{Bucket: aws.String(p.bucket.Name)})

	return wrapS3Error(err)
}

func (p *awsProvider) CreateMultipart(ctx context.Context, key string) (string, error) {
	out, err := p.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(p.bucket.Name),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", wrapS3Error(err)
	}

	return aws.ToString(out.UploadId), nil
}

func (p *awsProvider) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := p.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(p.bucket.Name),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})

	return wrapS3Error(err)
}

// wrapS3Error 把 SDK 错误归一为 errs.ErrProvider，保留错误码便于排查.
// 原始错误以 %v 拼接，调用方只应使用 errors.Is 判断哨兵.
func wrapS3Error(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %v", errs.ErrProvider, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("%w: %v", errs.ErrProvider, err)
}
