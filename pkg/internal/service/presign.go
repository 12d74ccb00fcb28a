package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
	"github.com/yeisme/docvault/pkg/tracing"
)

// PresignService 串联 存储配置 -> 凭据解密 -> 提供商签名 -> 文件记录.
// expiresAt 恒等于签发时间加有效期.
type PresignService struct {
	storage *StorageService
	files   *FileService
	cfg     configs.PresignConfig
	now     func() time.Time
}

// NewPresignService 创建 PresignService.
func NewPresignService(storage *StorageService, files *FileService, cfg configs.PresignConfig) *PresignService {
	return &PresignService{
		storage: storage,
		files:   files,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ttl 解析请求的有效期（秒），0 表示使用默认值.
func (s *PresignService) ttl(expiresIn int) (time.Duration, error) {
	if expiresIn < 0 {
		return 0, fmt.Errorf("%w: expiresIn must be positive", errs.ErrValidation)
	}

	if expiresIn == 0 {
		if d := s.cfg.DefaultTTL(); d > 0 {
			return d, nil
		}

		return configs.DefaultPresignTTLSeconds * time.Second, nil
	}

	d := time.Duration(expiresIn) * time.Second

	maxTTL := s.cfg.MaxTTL()
	if maxTTL <= 0 {
		maxTTL = configs.MaxPresignTTLSeconds * time.Second
	}

	if d > maxTTL {
		return 0, fmt.Errorf("%w: expiresIn must not exceed %d seconds", errs.ErrValidation, int(maxTTL.Seconds()))
	}

	return d, nil
}

// UploadURL 生成对象键、签发上传 URL，并记录待上传的文件.
func (s *PresignService) UploadURL(ctx context.Context, req types.PresignedUploadRequest) (resp *types.PresignedUploadResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "presign.upload")
	defer func() { tracing.EndSpan(span, err) }()

	ttl, err := s.ttl(req.ExpiresIn)
	if err != nil {
		return nil, err
	}

	folderID := normalizeFolderID(req.FolderID)
	if err := ensureFolder(s.files.db.WithContext(ctx), folderID); err != nil {
		return nil, err
	}

	p, _, err := s.storage.ActiveProvider(ctx)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	key := provider.ObjectKey(strOrEmpty(folderID), req.FileName, issued)

	url, err := p.GenerateUploadURL(ctx, key, req.FileType, ttl)
	if err != nil {
		return nil, err
	}

	f := &model.File{
		Name:      req.FileName,
		Size:      req.FileSize,
		MimeType:  req.FileType,
		ObjectKey: key,
		FolderID:  folderID,
	}
	if err := s.files.CreatePending(ctx, f); err != nil {
		return nil, err
	}

	metrics.PresignIssued.WithLabelValues(string(p.Type()), metrics.PresignUpload).Inc()

	expiresAt := issued.Add(ttl)
	s.files.events.Emit(ctx, queue.TopicFilePending, queue.FilePendingPayload{File: fileRef(f), ExpiresAt: expiresAt})

	return &types.PresignedUploadResponse{
		UploadURL: url,
		FileID:    f.ID,
		ObjectKey: key,
		ExpiresIn: int(ttl.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

// DownloadURL 签发以附件形式下载的 URL.
func (s *PresignService) DownloadURL(ctx context.Context, fileID string, expiresIn int) (*types.PresignedURLResponse, error) {
	return s.getURL(ctx, fileID, expiresIn, metrics.PresignDownload)
}

// PreviewURL 签发内联预览的 URL.
func (s *PresignService) PreviewURL(ctx context.Context, fileID string, expiresIn int) (*types.PresignedURLResponse, error) {
	return s.getURL(ctx, fileID, expiresIn, metrics.PresignPreview)
}

func (s *PresignService) getURL(ctx context.Context, fileID string, expiresIn int, kind string) (resp *types.PresignedURLResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "presign."+kind)
	defer func() { tracing.EndSpan(span, err) }()

	ttl, err := s.ttl(expiresIn)
	if err != nil {
		return nil, err
	}

	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	p, _, err := s.storage.ActiveProvider(ctx)
	if err != nil {
		return nil, err
	}

	issued := s.now()

	var url string
	if kind == metrics.PresignPreview {
		url, err = p.GeneratePreviewURL(ctx, f.ObjectKey, f.Name, ttl)
	} else {
		url, err = p.GenerateDownloadURL(ctx, f.ObjectKey, f.Name, ttl)
	}

	if err != nil {
		return nil, err
	}

	metrics.PresignIssued.WithLabelValues(string(p.Type()), kind).Inc()

	return &types.PresignedURLResponse{
		URL:       url,
		FileName:  f.Name,
		MimeType:  f.MimeType,
		ExpiresIn: int(ttl.Seconds()),
		ExpiresAt: issued.Add(ttl),
	}, nil
}
