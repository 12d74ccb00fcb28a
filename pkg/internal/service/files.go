package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/events"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/queue"
)

// liveFolderCond 文件可见的条件：位于根目录或所在文件夹未被删除.
// 文件自身的 deleted_at 由 gorm 的软删除作用域处理.
const liveFolderCond = "(files.folder_id IS NULL OR EXISTS (SELECT 1 FROM folders WHERE folders.id = files.folder_id AND folders.deleted_at IS NULL))"

var sortColumns = map[string]string{
	types.SortByName:      "name",
	types.SortBySize:      "size",
	types.SortByCreatedAt: "created_at",
	types.SortByUpdatedAt: "updated_at",
}

// FileService 文件元数据的读写. 只操作数据库，存储中的对象由客户端经预签名 URL 直接读写.
type FileService struct {
	db     *gorm.DB
	events events.Emitter
}

// NewFileService 创建 FileService.
func NewFileService(db *gorm.DB, emitter events.Emitter) *FileService {
	if emitter == nil {
		emitter = events.Nop{}
	}

	return &FileService{db: db, events: emitter}
}

func (s *FileService) live(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.File{}).Where(liveFolderCond)
}

func fileRef(f *model.File) queue.FileRef {
	return queue.FileRef{
		ID:        f.ID,
		Name:      f.Name,
		ObjectKey: f.ObjectKey,
		FolderID:  f.FolderID,
		Size:      f.Size,
		MimeType:  f.MimeType,
	}
}

// ensureFolder 校验目标文件夹存在，nil 表示根目录.
func ensureFolder(db *gorm.DB, folderID *string) error {
	if folderID == nil {
		return nil
	}

	if _, err := getFolder(db, *folderID); err != nil {
		return fmt.Errorf("target folder: %w", err)
	}

	return nil
}

// CreatePending 记录一个待上传的文件，对象键由调用方生成.
func (s *FileService) CreatePending(ctx context.Context, f *model.File) error {
	f.FolderID = normalizeFolderID(f.FolderID)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureFolder(tx, f.FolderID); err != nil {
			return err
		}

		return tx.Create(f).Error
	})
}

// Get 读取可见的文件.
func (s *FileService) Get(ctx context.Context, id string) (*model.File, error) {
	var f model.File
	if err := s.live(ctx).Where("files.id = ?", id).First(&f).Error; err != nil {
		return nil, wrapNotFound(err, "file", id)
	}

	return &f, nil
}

// ListByFolder 列出文件夹下的直接文件，folderID 为 nil 表示根目录.
func (s *FileService) ListByFolder(ctx context.Context, folderID *string) ([]model.File, error) {
	out := make([]model.File, 0, DefaultSliceCapacity)
	q := whereNullable(s.live(ctx), "files.folder_id", normalizeFolderID(folderID))

	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// CountInFolder 统计文件夹下的直接文件数.
func (s *FileService) CountInFolder(ctx context.Context, folderID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.File{}).Where("folder_id = ?", folderID).Count(&n).Error

	return n, err
}

// escapeLike 以 "!" 为转义符转义 LIKE 通配符，兼容 SQLite、PostgreSQL 与 MySQL.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// List 按目录、关键字、收藏过滤并排序分页.
func (s *FileService) List(ctx context.Context, q types.FileListQuery) (*types.FileListResponse, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = types.DefaultPageSize
	}

	if limit > types.MaxPageSize {
		limit = types.MaxPageSize
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[types.SortByCreatedAt]
	}

	dir := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}

	db := s.live(ctx)

	if q.FolderID != nil {
		db = whereNullable(db, "files.folder_id", normalizeFolderID(q.FolderID))
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		db = db.Where("LOWER(files.name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	if q.Starred != nil {
		db = db.Where("files.starred = ?", *q.Starred)
	}

	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}

	files := make([]model.File, 0, limit)
	if err := db.Order("files." + col + " " + dir).Order("files.id").
		Offset((page - 1) * limit).Limit(limit).Find(&files).Error; err != nil {
		return nil, err
	}

	return &types.FileListResponse{
		Files: files,
		Pagination: types.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// Update 重命名、移动或收藏. 对象键保持不变.
func (s *FileService) Update(ctx context.Context, id string, req types.UpdateFileRequest) (*model.File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	moved := false

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: file name is required", errs.ErrValidation)
		}

		changes["name"] = name
	}

	if req.FolderID != nil {
		target := normalizeFolderID(req.FolderID)
		if err := ensureFolder(s.db.WithContext(ctx), target); err != nil {
			return nil, err
		}

		changes["folder_id"] = target
		moved = strOrEmpty(target) != strOrEmpty(f.FolderID)
	}

	if req.Starred != nil {
		changes["starred"] = *req.Starred
	}

	if len(changes) == 0 {
		return f, nil
	}

	if err := s.db.WithContext(ctx).Model(f).Updates(changes).Error; err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	topic := queue.TopicFileUpdated
	if moved {
		topic = queue.TopicFileMoved
	}

	s.events.Emit(ctx, topic, queue.FileChangedPayload{Files: []queue.FileRef{fileRef(updated)}})

	return updated, nil
}

// SoftDelete 软删除文件元数据，存储中的对象保留.
func (s *FileService) SoftDelete(ctx context.Context, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Where("id = ?", f.ID).Delete(&model.File{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: file %s", errs.ErrNotFound, id)
	}

	s.events.Emit(ctx, queue.TopicFileDeleted, queue.FileChangedPayload{Files: []queue.FileRef{fileRef(f)}})

	return nil
}

// liveIn 查出 ids 中可见的文件.
func (s *FileService) liveIn(ctx context.Context, ids []string) ([]model.File, error) {
	out := make([]model.File, 0, len(ids))

	for _, batch := range chunk(ids) {
		var part []model.File
		if err := s.live(ctx).Where("files.id IN ?", batch).Find(&part).Error; err != nil {
			return nil, err
		}

		out = append(out, part...)
	}

	return out, nil
}

func idsOf(files []model.File) []string {
	out := make([]string, len(files))
	for i := range files {
		out[i] = files[i].ID
	}

	return out
}

// BulkDelete 批量软删除，忽略不存在或已删除的 id，返回实际删除的数量.
func (s *FileService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	files, err := s.liveIn(ctx, ids)
	if err != nil || len(files) == 0 {
		return 0, err
	}

	var affected int64

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range chunk(idsOf(files)) {
			res := tx.Where("id IN ?", batch).Delete(&model.File{})
			if res.Error != nil {
				return res.Error
			}

			affected += res.RowsAffected
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	refs := make([]queue.FileRef, len(files))
	for i := range files {
		refs[i] = fileRef(&files[i])
	}

	s.events.Emit(ctx, queue.TopicFileDeleted, queue.FileChangedPayload{Files: refs})

	return affected, nil
}

// BulkMove 批量移动到目标文件夹，target 为 nil 表示根目录.
func (s *FileService) BulkMove(ctx context.Context, ids []string, target *string) (int64, error) {
	target = normalizeFolderID(target)

	if err := ensureFolder(s.db.WithContext(ctx), target); err != nil {
		return 0, err
	}

	files, err := s.liveIn(ctx, ids)
	if err != nil || len(files) == 0 {
		return 0, err
	}

	var affected int64

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range chunk(idsOf(files)) {
			res := tx.Model(&model.File{}).Where("id IN ?", batch).Update("folder_id", target)
			if res.Error != nil {
				return res.Error
			}

			affected += res.RowsAffected
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	refs := make([]queue.FileRef, len(files))
	for i := range files {
		files[i].FolderID = target
		refs[i] = fileRef(&files[i])
	}

	s.events.Emit(ctx, queue.TopicFileMoved, queue.FileChangedPayload{Files: refs})

	return affected, nil
}
