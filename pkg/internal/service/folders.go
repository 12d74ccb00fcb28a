package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/events"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/queue"
	"github.com/yeisme/docvault/pkg/tracing"
)

// contentsConcurrency 计算子文件夹条目数的并发上限.
const contentsConcurrency = 8

// FolderService 维护文件夹树：物化路径、同级重名校验、级联软删除与面包屑.
type FolderService struct {
	db     *gorm.DB
	files  *FileService
	events events.Emitter
}

// NewFolderService 创建 FolderService.
func NewFolderService(db *gorm.DB, files *FileService, emitter events.Emitter) *FolderService {
	if emitter == nil {
		emitter = events.Nop{}
	}

	return &FolderService{db: db, files: files, events: emitter}
}

// pathUpdate 重命名时预先计算好的路径变更.
type pathUpdate struct {
	id   string
	path string
}

func folderRef(f *model.Folder) queue.FolderRef {
	return queue.FolderRef{ID: f.ID, Name: f.Name, ParentID: f.ParentID, Path: f.Path}
}

func cleanFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: folder name is required", errs.ErrValidation)
	}

	if strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: folder name must not contain '/'", errs.ErrValidation)
	}

	return name, nil
}

// getFolder 读取未删除的文件夹.
func getFolder(db *gorm.DB, id string) (*model.Folder, error) {
	var f model.Folder
	if err := db.Where("id = ?", id).First(&f).Error; err != nil {
		return nil, wrapNotFound(err, "folder", id)
	}

	return &f, nil
}

// siblingExists 判断 parentID 下是否已有同名的未删除文件夹，excludeID 用于重命名时排除自身.
func siblingExists(db *gorm.DB, parentID *string, name, excludeID string) (bool, error) {
	q := whereNullable(db.Model(&model.Folder{}), "parent_id", parentID).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}

// Get 读取未删除的文件夹.
func (s *FolderService) Get(ctx context.Context, id string) (*model.Folder, error) {
	return getFolder(s.db.WithContext(ctx), id)
}

// Create 在 parentID 下创建文件夹，parentID 为 nil 表示根目录.
func (s *FolderService) Create(ctx context.Context, name string, parentID *string) (*model.Folder, error) {
	name, err := cleanFolderName(name)
	if err != nil {
		return nil, err
	}

	parentID = normalizeFolderID(parentID)
	folder := &model.Folder{Name: name, ParentID: parentID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parentPath := ""

		if parentID != nil {
			parent, err := getFolder(tx, *parentID)
			if err != nil {
				return fmt.Errorf("parent: %w", err)
			}

			parentPath = parent.Path
		}

		exists, err := siblingExists(tx, parentID, name, "")
		if err != nil {
			return err
		}

		if exists {
			return fmt.Errorf("%w: folder %q already exists in this location", errs.ErrConflict, name)
		}

		folder.Path = model.ChildPath(parentPath, name)

		return tx.Create(folder).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, queue.TopicFolderCreated, queue.FolderCreatedPayload{Folder: folderRef(folder)})

	return folder, nil
}

// Rename 重命名文件夹并重算自身与所有未删除后代的路径.
//
// 先自顶向下计算出全部 (id, 新路径)，再在同一事务中写入；计算只依赖名称与父指针，
// 因此重复执行（包括同名重命名）会收敛到同一结果，也能修复之前遗留的过期路径.
func (s *FolderService) Rename(ctx context.Context, id, newName string) (folder *model.Folder, err error) {
	ctx, span := tracing.StartSpan(ctx, "folders.rename")
	defer func() { tracing.EndSpan(span, err) }()

	newName, err = cleanFolderName(newName)
	if err != nil {
		return nil, err
	}

	var (
		oldPath string
		updates []pathUpdate
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := getFolder(tx, id)
		if err != nil {
			return err
		}

		oldPath = f.Path

		if f.Name != newName {
			exists, err := siblingExists(tx, f.ParentID, newName, f.ID)
			if err != nil {
				return err
			}

			if exists {
				return fmt.Errorf("%w: folder %q already exists in this location", errs.ErrConflict, newName)
			}
		}

		parentPath, err := s.parentPath(tx, f.ParentID)
		if err != nil {
			return err
		}

		newPath := model.ChildPath(parentPath, newName)

		updates, err = planSubtreePaths(tx, f.ID, newPath)
		if err != nil {
			return err
		}

		if err := tx.Model(f).Updates(map[string]any{"name": newName, "path": newPath}).Error; err != nil {
			return err
		}

		f.Name, f.Path = newName, newPath

		for _, u := range updates {
			if err := tx.Model(&model.Folder{}).Where("id = ?", u.id).Update("path", u.path).Error; err != nil {
				return err
			}
		}

		folder = f

		return nil
	})
	if err != nil {
		return nil, err
	}

	nlog.Ctx(ctx).Debug().Str("folder_id", id).Str("old_path", oldPath).Str("new_path", folder.Path).
		Int("descendants", len(updates)).Msg("folder renamed")

	s.events.Emit(ctx, queue.TopicFolderRenamed, queue.FolderRenamedPayload{
		Folder:          folderRef(folder),
		OldPath:         oldPath,
		DescendantsMove: len(updates),
	})

	return folder, nil
}

// parentPath 返回父文件夹的路径，根目录为空串.
func (s *FolderService) parentPath(tx *gorm.DB, parentID *string) (string, error) {
	if parentID == nil {
		return "", nil
	}

	parent, err := getFolder(tx, *parentID)
	if err != nil {
		return "", fmt.Errorf("parent: %w", err)
	}

	return parent.Path, nil
}

// planSubtreePaths 按层遍历 rootID 的未删除后代，返回每个后代的新路径（父在前）.
// 遇到重复访问说明父链成环，返回 ErrCircularReference.
func planSubtreePaths(tx *gorm.DB, rootID, rootPath string) ([]pathUpdate, error) {
	visited := map[string]bool{rootID: true}
	paths := map[string]string{rootID: rootPath}
	frontier := []string{rootID}
	out := make([]pathUpdate, 0, DefaultSliceCapacity)

	for len(frontier) > 0 {
		var next []string

		for _, ids := range chunk(frontier) {
			var children []model.Folder
			if err := tx.Select("id", "name", "parent_id").Where("parent_id IN ?", ids).
				Order("name").Find(&children).Error; err != nil {
				return nil, err
			}

			for _, c := range children {
				if visited[c.ID] {
					return nil, fmt.Errorf("%w: folder %s reached twice under %s", errs.ErrCircularReference, c.ID, rootID)
				}

				visited[c.ID] = true
				p := model.ChildPath(paths[*c.ParentID], c.Name)
				paths[c.ID] = p
				out = append(out, pathUpdate{id: c.ID, path: p})
				next = append(next, c.ID)
			}
		}

		frontier = next
	}

	return out, nil
}

// collectDescendants 深度优先收集未删除后代 id，已访问的节点跳过.
func collectDescendants(tx *gorm.DB, rootID string) ([]string, error) {
	visited := map[string]bool{rootID: true}
	stack := []string{rootID}
	out := make([]string, 0, DefaultSliceCapacity)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var ids []string
		if err := tx.Model(&model.Folder{}).Where("parent_id = ?", cur).Pluck("id", &ids).Error; err != nil {
			return nil, err
		}

		for _, id := range ids {
			if visited[id] {
				continue
			}

			visited[id] = true
			out = append(out, id)
			stack = append(stack, id)
		}
	}

	return out, nil
}

// SoftDelete 软删除文件夹及其全部后代. 文件夹不存在或已删除时返回 false.
//
// 只标记 deleted_at 仍为空的行，所以对部分完成的删除重复执行是安全的.
// 文件记录不逐条标记：父文件夹被删除后文件自动不可见. 存储中的对象不会被删除.
func (s *FolderService) SoftDelete(ctx context.Context, id string) (deleted bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "folders.soft_delete")
	defer func() { tracing.EndSpan(span, err) }()

	var descendants []string

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getFolder(tx, id); err != nil {
			return err
		}

		descendants, err = collectDescendants(tx, id)
		if err != nil {
			return err
		}

		for _, ids := range chunk(append([]string{id}, descendants...)) {
			if err := tx.Where("id IN ?", ids).Delete(&model.Folder{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	nlog.Ctx(ctx).Info().Str("folder_id", id).Int("descendants", len(descendants)).Msg("folder deleted")

	s.events.Emit(ctx, queue.TopicFolderDeleted, queue.FolderDeletedPayload{FolderID: id, DescendantIDs: descendants})

	return true, nil
}

// Breadcrumb 返回从根到 id 的祖先链（含自身）. id 为空或 "root" 时返回空列表.
// 向上遍历遇到已删除或缺失的祖先时停止；重复访问同一节点返回 ErrCircularReference.
func (s *FolderService) Breadcrumb(ctx context.Context, id string) ([]types.BreadcrumbItem, error) {
	if normalizeFolderID(&id) == nil {
		return []types.BreadcrumbItem{}, nil
	}

	db := s.db.WithContext(ctx)

	cur, err := getFolder(db, id)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{cur.ID: true}
	chain := []types.BreadcrumbItem{{ID: cur.ID, Name: cur.Name, Path: cur.Path}}

	for cur.ParentID != nil {
		pid := *cur.ParentID
		if visited[pid] {
			return nil, fmt.Errorf("%w: folder %s revisited while walking up from %s", errs.ErrCircularReference, pid, id)
		}

		visited[pid] = true

		parent, err := getFolder(db, pid)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				break
			}

			return nil, err
		}

		chain = append(chain, types.BreadcrumbItem{ID: parent.ID, Name: parent.Name, Path: parent.Path})
		cur = parent
	}

	// 反转为根在前
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain, nil
}

// ItemCount 直接子文件夹数 + 直接文件数（不递归）.
func (s *FolderService) ItemCount(ctx context.Context, id string) (int64, error) {
	var folders int64
	if err := s.db.WithContext(ctx).Model(&model.Folder{}).Where("parent_id = ?", id).Count(&folders).Error; err != nil {
		return 0, err
	}

	files, err := s.files.CountInFolder(ctx, id)
	if err != nil {
		return 0, err
	}

	return folders + files, nil
}

// ListChildren 列出 parentID 下未删除的直接子文件夹，按名称排序.
func (s *FolderService) ListChildren(ctx context.Context, parentID *string) ([]model.Folder, error) {
	parentID = normalizeFolderID(parentID)

	var out []model.Folder
	if err := whereNullable(s.db.WithContext(ctx), "parent_id", parentID).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Contents 返回文件夹自身、直接子文件夹（带条目数）、直接文件与面包屑.
// id 为 "root" 时返回虚拟根目录，Folder 为 nil.
func (s *FolderService) Contents(ctx context.Context, id string) (*types.FolderContents, error) {
	folderID := normalizeFolderID(&id)
	out := &types.FolderContents{Breadcrumb: []types.BreadcrumbItem{}}

	if folderID != nil {
		f, err := s.Get(ctx, *folderID)
		if err != nil {
			return nil, err
		}

		out.Folder = f
	}

	children, err := s.ListChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}

	out.Subfolders = make([]types.FolderSummary, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(contentsConcurrency)

	for i := range children {
		g.Go(func() error {
			n, err := s.ItemCount(gctx, children[i].ID)
			if err != nil {
				return err
			}

			out.Subfolders[i] = types.NewFolderSummary(&children[i], n)

			return nil
		})
	}

	g.Go(func() error {
		files, err := s.files.ListByFolder(gctx, folderID)
		out.Files = files

		return err
	})

	if folderID != nil {
		g.Go(func() error {
			crumbs, err := s.Breadcrumb(gctx, *folderID)
			out.Breadcrumb = crumbs

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// SetStarred 设置收藏状态.
func (s *FolderService) SetStarred(ctx context.Context, id string, starred bool) (*model.Folder, error) {
	db := s.db.WithContext(ctx)

	f, err := getFolder(db, id)
	if err != nil {
		return nil, err
	}

	if err := db.Model(f).Update("starred", starred).Error; err != nil {
		return nil, err
	}

	f.Starred = starred

	return f, nil
}

// RepairPaths 从根开始按父链重算所有未删除文件夹的路径，返回被修正的数量.
// 从根不可达的文件夹（父已删除或成环）保持原样并记录日志.
func (s *FolderService) RepairPaths(ctx context.Context) (fixed int, err error) {
	ctx, span := tracing.StartSpan(ctx, "folders.repair_paths")
	defer func() { tracing.EndSpan(span, err) }()

	logger := nlog.Ctx(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var all []model.Folder
		if err := tx.Select("id", "name", "parent_id", "path").Find(&all).Error; err != nil {
			return err
		}

		children := make(map[string][]*model.Folder, len(all))
		roots := make([]*model.Folder, 0, DefaultSliceCapacity)

		for i := range all {
			f := &all[i]
			if f.ParentID == nil {
				roots = append(roots, f)
			} else {
				children[*f.ParentID] = append(children[*f.ParentID], f)
			}
		}

		want := make(map[string]string, len(all))
		for _, r := range roots {
			want[r.ID] = model.ChildPath("", r.Name)
		}

		reached := 0
		pending := append(make([]*model.Folder, 0, len(all)), roots...)

		for len(pending) > 0 {
			f := pending[0]
			pending = pending[1:]
			reached++

			if f.Path != want[f.ID] {
				if err := tx.Model(&model.Folder{}).Where("id = ?", f.ID).Update("path", want[f.ID]).Error; err != nil {
					return err
				}

				fixed++
			}

			for _, c := range children[f.ID] {
				want[c.ID] = model.ChildPath(want[f.ID], c.Name)
				pending = append(pending, c)
			}
		}

		if unreachable := len(all) - reached; unreachable > 0 {
			logger.Warn().Int("count", unreachable).Msg("folders unreachable from root left untouched")
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info().Int("fixed", fixed).Msg("folder paths repaired")

	return fixed, nil
}
