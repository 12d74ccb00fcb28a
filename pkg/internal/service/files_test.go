package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/queue"
)

func seedFile(t *testing.T, f *fixture, name string, size int64, folderID *string) *model.File {
	t.Helper()

	file := &model.File{
		Name:      name,
		Size:      size,
		MimeType:  "application/pdf",
		ObjectKey: fmt.Sprintf("%s/%d-%s", strOrEmpty(folderID), size, name),
		FolderID:  folderID,
	}
	require.NoError(t, f.files.CreatePending(context.Background(), file))

	return file
}

func names(files []model.File) []string {
	out := make([]string, len(files))
	for i := range files {
		out[i] = files[i].Name
	}

	return out
}

func TestFileList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs, err := f.folders.Create(ctx, "Docs", nil)
	require.NoError(t, err)

	seedFile(t, f, "Report_2024.pdf", 300, &docs.ID)
	seedFile(t, f, "report-draft.pdf", 100, &docs.ID)
	seedFile(t, f, "budget.xlsx", 200, &docs.ID)
	seedFile(t, f, "readme.md", 50, nil)

	t.Run("no folder filter lists everything", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{SortBy: types.SortByName, SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(4), resp.Pagination.Total)
		assert.Equal(t, []string{"Report_2024.pdf", "budget.xlsx", "readme.md", "report-draft.pdf"}, names(resp.Files))
	})

	t.Run("root only", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{FolderID: ptr(types.RootFolderID)})
		require.NoError(t, err)
		assert.Equal(t, []string{"readme.md"}, names(resp.Files))
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{FolderID: &docs.ID, Search: "REPORT", SortBy: types.SortBySize, SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"report-draft.pdf", "Report_2024.pdf"}, names(resp.Files))
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{Search: "t_2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Report_2024.pdf"}, names(resp.Files))

		resp, err = f.files.List(ctx, types.FileListQuery{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, resp.Files)
	})

	t.Run("size descending", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{SortBy: types.SortBySize})
		require.NoError(t, err)
		assert.Equal(t, []string{"Report_2024.pdf", "budget.xlsx", "report-draft.pdf", "readme.md"}, names(resp.Files))
	})

	t.Run("pagination", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{SortBy: types.SortBySize, SortOrder: "asc", Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, types.Pagination{Page: 2, Limit: 3, Total: 4, TotalPages: 2}, resp.Pagination)
		assert.Equal(t, []string{"Report_2024.pdf"}, names(resp.Files))
	})

	t.Run("defaults", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{Limit: 10000})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Pagination.Page)
		assert.Equal(t, types.MaxPageSize, resp.Pagination.Limit)
	})

	t.Run("starred", func(t *testing.T) {
		resp, err := f.files.List(ctx, types.FileListQuery{Search: "budget"})
		require.NoError(t, err)
		require.Len(t, resp.Files, 1)

		_, err = f.files.Update(ctx, resp.Files[0].ID, types.UpdateFileRequest{Starred: ptr(true)})
		require.NoError(t, err)

		resp, err = f.files.List(ctx, types.FileListQuery{Starred: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, []string{"budget.xlsx"}, names(resp.Files))
	})

	t.Run("deleted folder hides files", func(t *testing.T) {
		_, err := f.folders.SoftDelete(ctx, docs.ID)
		require.NoError(t, err)

		resp, err := f.files.List(ctx, types.FileListQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"readme.md"}, names(resp.Files))

		resp, err = f.files.List(ctx, types.FileListQuery{FolderID: &docs.ID})
		require.NoError(t, err)
		assert.Empty(t, resp.Files)
		assert.Zero(t, resp.Pagination.TotalPages)
	})
}

func TestFileUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.folders.Create(ctx, "A", nil)
	require.NoError(t, err)
	b, err := f.folders.Create(ctx, "B", nil)
	require.NoError(t, err)

	file := seedFile(t, f, "notes.txt", 10, &a.ID)
	key := file.ObjectKey

	t.Run("rename keeps object key", func(t *testing.T) {
		got, err := f.files.Update(ctx, file.ID, types.UpdateFileRequest{Name: ptr("renamed.txt")})
		require.NoError(t, err)
		assert.Equal(t, "renamed.txt", got.Name)
		assert.Equal(t, key, got.ObjectKey)
		assert.Equal(t, queue.TopicFileUpdated, f.events.Topics()[len(f.events.Topics())-1])
	})

	t.Run("move", func(t *testing.T) {
		got, err := f.files.Update(ctx, file.ID, types.UpdateFileRequest{FolderID: &b.ID})
		require.NoError(t, err)
		require.NotNil(t, got.FolderID)
		assert.Equal(t, b.ID, *got.FolderID)
		assert.Equal(t, key, got.ObjectKey)
		assert.Equal(t, queue.TopicFileMoved, f.events.Topics()[len(f.events.Topics())-1])
	})

	t.Run("move to root", func(t *testing.T) {
		got, err := f.files.Update(ctx, file.ID, types.UpdateFileRequest{FolderID: ptr("")})
		require.NoError(t, err)
		assert.Nil(t, got.FolderID)
	})

	t.Run("move to missing folder", func(t *testing.T) {
		_, err := f.files.Update(ctx, file.ID, types.UpdateFileRequest{FolderID: ptr("missing")})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := f.files.Update(ctx, file.ID, types.UpdateFileRequest{Name: ptr("   ")})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("no changes", func(t *testing.T) {
		got, err := f.files.Update(ctx, file.ID, types.UpdateFileRequest{})
		require.NoError(t, err)
		assert.Equal(t, "renamed.txt", got.Name)
	})

	t.Run("object key is immutable", func(t *testing.T) {
		err := f.db.Model(&model.File{ID: file.ID}).Updates(map[string]any{"object_key": "other"}).Error
		assert.ErrorIs(t, err, model.ErrObjectKeyImmutable)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := f.files.Update(ctx, "missing", types.UpdateFileRequest{Name: ptr("x")})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestFileSoftDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file := seedFile(t, f, "a.txt", 1, nil)

	require.NoError(t, f.files.SoftDelete(ctx, file.ID))

	_, err := f.files.Get(ctx, file.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	err = f.files.SoftDelete(ctx, file.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	var row model.File
	require.NoError(t, f.db.Unscoped().Where("id = ?", file.ID).First(&row).Error)
	assert.True(t, row.DeletedAt.Valid)
	assert.Contains(t, f.events.Topics(), queue.TopicFileDeleted)
}

func TestFileBulk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	target, err := f.folders.Create(ctx, "Target", nil)
	require.NoError(t, err)

	x := seedFile(t, f, "x.txt", 1, nil)
	y := seedFile(t, f, "y.txt", 2, nil)
	z := seedFile(t, f, "z.txt", 3, nil)

	n, err := f.files.BulkMove(ctx, []string{x.ID, y.ID, "missing"}, &target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	inTarget, err := f.files.ListByFolder(ctx, &target.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.txt", "y.txt"}, names(inTarget))

	_, err = f.files.BulkMove(ctx, []string{z.ID}, ptr("missing"))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	n, err = f.files.BulkMove(ctx, []string{x.ID}, ptr(types.RootFolderID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.files.BulkDelete(ctx, []string{x.ID, z.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.files.BulkDelete(ctx, []string{x.ID, z.ID})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.files.Get(ctx, y.ID)
	assert.NoError(t, err)

	assert.Contains(t, f.events.Topics(), queue.TopicFileMoved)
	assert.Contains(t, f.events.Topics(), queue.TopicFileDeleted)
}

func TestFileCreatedAtOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	old := seedFile(t, f, "old.txt", 1, nil)
	require.NoError(t, f.db.Model(&model.File{}).Where("id = ?", old.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	seedFile(t, f, "new.txt", 1, nil)

	resp, err := f.files.List(ctx, types.FileListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"new.txt", "old.txt"}, names(resp.Files))
}
