package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/internal/vault"
	"github.com/yeisme/docvault/pkg/scheduler"
)

func setup(t *testing.T) (*gorm.DB, *service.StorageService, *service.FolderService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:jobs_"+t.Name()+"?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(context.Background(), db))

	v, err := vault.New("jobs-test-passphrase")
	require.NoError(t, err)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	files := service.NewFileService(db, nil)
	folders := service.NewFolderService(db, files, nil)
	storage := service.NewStorageService(db, v, provider.NewRegistry(), cache.NewCache(store, "jobs:", time.Minute), nil)

	return db, storage, folders
}

func TestRegister(t *testing.T) {
	_, storage, folders := setup(t)

	sched, err := scheduler.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	require.NoError(t, Register(sched, configs.SchedulerConfig{HealthCheckCron: "*/30 * * * *"}, storage, folders))

	infos := sched.JobInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, JobStorageHealthCheck, infos[0].Name)

	require.NoError(t, Register(sched, configs.SchedulerConfig{RepairPathsCron: "0 3 * * *"}, storage, folders))
	assert.Len(t, sched.JobInfos(), 2)

	// 同名任务重复注册
	assert.Error(t, Register(sched, configs.SchedulerConfig{HealthCheckCron: "0 * * * *"}, storage, folders))

	assert.Error(t, Register(nil, configs.SchedulerConfig{}, storage, folders))
}

func TestStorageHealthCheckSkipsWhenUnconfigured(t *testing.T) {
	_, storage, _ := setup(t)

	assert.NoError(t, StorageHealthCheck(storage)(context.Background()))
}

func TestRepairPathsJob(t *testing.T) {
	db, _, folders := setup(t)
	ctx := context.Background()

	parent, err := folders.Create(ctx, "Papers", nil)
	require.NoError(t, err)

	child, err := folders.Create(ctx, "2024", &parent.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.Folder{}).Where("id = ?", child.ID).Update("path", "/Stale/2024").Error)

	require.NoError(t, RepairPaths(folders)(ctx))

	got, err := folders.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "/Papers/2024", got.Path)
}
