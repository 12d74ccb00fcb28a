package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/internal/vault"
	"github.com/yeisme/docvault/pkg/queue"
)

func TestStorageConfigure_LocksOnSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.storage.Configure(ctx, "aws-s3", validCreds())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.Locked)
	assert.Equal(t, provider.TypeS3, resp.Provider)
	assert.Equal(t, f.clock, resp.ConfiguredAt)
	require.NotNil(t, resp.TestResult)
	assert.True(t, resp.TestResult.Success)

	var cfg model.StorageConfig
	require.NoError(t, f.db.First(&cfg).Error)
	assert.True(t, cfg.IsLocked)
	assert.Equal(t, "s3", cfg.Provider)
	assert.NotContains(t, cfg.Ciphertext, "secret")
	require.NotNil(t, cfg.LastTestedAt)

	var lock model.ConfigLock
	require.NoError(t, f.db.Where("configuration_id = ?", cfg.ID).First(&lock).Error)
	assert.Equal(t, SystemActor, lock.LockedBy)
	assert.Equal(t, InitialLockReason, lock.Reason)
	assert.False(t, lock.CanOverride)

	assert.Contains(t, f.events.Topics(), queue.TopicStorageConfigured)
	assert.Contains(t, f.events.Topics(), queue.TopicStorageTested)
}

func TestStorageConfigure_RejectedWhileLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.storage.Configure(ctx, "s3", validCreds())
	require.NoError(t, err)

	builds := f.registry.Builds()

	other := validCreds()
	other.Bucket = "other"

	_, err = f.storage.Configure(ctx, "minio", other)
	assert.ErrorIs(t, err, errs.ErrLocked)
	assert.Equal(t, 423, errs.HTTPStatus(err))
	assert.Equal(t, builds, f.registry.Builds(), "no connection test while locked")

	st, err := f.storage.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "docs", st.BucketName)
}

func TestStorageConfigure_UnlockThenReconfigure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.storage.Configure(ctx, "s3", validCreds())
	require.NoError(t, err)

	require.NoError(t, f.storage.RemoveLock(ctx, "admin"))
	// 幂等
	require.NoError(t, f.storage.RemoveLock(ctx, "admin"))

	var n int64
	require.NoError(t, f.db.Model(&model.ConfigLock{}).Count(&n).Error)
	assert.Zero(t, n)

	st, err := f.storage.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Configured)
	assert.False(t, st.Locked)
	assert.Empty(t, st.LockedBy)

	creds := validCreds()
	creds.Bucket = "media"
	creds.Endpoint = "https://acct.r2.cloudflarestorage.com"

	resp, err := f.storage.Configure(ctx, "r2", creds)
	require.NoError(t, err)
	assert.True(t, resp.Locked)

	var cfgs []model.StorageConfig
	require.NoError(t, f.db.Find(&cfgs).Error)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "r2", cfgs[0].Provider)

	require.NoError(t, f.db.Model(&model.ConfigLock{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	st, err = f.storage.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.Equal(t, "media", st.BucketName)
	assert.Equal(t, SystemActor, st.LockedBy)

	assert.Contains(t, f.events.Topics(), queue.TopicStorageUnlocked)
}

func TestStorageConfigure_FailedTestPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	creds := validCreds()
	creds.SecretAccessKey = "bad"

	_, err := f.storage.Configure(ctx, "s3", creds)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrProvider)

	var cte *ConnectionTestError
	require.ErrorAs(t, err, &cte)
	assert.False(t, cte.Result.Success)
	assert.Equal(t, "AccessDenied", cte.Result.Error)
	assert.Contains(t, err.Error(), "connection test failed")

	var n int64
	require.NoError(t, f.db.Model(&model.StorageConfig{}).Count(&n).Error)
	assert.Zero(t, n)

	st, err := f.storage.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Configured)
}

func TestStorageConfigure_UnknownProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.storage.Configure(context.Background(), "gcs", validCreds())
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Zero(t, f.registry.Builds())
}

func TestStoragePersist_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.storage.Configure(ctx, "s3", validCreds())
	require.NoError(t, err)

	v, err := vault.New(testKey)
	require.NoError(t, err)
	enc, err := v.Encrypt(validCreds())
	require.NoError(t, err)

	t.Run("insert loses to existing row", func(t *testing.T) {
		_, err := f.storage.persist(f.db, nil, provider.TypeMinIO, enc, f.clock)
		assert.ErrorIs(t, err, errs.ErrLocked)
	})

	t.Run("update loses to concurrent lock", func(t *testing.T) {
		var cfg model.StorageConfig
		require.NoError(t, f.db.First(&cfg).Error)

		// 读取时未锁定，写入前已被其他请求锁定
		stale := cfg
		stale.IsLocked = false

		_, err := f.storage.persist(f.db, &stale, provider.TypeMinIO, enc, f.clock)
		assert.ErrorIs(t, err, errs.ErrLocked)

		var after model.StorageConfig
		require.NoError(t, f.db.First(&after).Error)
		assert.Equal(t, "s3", after.Provider)
	})
}

func TestStorageTest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("unconfigured", func(t *testing.T) {
		_, err := f.storage.Test(ctx, nil)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("ad hoc credentials", func(t *testing.T) {
		creds := validCreds()
		res, err := f.storage.Test(ctx, &types.StorageTestRequest{Provider: "minio", Credentials: &creds})
		require.NoError(t, err)
		assert.True(t, res.Success)

		bad := validCreds()
		bad.SecretAccessKey = "bad"
		res, err = f.storage.Test(ctx, &types.StorageTestRequest{Provider: "minio", Credentials: &bad})
		require.NoError(t, err)
		assert.False(t, res.Success)

		var n int64
		require.NoError(t, f.db.Model(&model.StorageConfig{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("credentials without provider", func(t *testing.T) {
		creds := validCreds()
		_, err := f.storage.Test(ctx, &types.StorageTestRequest{Credentials: &creds})
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("stored configuration", func(t *testing.T) {
		_, err := f.storage.Configure(ctx, "s3", validCreds())
		require.NoError(t, err)

		// 锁定状态下仍可测试
		res, err := f.storage.Test(ctx, &types.StorageTestRequest{})
		require.NoError(t, err)
		assert.True(t, res.Success)

		st, err := f.storage.Status(ctx)
		require.NoError(t, err)
		require.NotNil(t, st.LastTested)
		assert.True(t, st.LastTested.Equal(f.clock))
	})
}

func TestStorageStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	st, err := f.storage.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StorageStatus{}, *st)

	_, err = f.storage.Configure(ctx, "s3", validCreds())
	require.NoError(t, err)

	// 写操作使缓存失效
	st, err = f.storage.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Configured)
	assert.True(t, st.Locked)
	assert.Equal(t, provider.TypeS3, st.Provider)
	assert.Equal(t, "docs", st.BucketName)
	assert.Equal(t, "eu-west-1", st.Region)
	require.NotNil(t, st.ConfiguredAt)
	assert.True(t, st.ConfiguredAt.Equal(f.clock))
	require.NotNil(t, st.LockedAt)
	assert.Equal(t, SystemActor, st.LockedBy)

	t.Run("served from cache", func(t *testing.T) {
		builds := f.registry.Builds()

		_, err := f.storage.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, builds, f.registry.Builds())
	})
}

func TestStorageStatusNotPinnedByConcurrentUnlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.storage.Configure(ctx, "s3", validCreds())
	require.NoError(t, err)

	// 状态读出后、回填缓存前解锁
	unlocked := false
	f.storage.statusLoaded = func() {
		if !unlocked {
			unlocked = true
			require.NoError(t, f.storage.RemoveLock(ctx, "ops"))
		}
	}

	st, err := f.storage.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Locked, "snapshot taken before the unlock")
	require.True(t, unlocked)

	st, err = f.storage.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Locked)
}

func TestStorageTamperedCiphertext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.storage.Configure(ctx, "s3", validCreds())
	require.NoError(t, err)

	var cfg model.StorageConfig
	require.NoError(t, f.db.First(&cfg).Error)

	flipped := []byte(cfg.Ciphertext)
	if flipped[0] == '0' {
		flipped[0] = '1'
	} else {
		flipped[0] = '0'
	}

	require.NoError(t, f.db.Model(&cfg).UpdateColumn("ciphertext", string(flipped)).Error)

	_, _, err = f.storage.ActiveProvider(ctx)
	assert.ErrorIs(t, err, errs.ErrDecryption)
	assert.Equal(t, errs.InternalMessage, errs.PublicMessage(err))

	_, err = f.presign.DownloadURL(ctx, "any", 0)
	assert.Error(t, err)
}

func TestStorageRemoveLock_Unconfigured(t *testing.T) {
	f := newFixture(t)

	err := f.storage.RemoveLock(context.Background(), "admin")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
