package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/events"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/internal/vault"
	nlog "github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/queue"
	"github.com/yeisme/docvault/pkg/tracing"
)

const (
	// SystemActor 自动加锁时记录的操作者.
	SystemActor = "system"
	// InitialLockReason 配置成功后自动加锁的原因.
	InitialLockReason = "Initial configuration lock to prevent accidental provider changes"

	msgConfigured = "Storage configured successfully"
)

// ConnectionTestError 连接测试未通过，携带完整的诊断结果.
type ConnectionTestError struct {
	Result *provider.TestResult
}

func (e *ConnectionTestError) Error() string {
	if e.Result.Error != "" {
		return "connection test failed: " + e.Result.Message + ": " + e.Result.Error
	}

	return "connection test failed: " + e.Result.Message
}

// Unwrap 归类为 errs.ErrProvider.
func (e *ConnectionTestError) Unwrap() error { return errs.ErrProvider }

// StorageService 管理唯一的存储配置及其锁.
//
// 状态：未配置 -> 已配置未锁定 -> 已配置已锁定. 配置成功即加锁；解锁后可重新配置并再次加锁；
// 不存在从已锁定回到未配置的转换.
type StorageService struct {
	db       *gorm.DB
	vault    *vault.Vault
	registry *provider.Registry
	cache    *cache.Cache
	events   events.Emitter
	now      func() time.Time

	// statusGen 每次失效递增；回填缓存后若已变化则再次删除，避免旧状态覆盖失效结果
	statusGen atomic.Uint64
	// statusLoaded 测试钩子，在状态读出之后、回填缓存之前调用
	statusLoaded func()
}

// statusCacheTTL 状态缓存上限，多实例共享 Redis 时限制旧值的存活时间.
const statusCacheTTL = 30 * time.Second

// NewStorageService 创建 StorageService. c 为 nil 时不缓存状态.
func NewStorageService(db *gorm.DB, v *vault.Vault, registry *provider.Registry, c *cache.Cache, emitter events.Emitter) *StorageService {
	if emitter == nil {
		emitter = events.Nop{}
	}

	return &StorageService{
		db:       db,
		vault:    v,
		registry: registry,
		cache:    c,
		events:   emitter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// loadConfig 读取唯一的配置行，未配置时返回 nil, nil.
func loadConfig(db *gorm.DB) (*model.StorageConfig, error) {
	var cfg model.StorageConfig

	err := db.Where("singleton = ?", model.StorageConfigSingleton).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (s *StorageService) requireConfig(ctx context.Context) (*model.StorageConfig, error) {
	cfg, err := loadConfig(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return nil, fmt.Errorf("%w: no storage configuration found", errs.ErrNotFound)
	}

	return cfg, nil
}

func (s *StorageService) decrypt(cfg *model.StorageConfig) (provider.Credentials, error) {
	var creds provider.Credentials

	err := s.vault.Decrypt(&vault.EncryptedCredentials{
		Ciphertext: cfg.Ciphertext,
		IV:         cfg.IV,
		AuthTag:    cfg.AuthTag,
	}, &creds)

	return creds, err
}

// runTest 执行连接诊断并记录指标.
func (s *StorageService) runTest(ctx context.Context, p provider.Provider) *provider.TestResult {
	ctx, span := tracing.StartSpan(ctx, "storage.test_connection")
	defer span.End()

	res := p.TestConnection(ctx)
	metrics.ObserveConnectionTest(string(p.Type()), res.Success, time.Duration(res.ResponseTime)*time.Millisecond)

	nlog.Ctx(ctx).Info().Str("provider", string(p.Type())).Str("bucket", p.Bucket().Name).
		Bool("success", res.Success).Int64("elapsed_ms", res.ResponseTime).Msg(res.Message)

	success := res.Success
	s.events.Emit(ctx, queue.TopicStorageTested, queue.StoragePayload{
		Provider: string(p.Type()),
		Bucket:   p.Bucket().Name,
		Success:  &success,
	})

	return res
}

// Configure 校验连接后加密保存凭据并加锁.
//
// 已锁定时在任何测试与加密之前返回 ErrLocked. 写入使用条件更新（is_locked=false）
// 或冲突即放弃的插入，影响行数为 0 说明并发请求已抢先配置并加锁，同样返回 ErrLocked.
func (s *StorageService) Configure(ctx context.Context, providerType string, creds provider.Credentials) (resp *types.ConfigureResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "storage.configure")
	defer func() { tracing.EndSpan(span, err) }()

	t, err := provider.ParseType(providerType)
	if err != nil {
		return nil, err
	}

	existing, err := loadConfig(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.IsLocked {
		return nil, errs.ErrLocked
	}

	p, err := s.registry.Build(t, creds)
	if err != nil {
		return nil, err
	}

	result := s.runTest(ctx, p)
	if !result.Success {
		return nil, &ConnectionTestError{Result: result}
	}

	enc, err := s.vault.Encrypt(creds)
	if err != nil {
		return nil, err
	}

	now := s.now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		configID, err := s.persist(tx, existing, t, enc, now)
		if err != nil {
			return err
		}

		if err := tx.Where("configuration_id = ?", configID).Delete(&model.ConfigLock{}).Error; err != nil {
			return err
		}

		return tx.Create(&model.ConfigLock{
			ID:              model.NewULID(now),
			ConfigurationID: configID,
			LockedAt:        now,
			LockedBy:        SystemActor,
			Reason:          InitialLockReason,
			CanOverride:     false,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	nlog.Ctx(ctx).Info().Str("provider", string(t)).Str("bucket", creds.Bucket).Msg("storage configured and locked")

	s.events.Emit(ctx, queue.TopicStorageConfigured, queue.StoragePayload{
		Provider: string(t),
		Bucket:   creds.Bucket,
		Locked:   true,
		Actor:    SystemActor,
	})

	return &types.ConfigureResponse{
		Success:      true,
		Message:      msgConfigured,
		Provider:     t,
		Locked:       true,
		ConfiguredAt: now,
		TestResult:   result,
	}, nil
}

// persist 以比较并交换的方式写入配置，返回配置 ID.
func (s *StorageService) persist(tx *gorm.DB, existing *model.StorageConfig, t provider.Type, enc *vault.EncryptedCredentials, now time.Time) (string, error) {
	if existing == nil {
		cfg := &model.StorageConfig{
			ID:           model.NewULID(now),
			Singleton:    model.StorageConfigSingleton,
			Provider:     string(t),
			Ciphertext:   enc.Ciphertext,
			IV:           enc.IV,
			AuthTag:      enc.AuthTag,
			IsLocked:     true,
			ConfiguredAt: now,
			LastTestedAt: &now,
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "singleton"}},
			DoNothing: true,
		}).Create(cfg)
		if res.Error != nil {
			return "", res.Error
		}

		if res.RowsAffected == 0 {
			return "", errs.ErrLocked
		}

		return cfg.ID, nil
	}

	res := tx.Model(&model.StorageConfig{}).
		Where("id = ? AND is_locked = ?", existing.ID, false).
		Updates(map[string]any{
			"provider":       string(t),
			"ciphertext":     enc.Ciphertext,
			"iv":             enc.IV,
			"auth_tag":       enc.AuthTag,
			"is_locked":      true,
			"configured_at":  now,
			"last_tested_at": now,
		})
	if res.Error != nil {
		return "", res.Error
	}

	if res.RowsAffected == 0 {
		return "", errs.ErrLocked
	}

	return existing.ID, nil
}

// Test 测试连接. 请求携带凭据时直接测试，不落库也不检查锁；否则测试已保存的配置并记录测试时间.
// 测试未通过不是错误，调用方根据 TestResult.Success 决定响应.
func (s *StorageService) Test(ctx context.Context, req *types.StorageTestRequest) (*provider.TestResult, error) {
	if req != nil && req.Credentials != nil {
		if req.Provider == "" {
			return nil, fmt.Errorf("%w: provider is required when credentials are supplied", errs.ErrValidation)
		}

		t, err := provider.ParseType(req.Provider)
		if err != nil {
			return nil, err
		}

		p, err := s.registry.Build(t, *req.Credentials)
		if err != nil {
			return nil, err
		}

		return s.runTest(ctx, p), nil
	}

	p, cfg, err := s.ActiveProvider(ctx)
	if err != nil {
		return nil, err
	}

	result := s.runTest(ctx, p)

	if err := s.db.WithContext(ctx).Model(cfg).UpdateColumn("last_tested_at", s.now()).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	return result, nil
}

// Status 返回配置状态，结果缓存在 KV 中，任何写操作都会使其失效.
func (s *StorageService) Status(ctx context.Context) (*types.StorageStatus, error) {
	if s.cache == nil {
		return s.loadStatus(ctx)
	}

	if st, err := cache.Get[types.StorageStatus](ctx, s.cache, cache.KeyStorageStatus); err == nil {
		return &st, nil
	}

	gen := s.statusGen.Load()

	st, err := s.loadStatus(ctx)
	if err != nil {
		return nil, err
	}

	if s.statusLoaded != nil {
		s.statusLoaded()
	}

	if err := cache.Set(ctx, s.cache, cache.KeyStorageStatus, *st, statusCacheTTL); err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Msg("cache storage status failed")
		return st, nil
	}

	// 读出期间发生过写操作，刚写入的值可能已过期
	if s.statusGen.Load() != gen {
		s.dropStatus(ctx)
	}

	return st, nil
}

func (s *StorageService) loadStatus(ctx context.Context) (*types.StorageStatus, error) {
	db := s.db.WithContext(ctx)

	cfg, err := loadConfig(db)
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return &types.StorageStatus{Configured: false, Locked: false}, nil
	}

	creds, err := s.decrypt(cfg)
	if err != nil {
		return nil, err
	}

	configuredAt := cfg.ConfiguredAt
	st := &types.StorageStatus{
		Configured:   true,
		Locked:       cfg.IsLocked,
		Provider:     provider.Type(cfg.Provider),
		BucketName:   creds.Bucket,
		Region:       creds.Region,
		LastTested:   cfg.LastTestedAt,
		ConfiguredAt: &configuredAt,
	}

	// 生效区域以提供商为准（R2 恒为 auto，S3/MinIO 缺省 us-east-1）
	if p, err := s.registry.Build(st.Provider, creds); err == nil {
		st.Region = p.Bucket().Region
	}

	var lock model.ConfigLock

	err = db.Where("configuration_id = ?", cfg.ID).First(&lock).Error
	switch {
	case err == nil:
		lockedAt := lock.LockedAt
		st.LockedBy = lock.LockedBy
		st.LockedAt = &lockedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return st, nil
}

// RemoveLock 删除锁并把配置标记为未锁定，配置本身保留. 已解锁时幂等.
func (s *StorageService) RemoveLock(ctx context.Context, by string) error {
	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("configuration_id = ?", cfg.ID).Delete(&model.ConfigLock{}).Error; err != nil {
			return err
		}

		return tx.Model(&model.StorageConfig{}).Where("id = ?", cfg.ID).Update("is_locked", false).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)

	nlog.Ctx(ctx).Warn().Str("by", by).Str("provider", cfg.Provider).Msg("storage configuration unlocked")

	s.events.Emit(ctx, queue.TopicStorageUnlocked, queue.StoragePayload{
		Provider: cfg.Provider,
		Locked:   false,
		Actor:    by,
	})

	return nil
}

// ActiveProvider 读取配置、解密凭据并构造提供商实例.
func (s *StorageService) ActiveProvider(ctx context.Context) (provider.Provider, *model.StorageConfig, error) {
	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	creds, err := s.decrypt(cfg)
	if err != nil {
		nlog.Ctx(ctx).Error().Err(err).Str("config_id", cfg.ID).Msg("stored credentials could not be decrypted")

		return nil, nil, err
	}

	p, err := s.registry.Build(provider.Type(cfg.Provider), creds)
	if err != nil {
		return nil, nil, err
	}

	return p, cfg, nil
}

// invalidate 使状态缓存失效，失败只记录日志.
func (s *StorageService) invalidate(ctx context.Context) {
	s.statusGen.Add(1)
	s.dropStatus(ctx)
}

func (s *StorageService) dropStatus(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, cache.KeyStorageStatus); err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Msg("invalidate storage status cache failed")
	}
}
