package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/internal/model"
	"github.com/yeisme/docvault/pkg/internal/provider"
	"github.com/yeisme/docvault/pkg/internal/storage/kv"
	"github.com/yeisme/docvault/pkg/internal/vault"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接：事务内只使用 tx，不会自锁
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(context.Background(), db))

	return db
}

// recorder 记录发出的事件主题.
type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) Emit(_ context.Context, topic string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = append(r.topics, topic)
}

func (r *recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.topics...)
}

// fakeProvider 不访问网络的提供商，SecretAccessKey 为 "bad" 时连接测试失败.
type fakeProvider struct {
	kind  provider.Type
	creds provider.Credentials
}

func (p *fakeProvider) Type() provider.Type { return p.kind }

func (p *fakeProvider) Bucket() provider.BucketInfo {
	region := p.creds.Region
	if region == "" {
		region = "us-east-1"
	}

	return provider.BucketInfo{Name: p.creds.Bucket, Region: region}
}

func (p *fakeProvider) TestConnection(context.Context) *provider.TestResult {
	if p.creds.SecretAccessKey == "bad" {
		return &provider.TestResult{
			Success: false,
			Message: p.kind.DisplayName() + " bucket does not exist or is not accessible",
			Error:   "AccessDenied",
		}
	}

	return &provider.TestResult{
		Success: true,
		Message: p.kind.DisplayName() + " connection successful",
		Details: provider.Checks{BucketExists: true, ReadPermission: true, WritePermission: true},
	}
}

func (p *fakeProvider) GenerateUploadURL(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.fake/%s?op=put&ct=%s&ttl=%d", p.creds.Bucket, key, contentType, int(ttl.Seconds())), nil
}

func (p *fakeProvider) GenerateDownloadURL(_ context.Context, key, name string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.fake/%s?disposition=attachment&name=%s&ttl=%d", p.creds.Bucket, key, name, int(ttl.Seconds())), nil
}

func (p *fakeProvider) GeneratePreviewURL(_ context.Context, key, name string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.fake/%s?disposition=inline&name=%s&ttl=%d", p.creds.Bucket, key, name, int(ttl.Seconds())), nil
}

// fakeRegistry 所有类型都构造 fakeProvider，并统计构造次数.
type fakeRegistry struct {
	*provider.Registry

	mu     sync.Mutex
	builds int
}

func newFakeRegistry() *fakeRegistry {
	fr := &fakeRegistry{Registry: provider.NewRegistry()}

	for _, t := range []provider.Type{provider.TypeS3, provider.TypeR2, provider.TypeMinIO} {
		kind := t
		fr.Register(kind, func(creds provider.Credentials) (provider.Provider, error) {
			fr.mu.Lock()
			fr.builds++
			fr.mu.Unlock()

			return &fakeProvider{kind: kind, creds: creds}, nil
		})
	}

	return fr
}

func (fr *fakeRegistry) Builds() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	return fr.builds
}

type fixture struct {
	db       *gorm.DB
	events   *recorder
	registry *fakeRegistry
	files    *FileService
	folders  *FolderService
	storage  *StorageService
	presign  *PresignService
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	rec := &recorder{}
	reg := newFakeRegistry()

	v, err := vault.New(testKey)
	require.NoError(t, err)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		events:   rec,
		registry: reg,
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	f.files = NewFileService(db, rec)
	f.folders = NewFolderService(db, f.files, rec)
	f.storage = NewStorageService(db, v, reg.Registry, cache.NewCache(store, "test:", time.Minute), rec)
	f.storage.now = func() time.Time { return f.clock }
	f.presign = NewPresignService(f.storage, f.files, presignDefaults())
	f.presign.now = func() time.Time { return f.clock }

	return f
}

func validCreds() provider.Credentials {
	return provider.Credentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "eu-west-1",
		Bucket:          "docs",
	}
}

func ptr[T any](v T) *T { return &v }
