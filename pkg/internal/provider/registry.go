package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/yeisme/docvault/pkg/internal/errs"
)

// Builder 由凭据构造提供商实例.
type Builder func(creds Credentials) (Provider, error)

// Registry 提供商工厂，按 Type 分发.
type Registry struct {
	mu       sync.RWMutex
	builders map[Type]Builder
}

// NewRegistry 创建已注册 S3、R2、MinIO 的工厂.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[Type]Builder)}
	r.Register(TypeS3, NewS3)
	r.Register(TypeR2, NewR2)
	r.Register(TypeMinIO, NewMinIO)

	return r
}

// Register 注册或替换某类型的构造函数.
func (r *Registry) Register(t Type, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builders[t] = b
}

// Build 构造提供商实例，未知类型返回 errs.ErrValidation.
func (r *Registry) Build(t Type, creds Credentials) (Provider, error) {
	r.mu.RLock()
	b, ok := r.builders[t]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unsupported storage provider %q", errs.ErrValidation, t)
	}

	return b(creds)
}

// Types 返回已注册的类型.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Type, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
