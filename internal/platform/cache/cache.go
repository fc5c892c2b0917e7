package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"pet-adoption-web/internal/platform/logger"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Store es un cache tipado por valor con keys string.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Flush(ctx context.Context)
}

// InMemory implementa Store sobre go-cache.
type InMemory[V any] struct {
	useCase string
	cache   *gocache.Cache
	log     logger.Logger
}

func NewInMemory[V any](useCase string, defaultExpiration, cleanupInterval time.Duration, log logger.Logger) *InMemory[V] {
	if defaultExpiration <= 0 {
		defaultExpiration = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InMemory[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
		log:     log.With(map[string]any{"cache": useCase}),
	}
}

func (c *InMemory[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		c.log.Error("wrong type assertion when getting value", map[string]any{"key": key})
		return zero, false
	}

	c.log.Debug("cache hit", map[string]any{"key": key})
	return v, true
}

// Set con ttl <= 0 usa la expiración por defecto del cache.
func (c *InMemory[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
}

func (c *InMemory[V]) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

func (c *InMemory[V]) Flush(ctx context.Context) {
	c.cache.Flush()
}

// ReadThrough resuelve con fn en caso de miss y cachea solo los éxitos.
type ReadThrough[V any, I any] struct {
	cache Store[V]
	fn    func(ctx context.Context, input I) (V, error)
}

func NewReadThrough[V any, I any](store Store[V], fn func(ctx context.Context, input I) (V, error)) *ReadThrough[V, I] {
	return &ReadThrough[V, I]{cache: store, fn: fn}
}

func (r *ReadThrough[V, I]) Get(ctx context.Context, key string, input I, ttl time.Duration) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Invalidate borra la key del cache subyacente.
func (r *ReadThrough[V, I]) Invalidate(ctx context.Context, key string) {
	r.cache.Delete(ctx, key)
}
