package cache

import (
	"context"
	"sync"
	"time"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryCache реализует domain.Cache в памяти процесса, когда Redis не настроен.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

var _ domain.Cache = (*MemoryCache)(nil)

// NewMemory создаёт пустой кэш.
func NewMemory() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry), now: time.Now}
}

// setNX ставит ключ, если его нет или он истёк.
func (c *MemoryCache) setNX(key string, value []byte, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok && !c.expired(e) {
		return false
	}
	c.items[key] = entry{value: value, expires: c.deadline(ttl)}
	return true
}

func (c *MemoryCache) del(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Once реализует domain.Cache.
func (c *MemoryCache) Once(_ context.Context, key string, ttl time.Duration, fn func() error) error {
	if !c.setNX(key, []byte("1"), ttl) {
		return nil
	}
	if err := fn(); err != nil {
		c.del(key)
		return err
	}
	return nil
}

// Lock реализует domain.Cache.
func (c *MemoryCache) Lock(_ context.Context, key string, ttl time.Duration, fn func() error) error {
	if !c.setNX(key, []byte("1"), ttl) {
		return domain.ErrLocked
	}
	defer c.del(key)
	return fn()
}

// Set реализует domain.Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: append([]byte(nil), value...), expires: c.deadline(ttl)}
	return nil
}

// Get реализует domain.Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok || c.expired(e) {
		delete(c.items, key)
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (c *MemoryCache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

func (c *MemoryCache) expired(e entry) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}
