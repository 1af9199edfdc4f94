package cache

import (
	"context"
	"time"

	"github.com/athebyme/travel-admin/pkg/errors"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval период, с которым janitor удаляет истекшие записи
const DefaultCleanupInterval = time.Minute

// MemoryCache реализация CachePort в памяти процесса.
// Используется в локальной разработке без Redis и в тестах.
// Значения копируются при записи и чтении.
type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithCleanup(DefaultCleanupInterval)
}

func NewMemoryCacheWithCleanup(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

var _ interfaces.CachePort = (*MemoryCache)(nil)

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, errors.ErrCacheMiss
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Set с expiration <= 0 хранит значение без срока действия
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	m.items.Set(key, append([]byte(nil), value...), expiration)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// Len число записей, включая истекшие, которые janitor еще не удалил
func (m *MemoryCache) Len() int {
	return m.items.ItemCount()
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.items.Flush()
	return nil
}
