package adapter

import (
	"context"
	"sync"
	"time"

	"pdf-quiz/internal/domain"

	"github.com/jellydator/ttlcache/v3"
)

// memoryEntry is either a plain string value or a hash of fields.
type memoryEntry struct {
	value string
	hash  map[string]string
}

// MemoryCacheAdapter implements domain.Cache in process memory. It is used when no
// Redis address is configured, so a single instance can run without infrastructure.
// A background janitor removes expired entries; call Close to stop it.
type MemoryCacheAdapter struct {
	// mu serializes read-modify-write sequences on hash entries.
	mu        sync.Mutex
	entries   *ttlcache.Cache[string, *memoryEntry]
	closeOnce sync.Once
}

func NewMemoryCacheAdapter() *MemoryCacheAdapter {
	entries := ttlcache.New[string, *memoryEntry](
		// Reads never extend a TTL, as in Redis.
		ttlcache.WithDisableTouchOnHit[string, *memoryEntry](),
	)
	go entries.Start()
	return &MemoryCacheAdapter{entries: entries}
}

// Close stops the expiry janitor. It is safe to call more than once.
func (m *MemoryCacheAdapter) Close() {
	m.closeOnce.Do(m.entries.Stop)
}

func ttl(expiration time.Duration) time.Duration {
	if expiration <= 0 {
		return ttlcache.NoTTL
	}
	return expiration
}

func (m *MemoryCacheAdapter) Get(_ context.Context, key string) (string, error) {
	item := m.entries.Get(key)
	if item == nil || item.Value().hash != nil {
		return "", domain.ErrCacheMiss
	}
	return item.Value().value, nil
}

func (m *MemoryCacheAdapter) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Set(key, &memoryEntry{value: value}, ttl(expiration))
	return nil
}

func (m *MemoryCacheAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Delete(key)
	return nil
}

func (m *MemoryCacheAdapter) Ping(context.Context) error {
	return nil
}

func (m *MemoryCacheAdapter) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[string]string{}
	item := m.entries.Get(key)
	if item == nil {
		return out, nil
	}
	for field, value := range item.Value().hash {
		out[field] = value
	}
	return out, nil
}

// HSet creates the hash without a TTL, like Redis. Updating an existing hash keeps its TTL.
func (m *MemoryCacheAdapter) HSet(_ context.Context, key string, field string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.entries.Get(key)
	if item == nil || item.Value().hash == nil {
		m.entries.Set(key, &memoryEntry{hash: map[string]string{field: value}}, ttlcache.NoTTL)
		return nil
	}
	item.Value().hash[field] = value
	return nil
}

func (m *MemoryCacheAdapter) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item := m.entries.Get(key); item != nil {
		m.entries.Set(key, item.Value(), ttl(expiration))
	}
	return nil
}

var _ domain.Cache = (*MemoryCacheAdapter)(nil)
