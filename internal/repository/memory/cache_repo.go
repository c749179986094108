package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// CacheRepo - кеш в памяти процесса с TTL на ключ.
// Значения хранятся в сериализованном виде, вызывающие не разделяют изменяемое состояние.
type CacheRepo struct {
	clock func() time.Time

	mu          sync.RWMutex
	namespaces  map[repository.CacheNamespace]map[string]cacheEntry
	generations map[repository.CacheNamespace]int64
}

// NewCacheRepo создает пустой кеш в памяти
func NewCacheRepo() *CacheRepo {
	return &CacheRepo{
		clock:       time.Now,
		namespaces:  make(map[repository.CacheNamespace]map[string]cacheEntry),
		generations: make(map[repository.CacheNamespace]int64),
	}
}

func entryKey(key repository.CacheKey) string {
	return strings.Join(key.Params, ":")
}

// GetJSON возвращает apperrors.ErrNotFound при промахе или истекшем TTL
func (r *CacheRepo) GetJSON(_ context.Context, key repository.CacheKey, dest interface{}) error {
	now := r.clock()

	r.mu.RLock()
	entry, ok := r.namespaces[key.Namespace][entryKey(key)]
	r.mu.RUnlock()

	if !ok || !entry.expiresAt.After(now) {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(entry.data, dest)
}

// Generation возвращает число инвалидаций пространства имен
func (r *CacheRepo) Generation(_ context.Context, ns repository.CacheNamespace) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generations[ns], nil
}

// SetJSON сохраняет значение с TTL. Нулевой или отрицательный TTL ничего не сохраняет,
// как и устаревшее поколение: пространство имен успели инвалидировать.
func (r *CacheRepo) SetJSON(_ context.Context, key repository.CacheKey, generation int64, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[key.Namespace] != generation {
		return nil
	}
	entries, ok := r.namespaces[key.Namespace]
	if !ok {
		entries = make(map[string]cacheEntry)
		r.namespaces[key.Namespace] = entries
	}
	entries[entryKey(key)] = cacheEntry{data: data, expiresAt: r.clock().Add(ttl)}
	return nil
}

// InvalidateNamespace удаляет все ключи пространства имен и сдвигает его поколение
func (r *CacheRepo) InvalidateNamespace(_ context.Context, ns repository.CacheNamespace) error {
	r.mu.Lock()
	delete(r.namespaces, ns)
	r.generations[ns]++
	r.mu.Unlock()
	return nil
}

// Cleanup удаляет истекшие записи и возвращает их количество
func (r *CacheRepo) Cleanup() int {
	now := r.clock()
	removed := 0

	r.mu.Lock()
	defer r.mu.Unlock()
	for ns, entries := range r.namespaces {
		for k, e := range entries {
			if !e.expiresAt.After(now) {
				delete(entries, k)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(r.namespaces, ns)
		}
	}
	return removed
}

// Len возвращает количество записей, включая еще не удаленные истекшие
func (r *CacheRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, entries := range r.namespaces {
		n += len(entries)
	}
	return n
}

// NoopCache отключает кеширование: любое чтение - промах
type NoopCache struct{}

func (NoopCache) GetJSON(context.Context, repository.CacheKey, interface{}) error {
	return apperrors.ErrNotFound
}

func (NoopCache) Generation(context.Context, repository.CacheNamespace) (int64, error) {
	return 0, nil
}

func (NoopCache) SetJSON(context.Context, repository.CacheKey, int64, interface{}, time.Duration) error {
	return nil
}

func (NoopCache) InvalidateNamespace(context.Context, repository.CacheNamespace) error {
	return nil
}
