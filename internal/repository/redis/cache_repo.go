package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

const defaultKeyPrefix = "contest-api:cache:"

// CacheRepo реализует repository.CacheRepository поверх Redis.
//
// У каждого пространства имен есть счетчик версии; версия входит в ключ.
// Инвалидация - это INCR счетчика: старые ключи становятся недостижимыми
// и удаляются Redis по TTL.
type CacheRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewCacheRepo создает новый репозиторий кеша и возвращает ошибку при проблемах
func NewCacheRepo(client redis.UniversalClient, prefix string) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &CacheRepo{client: client, prefix: prefix}, nil
}

func (r *CacheRepo) versionKey(ns repository.CacheNamespace) string {
	return r.prefix + "ns:" + ns.String() + ":v"
}

func (r *CacheRepo) version(ctx context.Context, ns repository.CacheNamespace) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(ns)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *CacheRepo) dataKey(key repository.CacheKey, version int64) string {
	return fmt.Sprintf("%s%s:v%d:%s", r.prefix, key.Namespace.String(), version, strings.Join(key.Params, ":"))
}

// GetJSON получает значение и десериализует его в dest
func (r *CacheRepo) GetJSON(ctx context.Context, key repository.CacheKey, dest interface{}) error {
	v, err := r.version(ctx, key.Namespace)
	if err != nil {
		return err
	}
	data, err := r.client.Get(ctx, r.dataKey(key, v)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Generation возвращает текущую версию пространства имен
func (r *CacheRepo) Generation(ctx context.Context, ns repository.CacheNamespace) (int64, error) {
	return r.version(ctx, ns)
}

// SetJSON сериализует значение в JSON и сохраняет его под переданной версией.
// Если пространство имен уже инвалидировали, запись ляжет под старую версию,
// которую GetJSON не читает, и истечет по TTL.
func (r *CacheRepo) SetJSON(ctx context.Context, key repository.CacheKey, generation int64, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.dataKey(key, generation), data, ttl).Err()
}

// InvalidateNamespace делает недостижимыми все ключи пространства имен
func (r *CacheRepo) InvalidateNamespace(ctx context.Context, ns repository.CacheNamespace) error {
	return r.client.Incr(ctx, r.versionKey(ns)).Err()
}
