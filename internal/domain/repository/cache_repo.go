package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Виды пространств имен кеша
const (
	CacheKindLeaderboard = "leaderboard"
	CacheKindHistory     = "history"
)

// CacheNamespace группирует ключи, которые инвалидируются вместе
type CacheNamespace struct {
	Kind    string
	OwnerID uint
}

func (ns CacheNamespace) String() string {
	return fmt.Sprintf("%s:%d", ns.Kind, ns.OwnerID)
}

// LeaderboardNamespace - все закешированные данные рейтинга конкурса
func LeaderboardNamespace(contestID uint) CacheNamespace {
	return CacheNamespace{Kind: CacheKindLeaderboard, OwnerID: contestID}
}

// HistoryNamespace - все закешированные страницы истории пользователя
func HistoryNamespace(userID uint) CacheNamespace {
	return CacheNamespace{Kind: CacheKindHistory, OwnerID: userID}
}

// CacheKey - структурированный ключ: пространство имен и параметры запроса
type CacheKey struct {
	Namespace CacheNamespace
	Params    []string
}

// NewCacheKey создает ключ; params задаются парами имя, значение
func NewCacheKey(ns CacheNamespace, params ...any) CacheKey {
	parts := make([]string, 0, (len(params)+1)/2)
	for i := 0; i < len(params); i += 2 {
		if i+1 < len(params) {
			parts = append(parts, fmt.Sprintf("%v=%v", params[i], params[i+1]))
		} else {
			parts = append(parts, fmt.Sprint(params[i]))
		}
	}
	return CacheKey{Namespace: ns, Params: parts}
}

func (k CacheKey) String() string {
	return k.Namespace.String() + ":" + strings.Join(k.Params, ":")
}

// CacheRepository - кеш с TTL на ключ и инвалидацией по пространству имен.
// Кеш не является источником истины: любая ошибка чтения трактуется как промах.
//
// Поколение пространства имен меняется при каждой инвалидации. Вызывающий
// читает поколение до чтения из БД и передает его в SetJSON; значение,
// посчитанное до инвалидации, читателям уже не видно.
type CacheRepository interface {
	// GetJSON возвращает apperrors.ErrNotFound при промахе или истекшем TTL
	GetJSON(ctx context.Context, key CacheKey, dest interface{}) error
	Generation(ctx context.Context, ns CacheNamespace) (int64, error)
	SetJSON(ctx context.Context, key CacheKey, generation int64, value interface{}, ttl time.Duration) error
	InvalidateNamespace(ctx context.Context, ns CacheNamespace) error
}
