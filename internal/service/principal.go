package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// Principal - проверенный вызывающий: ID пользователя и его роль.
// Неаутентифицированный вызов представлен гостем с нулевым ID.
type Principal struct {
	UserID uint
	Role   string
}

// Guest возвращает принципала для анонимного запроса
func Guest() Principal {
	return Principal{Role: entity.RoleGuest}
}

// System возвращает принципала для административных команд, запускаемых вне HTTP
func System() Principal {
	return Principal{Role: entity.RoleAdmin}
}

// IsAdmin возвращает true для администратора
func (p Principal) IsAdmin() bool {
	return p.Role == entity.RoleAdmin
}

// IsAuthenticated возвращает true, если запрос сделан известным пользователем
func (p Principal) IsAuthenticated() bool {
	return p.UserID != 0
}

// withStoredRole подставляет роль из базы: токен мог быть выдан до смены роли.
// Гость и системный принципал возвращаются без изменений.
func withStoredRole(ctx context.Context, users repository.UserRepository, p Principal) (Principal, error) {
	if !p.IsAuthenticated() {
		return p, nil
	}
	user, err := users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Principal{}, errUserNotFound()
		}
		return Principal{}, err
	}
	return Principal{UserID: user.ID, Role: user.Role}, nil
}

// Параметры пагинации
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page - нормализованные параметры страницы
type Page struct {
	Page  int
	Limit int
}

// NewPage ограничивает page снизу единицей, а limit диапазоном 1..MaxPageSize.
// page сверху ограничен так, чтобы Offset не переполнялся.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return Page{Page: page, Limit: limit}
}

// Offset возвращает смещение первой строки страницы
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination описывает страницу в ответе
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// NewPagination считает количество страниц (округление вверх)
func NewPagination(total int64, p Page) Pagination {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}

// clock - источник текущего времени; подменяется в тестах
type clock func() time.Time
