package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// UserService предоставляет методы администрирования пользователей
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers возвращает пагинированный список пользователей
func (s *UserService) ListUsers(ctx context.Context, principal Principal, page Page) ([]entity.User, Pagination, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, Pagination{}, err
	}
	if !principal.IsAdmin() {
		return nil, Pagination{}, errAdminOnly()
	}
	users, total, err := s.userRepo.List(ctx, page.Limit, page.Offset())
	if err != nil {
		log.Printf("[UserService] Ошибка при получении списка пользователей: %v", err)
		return nil, Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}
	return users, NewPagination(total, page), nil
}

// UpdateRole меняет роль пользователя. Роль проверяется при следующем запросе,
// так как доступ к конкурсам проверяется по роли из базы.
func (s *UserService) UpdateRole(ctx context.Context, principal Principal, userID uint, role string) (*entity.User, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, errAdminOnly()
	}
	if !entity.IsValidRole(role) {
		return nil, apperrors.BadRequest(CodeInvalidRole, "Unknown role %q", role)
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errUserNotFound()
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Printf("[UserService] Администратор #%d назначил пользователю #%d роль %s", principal.UserID, userID, role)
	return user, nil
}
