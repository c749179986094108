package dto

import (
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/service"
)

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateRoleRequest - смена роли пользователя
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserResponse - публичные данные пользователя
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse - пользователь и его токен доступа
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserListResponse - страница пользователей
type UserListResponse struct {
	Users      []UserResponse     `json:"users"`
	Pagination service.Pagination `json:"pagination"`
}

// NewUserResponse создает DTO пользователя без хеша пароля
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// NewAuthResponse создает DTO результата аутентификации
func NewAuthResponse(r *service.AuthResult) *AuthResponse {
	return &AuthResponse{
		Token:     r.AccessToken,
		ExpiresAt: r.ExpiresAt,
		User:      NewUserResponse(r.User),
	}
}

// NewUserListResponse создает DTO страницы пользователей
func NewUserListResponse(users []entity.User, pagination service.Pagination) *UserListResponse {
	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, NewUserResponse(&users[i]))
	}
	return &UserListResponse{Users: items, Pagination: pagination}
}
