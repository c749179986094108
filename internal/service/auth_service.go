package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// TokenIssuer выпускает токены доступа
type TokenIssuer interface {
	GenerateToken(userID uint, role string) (string, time.Time, error)
}

// RegisterInput - данные для регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// AuthResult - пользователь и выпущенный для него токен
type AuthResult struct {
	User        *entity.User
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService регистрирует и аутентифицирует пользователей
type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// Register создает пользователя. Самостоятельно можно получить только роли normal и guest.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = entity.RoleNormal
	}
	if violations := registerViolations(in); len(violations) > 0 {
		return nil, apperrors.Invalid("VALIDATION_ERROR", violations)
	}

	user := &entity.User{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(CodeUserExists, "User with this username or email already exists").WithCause(err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("[AuthService] Зарегистрирован пользователь #%d (%s, роль %s)", user.ID, user.Username, user.Role)

	return s.issue(user)
}

// Login проверяет email и пароль и выпускает токен
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для пользователя #%d", user.ID)
		return nil, errInvalidCredentials()
	}
	return s.issue(user)
}

// GetUser возвращает профиль пользователя
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errUserNotFound()
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *entity.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func errInvalidCredentials() error {
	return apperrors.Unauthorized(CodeInvalidCredentials, "Invalid email or password")
}

func registerViolations(in RegisterInput) []apperrors.Violation {
	var v []apperrors.Violation
	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 50 {
		v = append(v, apperrors.Violation{Field: "username", Message: "username must be 3 to 50 characters"})
	}
	if at := strings.Index(in.Email, "@"); at < 1 || at == len(in.Email)-1 {
		v = append(v, apperrors.Violation{Field: "email", Message: "email is invalid"})
	}
	if len(in.Password) < 6 {
		v = append(v, apperrors.Violation{Field: "password", Message: "password must be at least 6 characters"})
	}
	if in.Role != entity.RoleNormal && in.Role != entity.RoleGuest {
		v = append(v, apperrors.Violation{Field: "role", Message: "only normal or guest roles can be self-assigned"})
	}
	return v
}
