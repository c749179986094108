package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/handler/response"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/pkg/auth"
)

// Ключи контекста Gin, которые заполняет AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AccessTokenCookie - имя cookie с токеном доступа
const AccessTokenCookie = "access_token"

// TokenParser проверяет токен доступа
type TokenParser interface {
	ParseToken(token string) (*auth.JWTCustomClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	tokens TokenParser
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth пропускает только запросы с действительным токеном
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if token == "" {
			response.Error(c, apperrors.Unauthorized("TOKEN_MISSING", "Authentication required"))
			return
		}
		if !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth заполняет пользователя, если токен передан; без токена запрос считается гостевым.
// Переданный, но недействительный токен отклоняется.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if token != "" && !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// RequireRoles пропускает только перечисленные роли. Применяется после RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserID); !ok {
			response.Error(c, apperrors.Unauthorized("TOKEN_MISSING", "Authentication required"))
			return
		}
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, apperrors.Forbidden("INSUFFICIENT_ROLE", "Role %q is not allowed to perform this action", role))
	}
}

// AdminOnly проверяет, является ли пользователь администратором
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return m.RequireRoles(entity.RoleAdmin)
}

func (m *AuthMiddleware) authenticate(c *gin.Context, token string) bool {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		response.Error(c, err)
		return false
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
	return true
}

// extractToken берет токен из cookie, затем из заголовка Authorization: Bearer {token}
func extractToken(c *gin.Context) (string, error) {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.Unauthorized("TOKEN_FORMAT", "Authorization header format must be Bearer {token}")
	}
	return strings.TrimSpace(parts[1]), nil
}
