package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/handler/dto"
	"github.com/yourusername/contest-api/internal/handler/response"
	"github.com/yourusername/contest-api/internal/service"
)

type userService interface {
	ListUsers(ctx context.Context, principal service.Principal, page service.Page) ([]entity.User, service.Pagination, error)
	UpdateRole(ctx context.Context, principal service.Principal, userID uint, role string) (*entity.User, error)
}

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	userService userService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService userService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers возвращает страницу пользователей
// GET /api/users?page=&limit=
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, pagination, err := h.userService.ListUsers(c.Request.Context(), principalFrom(c), pageFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserListResponse(users, pagination))
}

// UpdateRole меняет роль пользователя
// PUT /api/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	userID := c.MustGet(UserIDKey).(uint)

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), principalFrom(c), userID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
