package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/handler/dto"
	"github.com/yourusername/contest-api/internal/handler/response"
	"github.com/yourusername/contest-api/internal/service"
)

type contestService interface {
	CreateContest(ctx context.Context, principal service.Principal, in service.CreateContestInput) (*entity.Contest, error)
	UpdateContest(ctx context.Context, principal service.Principal, contestID uint, in service.UpdateContestInput) (*entity.Contest, error)
	DeleteContest(ctx context.Context, principal service.Principal, contestID uint) error
	ListContests(ctx context.Context, principal service.Principal, status, accessLevel string, page service.Page) ([]service.ContestWithStatus, service.Pagination, error)
	GetContest(ctx context.Context, principal service.Principal, contestID uint) (*service.ContestDetails, error)
}

// ContestHandler обрабатывает запросы каталога конкурсов
type ContestHandler struct {
	contestService contestService
}

// NewContestHandler создает новый обработчик конкурсов
func NewContestHandler(contestService contestService) *ContestHandler {
	return &ContestHandler{contestService: contestService}
}

// ListContests возвращает конкурсы, видимые вызывающему
// GET /api/contests?status=&access_level=&page=&limit=
func (h *ContestHandler) ListContests(c *gin.Context) {
	contests, pagination, err := h.contestService.ListContests(
		c.Request.Context(),
		principalFrom(c),
		c.Query("status"),
		c.Query("access_level"),
		pageFrom(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestListResponse(contests, pagination))
}

// GetContest возвращает конкурс с вопросами
// GET /api/contests/:id
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	details, err := h.contestService.GetContest(c.Request.Context(), principalFrom(c), contestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestResponse(&details.Contest, details.Status, details.ShowAnswers))
}

// CreateContest обрабатывает запрос на создание конкурса
// POST /api/contests
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req dto.CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	contest, err := h.contestService.CreateContest(c.Request.Context(), principalFrom(c), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewContestResponse(contest, contest.StatusAt(timeNow()), true))
}

// UpdateContest обрабатывает частичное обновление конкурса
// PUT /api/contests/:id
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	var req dto.UpdateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	contest, err := h.contestService.UpdateContest(c.Request.Context(), principalFrom(c), contestID, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestResponse(contest, contest.StatusAt(timeNow()), true))
}

// DeleteContest удаляет конкурс со всеми участиями и призами
// DELETE /api/contests/:id
func (h *ContestHandler) DeleteContest(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	if err := h.contestService.DeleteContest(c.Request.Context(), principalFrom(c), contestID); err != nil {
		response.Error(c, err)
		return
	}
	log.Printf("[ContestHandler] Конкурс #%d удален", contestID)
	c.JSON(http.StatusOK, gin.H{"message": "Contest deleted successfully"})
}
