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

type prizeService interface {
	CreateContestPrizes(ctx context.Context, principal service.Principal, contestID uint, inputs []service.PrizeInput) ([]entity.Prize, error)
	AwardContestPrizes(ctx context.Context, principal service.Principal, contestID uint) ([]service.AwardedPrize, error)
	GetContestPrizes(ctx context.Context, contestID uint) (*service.ContestPrizes, error)
	GetUserPrizes(ctx context.Context, principal service.Principal) ([]entity.Prize, error)
	ClaimPrize(ctx context.Context, principal service.Principal, prizeID uint) (*entity.Prize, error)
}

// PrizeHandler обрабатывает запросы призов
type PrizeHandler struct {
	prizeService prizeService
}

// NewPrizeHandler создает новый обработчик призов
func NewPrizeHandler(prizeService prizeService) *PrizeHandler {
	return &PrizeHandler{prizeService: prizeService}
}

// CreateContestPrizes создает призы за места
// POST /api/prizes/contest/:contestId
func (h *PrizeHandler) CreateContestPrizes(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	var req dto.CreatePrizesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	prizes, err := h.prizeService.CreateContestPrizes(c.Request.Context(), principalFrom(c), contestID, req.ToInputs())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewPrizeListResponse(prizes))
}

// AwardContestPrizes присуждает призы завершенного конкурса
// POST /api/prizes/contest/:contestId/award
func (h *PrizeHandler) AwardContestPrizes(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	awarded, err := h.prizeService.AwardContestPrizes(c.Request.Context(), principalFrom(c), contestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAwardPrizesResponse(awarded))
}

// GetContestPrizes возвращает призы конкурса
// GET /api/prizes/contest/:contestId
func (h *PrizeHandler) GetContestPrizes(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	prizes, err := h.prizeService.GetContestPrizes(c.Request.Context(), contestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestPrizesResponse(prizes))
}

// GetUserPrizes возвращает призы, выигранные пользователем
// GET /api/leaderboard/user/prizes
func (h *PrizeHandler) GetUserPrizes(c *gin.Context) {
	prizes, err := h.prizeService.GetUserPrizes(c.Request.Context(), principalFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPrizeListResponse(prizes))
}

// ClaimPrize отмечает получение приза победителем
// POST /api/prizes/:id/claim
func (h *PrizeHandler) ClaimPrize(c *gin.Context) {
	prizeID := c.MustGet(PrizeIDKey).(uint)

	prize, err := h.prizeService.ClaimPrize(c.Request.Context(), principalFrom(c), prizeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPrizeResponse(prize))
}
