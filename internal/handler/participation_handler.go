package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-api/internal/handler/dto"
	"github.com/yourusername/contest-api/internal/handler/response"
	"github.com/yourusername/contest-api/internal/service"
	"github.com/yourusername/contest-api/internal/service/grading"
)

type participationService interface {
	JoinContest(ctx context.Context, principal service.Principal, contestID uint) (*service.JoinResult, error)
	SubmitAnswers(ctx context.Context, principal service.Principal, contestID uint, answers []grading.SubmittedAnswer) (*service.SubmitResult, error)
	GetUserContestScore(ctx context.Context, principal service.Principal, contestID uint) (*service.ContestScore, error)
	GetActiveParticipations(ctx context.Context, principal service.Principal) ([]service.ActiveParticipation, error)
}

// ParticipationHandler обрабатывает участие в конкурсах
type ParticipationHandler struct {
	participationService participationService
}

// NewParticipationHandler создает новый обработчик участий
func NewParticipationHandler(participationService participationService) *ParticipationHandler {
	return &ParticipationHandler{participationService: participationService}
}

// JoinContest присоединяет пользователя к конкурсу.
// Повторный вызов для незавершенного участия возвращает его же с кодом 200.
// POST /api/participations/contests/:contestId/join
func (h *ParticipationHandler) JoinContest(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	result, err := h.participationService.JoinContest(c.Request.Context(), principalFrom(c), contestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewJoinResponse(result))
}

// SubmitAnswers принимает полный набор ответов
// POST /api/participations/contests/:contestId/submit
func (h *ParticipationHandler) SubmitAnswers(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	var req dto.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.participationService.SubmitAnswers(c.Request.Context(), principalFrom(c), contestID, req.ToAnswers())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmitResponse(result))
}

// GetUserContestScore возвращает результат пользователя в конкурсе
// GET /api/participations/contests/:contestId/score
func (h *ParticipationHandler) GetUserContestScore(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	score, err := h.participationService.GetUserContestScore(c.Request.Context(), principalFrom(c), contestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContestScoreResponse(score))
}

// GetActiveParticipations возвращает незавершенные участия пользователя
// GET /api/leaderboard/user/in-progress
func (h *ParticipationHandler) GetActiveParticipations(c *gin.Context) {
	items, err := h.participationService.GetActiveParticipations(c.Request.Context(), principalFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewActiveParticipationsResponse(items))
}
