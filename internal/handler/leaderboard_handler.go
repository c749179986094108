package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/handler/dto"
	"github.com/yourusername/contest-api/internal/handler/response"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/service"
)

type leaderboardService interface {
	GetContestLeaderboard(ctx context.Context, contestID uint, page service.Page) (*service.Leaderboard, error)
	GetUserContestHistory(ctx context.Context, principal service.Principal, page service.Page, status string) (*service.History, error)
	ExportLeaderboard(ctx context.Context, contestID uint) (*entity.Contest, []service.RankingEntry, error)
}

// LeaderboardHandler обрабатывает запросы рейтингов и истории участий
type LeaderboardHandler struct {
	leaderboardService leaderboardService
}

// NewLeaderboardHandler создает новый обработчик рейтингов
func NewLeaderboardHandler(leaderboardService leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetContestLeaderboard возвращает страницу рейтинга конкурса
// GET /api/leaderboard/contests/:contestId?page=&limit=
func (h *LeaderboardHandler) GetContestLeaderboard(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)

	lb, err := h.leaderboardService.GetContestLeaderboard(c.Request.Context(), contestID, pageFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLeaderboardResponse(lb))
}

// GetUserContestHistory возвращает историю участий пользователя
// GET /api/leaderboard/user/history?page=&limit=&status=
func (h *LeaderboardHandler) GetUserContestHistory(c *gin.Context) {
	history, err := h.leaderboardService.GetUserContestHistory(c.Request.Context(), principalFrom(c), pageFrom(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryResponse(history))
}

// ExportLeaderboard выгружает полный рейтинг конкурса в CSV или Excel
// GET /api/leaderboard/contests/:contestId/export?format=csv|xlsx
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context) {
	contestID := c.MustGet(ContestIDKey).(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		response.Error(c, apperrors.BadRequest("VALIDATION_ERROR", "Unsupported export format %q", format))
		return
	}

	contest, rankings, err := h.leaderboardService.ExportLeaderboard(c.Request.Context(), contestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("contest_%d_leaderboard_%s", contest.ID, timeNow().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, rankings, filename)
		return
	}
	h.exportCSV(c, rankings, filename)
}

var exportHeaders = []string{"Rank", "User ID", "Username", "Score", "Submitted At"}

// exportCSV экспортирует рейтинг в CSV с правильным экранированием спецсимволов
func (h *LeaderboardHandler) exportCSV(c *gin.Context, rankings []service.RankingEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	// Заголовки уже отправлены, поэтому ошибку можно только залогировать
	if err := writeLeaderboardCSV(c.Writer, rankings); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи CSV %s: %v", filename, err)
	}
}

// writeLeaderboardCSV пишет BOM, заголовок и строки рейтинга
func writeLeaderboardCSV(w io.Writer, rankings []service.RankingEntry) error {
	// BOM для корректного отображения UTF-8 в Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	for _, r := range rankings {
		err := writer.Write([]string{
			strconv.Itoa(r.Rank),
			strconv.FormatUint(uint64(r.UserID), 10),
			sanitizeForExcel(r.Username),
			strconv.Itoa(r.Score),
			r.SubmittedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// exportXLSX экспортирует рейтинг в Excel с использованием StreamWriter
func (h *LeaderboardHandler) exportXLSX(c *gin.Context, rankings []service.RankingEntry, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaderboard"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка создания StreamWriter: %v", err)
		response.Error(c, err)
		return
	}

	headers := make([]interface{}, 0, len(exportHeaders))
	for _, name := range exportHeaders {
		headers = append(headers, name)
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи заголовков: %v", err)
	}

	for i, r := range rankings {
		rowNum := i + 2
		row := []interface{}{r.Rank, r.UserID, sanitizeForExcel(r.Username), r.Score, r.SubmittedAt.UTC().Format(time.RFC3339)}
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), row); err != nil {
			log.Printf("[LeaderboardHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка при Flush: %v", err)
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
