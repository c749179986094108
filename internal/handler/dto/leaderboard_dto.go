package dto

import (
	"time"

	"github.com/yourusername/contest-api/internal/service"
)

// LeaderboardResponse - страница рейтинга конкурса
type LeaderboardResponse struct {
	Contest    service.ContestRef     `json:"contest"`
	Pagination service.Pagination     `json:"pagination"`
	Rankings   []service.RankingEntry `json:"rankings"`
}

// HistoryEntryResponse - участие в истории пользователя
type HistoryEntryResponse struct {
	ID          uint       `json:"id"`
	ContestID   uint       `json:"contest_id"`
	ContestName string     `json:"contest_name"`
	Status      string     `json:"status"`
	Score       int        `json:"score"`
	Rank        *int       `json:"rank"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// HistoryResponse - страница истории участий
type HistoryResponse struct {
	Pagination service.Pagination     `json:"pagination"`
	History    []HistoryEntryResponse `json:"history"`
}

// NewLeaderboardResponse создает DTO рейтинга
func NewLeaderboardResponse(lb *service.Leaderboard) *LeaderboardResponse {
	return &LeaderboardResponse{
		Contest:    lb.Contest,
		Pagination: lb.Pagination,
		Rankings:   lb.Rankings,
	}
}

// NewHistoryResponse создает DTO истории
func NewHistoryResponse(h *service.History) *HistoryResponse {
	entries := make([]HistoryEntryResponse, 0, len(h.Entries))
	for _, e := range h.Entries {
		entries = append(entries, HistoryEntryResponse{
			ID:          e.ID,
			ContestID:   e.ContestID,
			ContestName: e.ContestName,
			Status:      e.Status,
			Score:       e.Score,
			Rank:        e.Rank,
			SubmittedAt: e.SubmittedAt,
		})
	}
	return &HistoryResponse{Pagination: h.Pagination, History: entries}
}
