package dto

import (
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/service"
)

// PrizeRequest - приз за место
type PrizeRequest struct {
	Rank         int    `json:"rank"`
	PrizeDetails string `json:"prize_details"`
}

// CreatePrizesRequest - набор призов конкурса
type CreatePrizesRequest struct {
	Prizes []PrizeRequest `json:"prizes"`
}

// ToInputs преобразует запрос в данные для сервиса
func (r *CreatePrizesRequest) ToInputs() []service.PrizeInput {
	out := make([]service.PrizeInput, 0, len(r.Prizes))
	for _, p := range r.Prizes {
		out = append(out, service.PrizeInput{Rank: p.Rank, PrizeDetails: p.PrizeDetails})
	}
	return out
}

// PrizeWinnerResponse - победитель приза
type PrizeWinnerResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PrizeResponse представляет приз в формате для ответа клиенту
type PrizeResponse struct {
	ID           uint                 `json:"id"`
	ContestID    uint                 `json:"contest_id"`
	ContestName  string               `json:"contest_name,omitempty"`
	Rank         int                  `json:"rank"`
	PrizeDetails string               `json:"prize_details"`
	Awarded      bool                 `json:"awarded"`
	AwardedAt    *time.Time           `json:"awarded_at"`
	Claimed      bool                 `json:"claimed"`
	ClaimedAt    *time.Time           `json:"claimed_at"`
	Winner       *PrizeWinnerResponse `json:"winner,omitempty"`
}

// PrizeListResponse - список призов
type PrizeListResponse struct {
	Count  int              `json:"count"`
	Prizes []*PrizeResponse `json:"prizes"`
}

// ContestPrizesResponse - призы конкурса
type ContestPrizesResponse struct {
	ContestID   uint             `json:"contest_id"`
	ContestName string           `json:"contest_name"`
	Prizes      []*PrizeResponse `json:"prizes"`
}

// AwardedPrizeResponse - приз, присужденный в текущем вызове
type AwardedPrizeResponse struct {
	PrizeID      uint   `json:"prize_id"`
	Rank         int    `json:"rank"`
	PrizeDetails string `json:"prize_details"`
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
}

// AwardPrizesResponse - результат присуждения призов
type AwardPrizesResponse struct {
	Message string                 `json:"message"`
	Count   int                    `json:"count"`
	Awarded []AwardedPrizeResponse `json:"awarded"`
}

// NewPrizeResponse создает DTO для приза
func NewPrizeResponse(p *entity.Prize) *PrizeResponse {
	resp := &PrizeResponse{
		ID:           p.ID,
		ContestID:    p.ContestID,
		Rank:         p.Rank,
		PrizeDetails: p.PrizeDetails,
		Awarded:      p.Awarded,
		AwardedAt:    p.AwardedAt,
		Claimed:      p.Claimed,
		ClaimedAt:    p.ClaimedAt,
	}
	if p.Contest != nil {
		resp.ContestName = p.Contest.Name
	}
	if p.User != nil {
		resp.Winner = &PrizeWinnerResponse{ID: p.User.ID, Username: p.User.Username}
	}
	return resp
}

// NewPrizeListResponse создает DTO списка призов
func NewPrizeListResponse(prizes []entity.Prize) *PrizeListResponse {
	items := make([]*PrizeResponse, 0, len(prizes))
	for i := range prizes {
		items = append(items, NewPrizeResponse(&prizes[i]))
	}
	return &PrizeListResponse{Count: len(items), Prizes: items}
}

// NewContestPrizesResponse создает DTO призов конкурса
func NewContestPrizesResponse(cp *service.ContestPrizes) *ContestPrizesResponse {
	items := make([]*PrizeResponse, 0, len(cp.Prizes))
	for i := range cp.Prizes {
		items = append(items, NewPrizeResponse(&cp.Prizes[i]))
	}
	return &ContestPrizesResponse{ContestID: cp.ContestID, ContestName: cp.ContestName, Prizes: items}
}

// NewAwardPrizesResponse создает DTO результата присуждения
func NewAwardPrizesResponse(awarded []service.AwardedPrize) *AwardPrizesResponse {
	items := make([]AwardedPrizeResponse, 0, len(awarded))
	for _, a := range awarded {
		items = append(items, AwardedPrizeResponse{
			PrizeID:      a.Prize.ID,
			Rank:         a.Prize.Rank,
			PrizeDetails: a.Prize.PrizeDetails,
			UserID:       a.Winner.UserID,
			Username:     a.Winner.Username,
			Score:        a.Winner.Score,
		})
	}
	message := "Prizes awarded successfully"
	if len(items) == 0 {
		message = "All prizes were already awarded"
	}
	return &AwardPrizesResponse{Message: message, Count: len(items), Awarded: items}
}
