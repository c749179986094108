package dto

import (
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/service"
	"github.com/yourusername/contest-api/internal/service/grading"
)

// AnswerRequest - ответ на один вопрос
type AnswerRequest struct {
	QuestionID uint   `json:"question_id"`
	OptionIDs  []uint `json:"option_ids"`
}

// SubmitAnswersRequest - полный набор ответов участия
type SubmitAnswersRequest struct {
	Answers []AnswerRequest `json:"answers"`
}

// ToAnswers преобразует запрос во входные данные оценивания
func (r *SubmitAnswersRequest) ToAnswers() []grading.SubmittedAnswer {
	out := make([]grading.SubmittedAnswer, 0, len(r.Answers))
	for _, a := range r.Answers {
		out = append(out, grading.SubmittedAnswer{QuestionID: a.QuestionID, OptionIDs: a.OptionIDs})
	}
	return out
}

// ParticipationResponse - участие пользователя в конкурсе
type ParticipationResponse struct {
	ID          uint       `json:"id"`
	UserID      uint       `json:"user_id"`
	ContestID   uint       `json:"contest_id"`
	Status      string     `json:"status"`
	Score       int        `json:"score"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// JoinResponse - ответ на присоединение к конкурсу
type JoinResponse struct {
	Message       string                `json:"message"`
	Participation ParticipationResponse `json:"participation"`
	QuestionCount int                   `json:"question_count"`
}

// SubmitResponse - результат отправки ответов
type SubmitResponse struct {
	Message         string    `json:"message"`
	ParticipationID uint      `json:"participation_id"`
	ContestID       uint      `json:"contest_id"`
	Status          string    `json:"status"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"total_questions"`
	StartedAt       time.Time `json:"started_at"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// ContestScoreResponse - результат пользователя в конкурсе
type ContestScoreResponse struct {
	ContestID   uint       `json:"contest_id"`
	ContestName string     `json:"contest_name"`
	Score       int        `json:"score"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// ActiveParticipationResponse - незавершенное участие
type ActiveParticipationResponse struct {
	ID          uint      `json:"id"`
	ContestID   uint      `json:"contest_id"`
	ContestName string    `json:"contest_name"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// ActiveParticipationsResponse - список незавершенных участий
type ActiveParticipationsResponse struct {
	Count          int                           `json:"count"`
	Participations []ActiveParticipationResponse `json:"participations"`
}

// NewParticipationResponse создает DTO участия
func NewParticipationResponse(p *entity.Participation) ParticipationResponse {
	return ParticipationResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		ContestID:   p.ContestID,
		Status:      p.Status,
		Score:       p.Score,
		StartedAt:   p.StartedAt,
		SubmittedAt: p.SubmittedAt,
	}
}

// NewJoinResponse создает DTO результата присоединения
func NewJoinResponse(r *service.JoinResult) *JoinResponse {
	message := "Contest joined successfully"
	if !r.Created {
		message = "Already participating in this contest"
	}
	return &JoinResponse{
		Message:       message,
		Participation: NewParticipationResponse(&r.Participation),
		QuestionCount: r.QuestionCount,
	}
}

// NewSubmitResponse создает DTO результата отправки
func NewSubmitResponse(r *service.SubmitResult) *SubmitResponse {
	return &SubmitResponse{
		Message:         "Answers submitted successfully",
		ParticipationID: r.ParticipationID,
		ContestID:       r.ContestID,
		Status:          r.Status,
		Score:           r.Score,
		TotalQuestions:  r.TotalQuestions,
		StartedAt:       r.StartedAt,
		SubmittedAt:     r.SubmittedAt,
	}
}

// NewContestScoreResponse создает DTO результата в конкурсе
func NewContestScoreResponse(s *service.ContestScore) *ContestScoreResponse {
	return &ContestScoreResponse{
		ContestID:   s.ContestID,
		ContestName: s.ContestName,
		Score:       s.Score,
		Status:      s.Status,
		SubmittedAt: s.SubmittedAt,
	}
}

// NewActiveParticipationsResponse создает DTO списка незавершенных участий
func NewActiveParticipationsResponse(items []service.ActiveParticipation) *ActiveParticipationsResponse {
	out := make([]ActiveParticipationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ActiveParticipationResponse{
			ID:          a.ID,
			ContestID:   a.ContestID,
			ContestName: a.ContestName,
			Description: a.Description,
			StartedAt:   a.StartedAt,
			EndsAt:      a.EndsAt,
		})
	}
	return &ActiveParticipationsResponse{Count: len(out), Participations: out}
}
