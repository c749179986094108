package dto

import (
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/service"
)

// OptionRequest - вариант ответа в запросе создания вопроса
type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest - вопрос в запросе создания или обновления конкурса
type QuestionRequest struct {
	Text    string          `json:"text"`
	Type    string          `json:"type"`
	Options []OptionRequest `json:"options"`
}

// CreateContestRequest представляет запрос на создание конкурса.
// Содержательная проверка выполняется сервисом, чтобы вернуть все нарушения сразу.
type CreateContestRequest struct {
	Name             string            `json:"name" binding:"max=100"`
	Description      string            `json:"description"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time"`
	AccessLevel      string            `json:"access_level"`
	PrizeInformation string            `json:"prize_information"`
	Questions        []QuestionRequest `json:"questions"`
}

// UpdateContestRequest - частичное обновление; отсутствующие поля не меняются
type UpdateContestRequest struct {
	Name             *string           `json:"name" binding:"omitempty,max=100"`
	Description      *string           `json:"description"`
	StartTime        *time.Time        `json:"start_time"`
	EndTime          *time.Time        `json:"end_time"`
	AccessLevel      *string           `json:"access_level"`
	PrizeInformation *string           `json:"prize_information"`
	Questions        []QuestionRequest `json:"questions"`
}

// ToInput преобразует запрос в данные для сервиса
func (r *CreateContestRequest) ToInput() service.CreateContestInput {
	return service.CreateContestInput{
		Name:             r.Name,
		Description:      r.Description,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		AccessLevel:      r.AccessLevel,
		PrizeInformation: r.PrizeInformation,
		Questions:        toQuestionInputs(r.Questions),
	}
}

// ToInput преобразует запрос в данные для сервиса
func (r *UpdateContestRequest) ToInput() service.UpdateContestInput {
	return service.UpdateContestInput{
		Name:             r.Name,
		Description:      r.Description,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		AccessLevel:      r.AccessLevel,
		PrizeInformation: r.PrizeInformation,
		Questions:        toQuestionInputs(r.Questions),
	}
}

// toQuestionInputs сохраняет различие между nil (не менять) и пустым списком
func toQuestionInputs(in []QuestionRequest) []service.QuestionInput {
	if in == nil {
		return nil
	}
	out := make([]service.QuestionInput, 0, len(in))
	for _, q := range in {
		options := make([]service.OptionInput, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, service.OptionInput{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		out = append(out, service.QuestionInput{Text: q.Text, Type: q.Type, Options: options})
	}
	return out
}

// OptionResponse - вариант ответа; is_correct виден только администратору
type OptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse представляет вопрос в формате для ответа клиенту
type QuestionResponse struct {
	ID       uint             `json:"id"`
	Text     string           `json:"text"`
	Type     string           `json:"type"`
	Position int              `json:"position"`
	Options  []OptionResponse `json:"options"`
}

// ContestResponse представляет конкурс в формате для ответа клиенту
type ContestResponse struct {
	ID               uint               `json:"id"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time"`
	AccessLevel      string             `json:"access_level"`
	PrizeInformation string             `json:"prize_information,omitempty"`
	Status           string             `json:"status"`
	CreatorID        uint               `json:"creator_id"`
	Questions        []QuestionResponse `json:"questions,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ContestListResponse - страница каталога конкурсов
type ContestListResponse struct {
	Contests   []*ContestResponse `json:"contests"`
	Pagination service.Pagination `json:"pagination"`
}

// NewContestResponse создает DTO для конкурса. Вопросы включаются, если они загружены.
func NewContestResponse(c *entity.Contest, status string, showAnswers bool) *ContestResponse {
	resp := &ContestResponse{
		ID:               c.ID,
		Name:             c.Name,
		Description:      c.Description,
		StartTime:        c.StartTime,
		EndTime:          c.EndTime,
		AccessLevel:      c.AccessLevel,
		PrizeInformation: c.PrizeInformation,
		Status:           status,
		CreatorID:        c.CreatorID,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for i := range c.Questions {
		resp.Questions = append(resp.Questions, newQuestionResponse(&c.Questions[i], showAnswers))
	}
	return resp
}

func newQuestionResponse(q *entity.Question, showAnswers bool) QuestionResponse {
	options := make([]OptionResponse, 0, len(q.Options))
	for _, o := range q.Options {
		opt := OptionResponse{ID: o.ID, Text: o.Text}
		if showAnswers {
			isCorrect := o.IsCorrect
			opt.IsCorrect = &isCorrect
		}
		options = append(options, opt)
	}
	return QuestionResponse{
		ID:       q.ID,
		Text:     q.Text,
		Type:     q.Type,
		Position: q.Position,
		Options:  options,
	}
}

// NewContestListResponse создает DTO страницы каталога
func NewContestListResponse(contests []service.ContestWithStatus, pagination service.Pagination) *ContestListResponse {
	items := make([]*ContestResponse, 0, len(contests))
	for i := range contests {
		items = append(items, NewContestResponse(&contests[i].Contest, contests[i].Status, false))
	}
	return &ContestListResponse{Contests: items, Pagination: pagination}
}
