package entity

import (
	"time"
)

// Статусы участия
const (
	ParticipationStatusInProgress = "in-progress"
	ParticipationStatusSubmitted  = "submitted"
)

// Participation - единственная попытка пользователя в конкурсе.
// Пара (UserID, ContestID) уникальна.
type Participation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_participations_user_contest" json:"user_id"`
	ContestID   uint       `gorm:"not null;uniqueIndex:idx_participations_user_contest;index" json:"contest_id"`
	Status      string     `gorm:"size:20;not null;default:'in-progress'" json:"status"`
	Score       int        `gorm:"not null;default:0" json:"score"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Contest     *Contest   `gorm:"foreignKey:ContestID" json:"contest,omitempty"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Participation) TableName() string {
	return "participations"
}

// IsSubmitted возвращает true, если ответы уже отправлены
func (p *Participation) IsSubmitted() bool {
	return p.Status == ParticipationStatusSubmitted
}

// IsInProgress возвращает true для незавершенной попытки
func (p *Participation) IsInProgress() bool {
	return p.Status == ParticipationStatusInProgress
}

// IsValidParticipationStatus проверяет значение фильтра статуса
func IsValidParticipationStatus(status string) bool {
	return status == ParticipationStatusInProgress || status == ParticipationStatusSubmitted
}

// Answer - ответ на один вопрос в рамках участия
type Answer struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ParticipationID uint           `gorm:"not null;uniqueIndex:idx_answers_participation_question" json:"participation_id"`
	QuestionID      uint           `gorm:"not null;uniqueIndex:idx_answers_participation_question" json:"question_id"`
	IsCorrect       bool           `gorm:"not null;default:false" json:"is_correct"`
	Options         []AnswerOption `gorm:"foreignKey:AnswerID" json:"options,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}

// AnswerOption связывает ответ с выбранным вариантом
type AnswerOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"not null;uniqueIndex:idx_answer_options_answer_option" json:"answer_id"`
	OptionID  uint      `gorm:"not null;uniqueIndex:idx_answer_options_answer_option" json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AnswerOption) TableName() string {
	return "answer_options"
}
