package entity

import (
	"fmt"
	"strings"
	"time"
)

// Типы вопросов
const (
	QuestionTypeSingleSelect = "single-select"
	QuestionTypeMultiSelect  = "multi-select"
	QuestionTypeTrueFalse    = "true-false"
)

// Question представляет вопрос конкурса
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index" json:"contest_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Options   []Option  `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// Option представляет вариант ответа на вопрос
type Option struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Option) TableName() string {
	return "options"
}

// IsValidQuestionType проверяет, что тип вопроса поддерживается
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionTypeSingleSelect, QuestionTypeMultiSelect, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// IsSingleChoice возвращает true, если на вопрос выбирается ровно один вариант
func (q *Question) IsSingleChoice() bool {
	return q.Type == QuestionTypeSingleSelect || q.Type == QuestionTypeTrueFalse
}

// HasOption проверяет, принадлежит ли вариант вопросу
func (q *Question) HasOption(optionID uint) bool {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return true
		}
	}
	return false
}

// CorrectOptionIDs возвращает множество правильных вариантов
func (q *Question) CorrectOptionIDs() map[uint]struct{} {
	ids := make(map[uint]struct{})
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			ids[q.Options[i].ID] = struct{}{}
		}
	}
	return ids
}

// SchemaViolations проверяет инварианты вопроса по его типу.
// Пустой результат означает, что вопрос корректен.
func (q *Question) SchemaViolations() []string {
	var problems []string
	if strings.TrimSpace(q.Text) == "" {
		problems = append(problems, "question text is required")
	}
	if !IsValidQuestionType(q.Type) {
		return append(problems, fmt.Sprintf("unknown question type %q", q.Type))
	}

	correct := 0
	for i := range q.Options {
		if strings.TrimSpace(q.Options[i].Text) == "" {
			problems = append(problems, fmt.Sprintf("option %d text is required", i+1))
		}
		if q.Options[i].IsCorrect {
			correct++
		}
	}

	switch q.Type {
	case QuestionTypeTrueFalse:
		if len(q.Options) != 2 {
			problems = append(problems, "true-false questions must have exactly 2 options")
		}
		if correct != 1 {
			problems = append(problems, "true-false questions must have exactly one correct option")
		}
	case QuestionTypeSingleSelect:
		if len(q.Options) < 2 {
			problems = append(problems, "single-select questions must have at least 2 options")
		}
		if correct != 1 {
			problems = append(problems, "single-select questions must have exactly one correct option")
		}
	case QuestionTypeMultiSelect:
		if len(q.Options) < 2 {
			problems = append(problems, "multi-select questions must have at least 2 options")
		}
		if correct < 1 {
			problems = append(problems, "multi-select questions must have at least one correct option")
		}
	}
	return problems
}
