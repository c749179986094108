package repository

import (
	"context"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// ContestFilter задает условия выборки списка конкурсов
type ContestFilter struct {
	// AccessLevels ограничивает видимые уровни доступа. Пустой срез - без ограничений.
	AccessLevels []string
	// Status - вычисляемый статус (upcoming/ongoing/ended) относительно Now
	Status string
	Now    time.Time
}

// ContestRepository определяет методы для работы с конкурсами и их вопросами
type ContestRepository interface {
	// Create сохраняет конкурс вместе с вопросами и вариантами
	Create(ctx context.Context, contest *entity.Contest) error
	GetByID(ctx context.Context, id uint) (*entity.Contest, error)
	// GetWithQuestions загружает вопросы (по Position) и их варианты
	GetWithQuestions(ctx context.Context, id uint) (*entity.Contest, error)
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Contest, error)
	List(ctx context.Context, filter ContestFilter, limit, offset int) ([]entity.Contest, int64, error)
	CountQuestions(ctx context.Context, contestID uint) (int64, error)
	Update(ctx context.Context, contest *entity.Contest) error
	// ReplaceQuestions удаляет старые вопросы конкурса и создает новые
	ReplaceQuestions(ctx context.Context, contestID uint, questions []entity.Question) error
	Delete(ctx context.Context, id uint) error
}
