package repository

import (
	"context"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// RankedParticipation - строка лидерборда в порядке ранжирования
type RankedParticipation struct {
	ParticipationID uint
	UserID          uint
	Username        string
	Score           int
	SubmittedAt     time.Time
}

// ParticipationRepository определяет методы для работы с участиями и ответами.
//
// Порядок ранжирования везде один: score DESC, submitted_at ASC, id ASC.
type ParticipationRepository interface {
	// Create возвращает apperrors.ErrConflict при нарушении уникальности (user, contest)
	Create(ctx context.Context, p *entity.Participation) error
	GetByUserAndContest(ctx context.Context, userID, contestID uint) (*entity.Participation, error)
	// LockInProgress блокирует незавершенное участие до конца транзакции.
	// apperrors.ErrNotFound, если такого участия нет.
	LockInProgress(ctx context.Context, userID, contestID uint) (*entity.Participation, error)
	// MarkSubmitted переводит участие в submitted только из in-progress.
	// apperrors.ErrNotFound, если участие уже не in-progress.
	MarkSubmitted(ctx context.Context, id uint, score int, submittedAt time.Time) error
	// CreateAnswers сохраняет ответы вместе с выбранными вариантами
	CreateAnswers(ctx context.Context, answers []entity.Answer) error
	CountAnswers(ctx context.Context, participationID uint) (int64, error)

	// ListRanked возвращает отправленные участия конкурса в порядке ранжирования и их общее число
	ListRanked(ctx context.Context, contestID uint, limit, offset int) ([]RankedParticipation, int64, error)
	// RankOf вычисляет место отправленного участия в конкурсе
	RankOf(ctx context.Context, p *entity.Participation) (int, error)

	ListByUser(ctx context.Context, userID uint, status string, limit, offset int) ([]entity.Participation, int64, error)
	// ListInProgressByUser возвращает незавершенные участия с загруженным конкурсом
	ListInProgressByUser(ctx context.Context, userID uint) ([]entity.Participation, error)
	ListUserIDsByContest(ctx context.Context, contestID uint) ([]uint, error)
	CountByContest(ctx context.Context, contestID uint) (int64, error)
}
