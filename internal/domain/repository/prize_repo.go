package repository

import (
	"context"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// PrizeRepository определяет методы для работы с призами
type PrizeRepository interface {
	// CreateBatch возвращает apperrors.ErrConflict, если место в конкурсе уже занято призом
	CreateBatch(ctx context.Context, prizes []entity.Prize) error
	// ListByContest возвращает призы по возрастанию места, с загруженным победителем
	ListByContest(ctx context.Context, contestID uint) ([]entity.Prize, error)
	// LockByContest как ListByContest, но блокирует строки до конца транзакции
	LockByContest(ctx context.Context, contestID uint) ([]entity.Prize, error)
	LockByID(ctx context.Context, id uint) (*entity.Prize, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.Prize, error)
	Save(ctx context.Context, prize *entity.Prize) error
}
