package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

// PrizeRepo реализует repository.PrizeRepository
type PrizeRepo struct {
	db *gorm.DB
}

// NewPrizeRepo создает новый репозиторий призов
func NewPrizeRepo(db *gorm.DB) *PrizeRepo {
	return &PrizeRepo{db: db}
}

// CreateBatch создает призы конкурса одним запросом
func (r *PrizeRepo) CreateBatch(ctx context.Context, prizes []entity.Prize) error {
	if len(prizes) == 0 {
		return nil
	}
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(&prizes).Error)
}

// ListByContest возвращает призы конкурса по возрастанию места
func (r *PrizeRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Prize, error) {
	var prizes []entity.Prize
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("contest_id = ?", contestID).
		Order("rank ASC").
		Find(&prizes).Error
	if err != nil {
		return nil, err
	}
	return prizes, nil
}

// LockByContest блокирует призы конкурса до конца транзакции
func (r *PrizeRepo) LockByContest(ctx context.Context, contestID uint) ([]entity.Prize, error) {
	var prizes []entity.Prize
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contest_id = ?", contestID).
		Order("rank ASC").
		Find(&prizes).Error
	if err != nil {
		return nil, err
	}
	return prizes, nil
}

// LockByID блокирует приз до конца транзакции
func (r *PrizeRepo) LockByID(ctx context.Context, id uint) (*entity.Prize, error) {
	var prize entity.Prize
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&prize, id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &prize, nil
}

// ListByUser возвращает призы, присужденные пользователю
func (r *PrizeRepo) ListByUser(ctx context.Context, userID uint) ([]entity.Prize, error) {
	var prizes []entity.Prize
	err := r.db.WithContext(ctx).
		Preload("Contest").
		Where("user_id = ? AND awarded = ?", userID, true).
		Order("awarded_at DESC, id DESC").
		Find(&prizes).Error
	if err != nil {
		return nil, err
	}
	return prizes, nil
}

// Save сохраняет поля приза без ассоциаций
func (r *PrizeRepo) Save(ctx context.Context, prize *entity.Prize) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Save(prize).Error)
}
