package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// ContestRepo реализует repository.ContestRepository
type ContestRepo struct {
	db *gorm.DB
}

// NewContestRepo создает новый репозиторий конкурсов
func NewContestRepo(db *gorm.DB) *ContestRepo {
	return &ContestRepo{db: db}
}

// Create создает конкурс; вопросы и варианты сохраняются ассоциациями GORM
func (r *ContestRepo) Create(ctx context.Context, contest *entity.Contest) error {
	return mapError(r.db.WithContext(ctx).Create(contest).Error)
}

// GetByID возвращает конкурс без вопросов
func (r *ContestRepo) GetByID(ctx context.Context, id uint) (*entity.Contest, error) {
	var contest entity.Contest
	if err := r.db.WithContext(ctx).First(&contest, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &contest, nil
}

// GetWithQuestions возвращает конкурс вместе с вопросами и вариантами
func (r *ContestRepo) GetWithQuestions(ctx context.Context, id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&contest, id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &contest, nil
}

// GetByIDs возвращает конкурсы по списку ID (отсутствующие пропускаются)
func (r *ContestRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Contest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var contests []entity.Contest
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// List возвращает страницу конкурсов по фильтру, новые по времени начала первыми
func (r *ContestRepo) List(ctx context.Context, filter repository.ContestFilter, limit, offset int) ([]entity.Contest, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Contest{})
	if len(filter.AccessLevels) > 0 {
		query = query.Where("access_level IN ?", filter.AccessLevels)
	}
	switch filter.Status {
	case entity.ContestStatusUpcoming:
		query = query.Where("start_time > ?", filter.Now)
	case entity.ContestStatusOngoing:
		query = query.Where("start_time <= ? AND end_time > ?", filter.Now, filter.Now)
	case entity.ContestStatusEnded:
		query = query.Where("end_time <= ?", filter.Now)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contests []entity.Contest
	err := query.Order("start_time DESC, id DESC").Limit(limit).Offset(offset).Find(&contests).Error
	if err != nil {
		return nil, 0, err
	}
	return contests, total, nil
}

// CountQuestions возвращает количество вопросов конкурса
func (r *ContestRepo) CountQuestions(ctx context.Context, contestID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Question{}).Where("contest_id = ?", contestID).Count(&count).Error
	return count, err
}

// Update сохраняет скалярные поля конкурса, не трогая вопросы
func (r *ContestRepo) Update(ctx context.Context, contest *entity.Contest) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(contest)
	if result.Error != nil {
		return mapError(result.Error)
	}
	return nil
}

// ReplaceQuestions заменяет набор вопросов конкурса.
// Варианты старых вопросов удаляются каскадно внешним ключом.
func (r *ContestRepo) ReplaceQuestions(ctx context.Context, contestID uint, questions []entity.Question) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("contest_id = ?", contestID).Delete(&entity.Question{}).Error; err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].ContestID = contestID
	}
	return mapError(db.Create(&questions).Error)
}

// Delete удаляет конкурс; вопросы, участия и призы удаляются каскадно
func (r *ContestRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Contest{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
