package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

const rankingOrder = "p.score DESC, p.submitted_at ASC, p.id ASC"

// ParticipationRepo реализует repository.ParticipationRepository
type ParticipationRepo struct {
	db *gorm.DB
}

// NewParticipationRepo создает новый репозиторий участий
func NewParticipationRepo(db *gorm.DB) *ParticipationRepo {
	return &ParticipationRepo{db: db}
}

// Create создает участие. Повторная пара (user, contest) дает apperrors.ErrConflict.
func (r *ParticipationRepo) Create(ctx context.Context, p *entity.Participation) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

// GetByUserAndContest возвращает участие пользователя в конкурсе
func (r *ParticipationRepo) GetByUserAndContest(ctx context.Context, userID, contestID uint) (*entity.Participation, error) {
	var p entity.Participation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND contest_id = ?", userID, contestID).
		First(&p).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// LockInProgress выполняет SELECT ... FOR UPDATE по незавершенному участию
func (r *ParticipationRepo) LockInProgress(ctx context.Context, userID, contestID uint) (*entity.Participation, error) {
	var p entity.Participation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND contest_id = ? AND status = ?", userID, contestID, entity.ParticipationStatusInProgress).
		First(&p).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// MarkSubmitted условно переводит участие в submitted
func (r *ParticipationRepo) MarkSubmitted(ctx context.Context, id uint, score int, submittedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Participation{}).
		Where("id = ? AND status = ?", id, entity.ParticipationStatusInProgress).
		Updates(map[string]interface{}{
			"status":       entity.ParticipationStatusSubmitted,
			"score":        score,
			"submitted_at": submittedAt,
			"updated_at":   submittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CreateAnswers пакетно сохраняет ответы и выбранные варианты
func (r *ParticipationRepo) CreateAnswers(ctx context.Context, answers []entity.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return mapError(r.db.WithContext(ctx).Create(&answers).Error)
}

// CountAnswers возвращает количество сохраненных ответов участия
func (r *ParticipationRepo) CountAnswers(ctx context.Context, participationID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Answer{}).
		Where("participation_id = ?", participationID).
		Count(&count).Error
	return count, err
}

// ListRanked возвращает отправленные участия в порядке ранжирования.
// limit <= 0 возвращает все строки начиная с offset.
func (r *ParticipationRepo) ListRanked(ctx context.Context, contestID uint, limit, offset int) ([]repository.RankedParticipation, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	err := db.Model(&entity.Participation{}).
		Where("contest_id = ? AND status = ?", contestID, entity.ParticipationStatusSubmitted).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	query := db.Table("participations AS p").
		Select("p.id AS participation_id, p.user_id, u.username, p.score, p.submitted_at").
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.contest_id = ? AND p.status = ?", contestID, entity.ParticipationStatusSubmitted).
		Order(rankingOrder).
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []repository.RankedParticipation
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RankOf считает место участия: число участий строго выше в порядке ранжирования плюс один
func (r *ParticipationRepo) RankOf(ctx context.Context, p *entity.Participation) (int, error) {
	if !p.IsSubmitted() || p.SubmittedAt == nil {
		return 0, errors.New("rank is defined only for submitted participations")
	}
	var ahead int64
	err := r.db.WithContext(ctx).Model(&entity.Participation{}).
		Where("contest_id = ? AND status = ?", p.ContestID, entity.ParticipationStatusSubmitted).
		Where("score > ? OR (score = ? AND (submitted_at < ? OR (submitted_at = ? AND id < ?)))",
			p.Score, p.Score, *p.SubmittedAt, *p.SubmittedAt, p.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// ListByUser возвращает участия пользователя, последние обновленные первыми
func (r *ParticipationRepo) ListByUser(ctx context.Context, userID uint, status string, limit, offset int) ([]entity.Participation, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Participation{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var participations []entity.Participation
	err := query.Order("updated_at DESC, id DESC").Limit(limit).Offset(offset).Find(&participations).Error
	if err != nil {
		return nil, 0, err
	}
	return participations, total, nil
}

// ListInProgressByUser возвращает незавершенные участия вместе с конкурсами
func (r *ParticipationRepo) ListInProgressByUser(ctx context.Context, userID uint) ([]entity.Participation, error) {
	var participations []entity.Participation
	err := r.db.WithContext(ctx).
		Preload("Contest").
		Where("user_id = ? AND status = ?", userID, entity.ParticipationStatusInProgress).
		Order("started_at DESC").
		Find(&participations).Error
	if err != nil {
		return nil, err
	}
	return participations, nil
}

// ListUserIDsByContest возвращает всех участников конкурса
func (r *ParticipationRepo) ListUserIDsByContest(ctx context.Context, contestID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Participation{}).
		Where("contest_id = ?", contestID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// CountByContest возвращает количество участий в конкурсе
func (r *ParticipationRepo) CountByContest(ctx context.Context, contestID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Participation{}).
		Where("contest_id = ?", contestID).
		Count(&count).Error
	return count, err
}
