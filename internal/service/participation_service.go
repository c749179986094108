package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	"github.com/yourusername/contest-api/internal/metrics"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/service/grading"
)

// JoinResult - результат присоединения к конкурсу
type JoinResult struct {
	Participation entity.Participation
	QuestionCount int
	// Created - false, если возвращено уже существующее участие
	Created bool
}

// SubmitResult - результат отправки ответов
type SubmitResult struct {
	ParticipationID uint
	ContestID       uint
	Status          string
	Score           int
	TotalQuestions  int
	StartedAt       time.Time
	SubmittedAt     time.Time
}

// ContestScore - результат пользователя в конкурсе
type ContestScore struct {
	ContestID   uint
	ContestName string
	Score       int
	Status      string
	SubmittedAt *time.Time
}

// ActiveParticipation - незавершенное участие в идущем конкурсе
type ActiveParticipation struct {
	ID          uint
	ContestID   uint
	ContestName string
	Description string
	StartedAt   time.Time
	EndsAt      time.Time
}

// ParticipationService управляет жизненным циклом участия: join -> in-progress -> submitted
type ParticipationService struct {
	contestRepo       repository.ContestRepository
	participationRepo repository.ParticipationRepository
	txManager         repository.TxManager
	invalidator       cacheInvalidator
	now               clock
}

// NewParticipationService создает новый сервис участий
func NewParticipationService(
	contestRepo repository.ContestRepository,
	participationRepo repository.ParticipationRepository,
	txManager repository.TxManager,
	invalidator cacheInvalidator,
) *ParticipationService {
	return &ParticipationService{
		contestRepo:       contestRepo,
		participationRepo: participationRepo,
		txManager:         txManager,
		invalidator:       invalidator,
		now:               time.Now,
	}
}

// JoinContest создает участие или возвращает существующее незавершенное
func (s *ParticipationService) JoinContest(ctx context.Context, principal Principal, contestID uint) (*JoinResult, error) {
	var result *JoinResult
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		user, contest, err := loadCaller(ctx, store, principal, contestID)
		if err != nil {
			return err
		}
		if err := checkAccess(contest, user.Role); err != nil {
			return err
		}

		now := s.now()
		if now.Before(contest.StartTime) {
			return apperrors.BadRequest(CodeContestNotStarted, "Contest has not started yet")
		}
		if contest.HasEnded(now) {
			return apperrors.BadRequest(CodeContestEnded, "Contest has already ended")
		}

		questionCount, err := store.Contests().CountQuestions(ctx, contestID)
		if err != nil {
			return err
		}

		existing, err := store.Participations().GetByUserAndContest(ctx, user.ID, contestID)
		switch {
		case err == nil:
			if existing.IsSubmitted() {
				return errAlreadySubmitted()
			}
			result = &JoinResult{Participation: *existing, QuestionCount: int(questionCount)}
			return nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		p := &entity.Participation{
			UserID:    user.ID,
			ContestID: contestID,
			Status:    entity.ParticipationStatusInProgress,
			Score:     0,
			StartedAt: now,
		}
		if err := store.Participations().Create(ctx, p); err != nil {
			return err
		}
		result = &JoinResult{Participation: *p, QuestionCount: int(questionCount), Created: true}
		return nil
	})

	if err != nil && isStorageConflict(err) {
		// Параллельный join успел вставить строку; транзакция откачена, читаем победителя.
		result, err = s.resolveJoinConflict(ctx, principal.UserID, contestID)
	}
	if err != nil {
		metrics.ParticipationEvents.WithLabelValues("join", outcomeOf(err)).Inc()
		return nil, err
	}

	outcome := "existing"
	if result.Created {
		outcome = "created"
		log.Printf("[ParticipationService] Пользователь #%d присоединился к конкурсу #%d (участие #%d)",
			principal.UserID, contestID, result.Participation.ID)
	}
	metrics.ParticipationEvents.WithLabelValues("join", outcome).Inc()
	return result, nil
}

func (s *ParticipationService) resolveJoinConflict(ctx context.Context, userID, contestID uint) (*JoinResult, error) {
	existing, err := s.participationRepo.GetByUserAndContest(ctx, userID, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Conflict(CodeParticipationExists, "Participation is being created concurrently, retry")
		}
		return nil, err
	}
	if existing.IsSubmitted() {
		return nil, errAlreadySubmitted()
	}
	count, err := s.contestRepo.CountQuestions(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return &JoinResult{Participation: *existing, QuestionCount: int(count)}, nil
}

// SubmitAnswers проверяет, оценивает и сохраняет ответы в одной транзакции.
// После фиксации сбрасывает кеш рейтинга конкурса и историю пользователя.
func (s *ParticipationService) SubmitAnswers(ctx context.Context, principal Principal, contestID uint, answers []grading.SubmittedAnswer) (*SubmitResult, error) {
	var result *SubmitResult
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		user, err := loadUser(ctx, store, principal)
		if err != nil {
			return err
		}
		contest, err := store.Contests().GetWithQuestions(ctx, contestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errContestNotFound()
			}
			return err
		}
		if err := checkAccess(contest, user.Role); err != nil {
			return err
		}

		participation, err := store.Participations().LockInProgress(ctx, user.ID, contestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errActiveParticipationNotFound()
			}
			return err
		}

		now := s.now()
		if contest.HasEnded(now) {
			return apperrors.BadRequest(CodeContestEnded, "Contest has already ended")
		}

		graded, err := grading.Grade(contest.Questions, answers)
		if err != nil {
			return err
		}

		rows := make([]entity.Answer, 0, len(graded.Answers))
		for _, a := range graded.Answers {
			opts := make([]entity.AnswerOption, 0, len(a.OptionIDs))
			for _, optID := range a.OptionIDs {
				opts = append(opts, entity.AnswerOption{OptionID: optID})
			}
			rows = append(rows, entity.Answer{
				ParticipationID: participation.ID,
				QuestionID:      a.QuestionID,
				IsCorrect:       a.IsCorrect,
				Options:         opts,
			})
		}
		if err := store.Participations().CreateAnswers(ctx, rows); err != nil {
			return fmt.Errorf("failed to save answers: %w", err)
		}

		if err := store.Participations().MarkSubmitted(ctx, participation.ID, graded.Score, now); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errActiveParticipationNotFound()
			}
			return err
		}

		result = &SubmitResult{
			ParticipationID: participation.ID,
			ContestID:       contestID,
			Status:          entity.ParticipationStatusSubmitted,
			Score:           graded.Score,
			TotalQuestions:  graded.TotalQuestions,
			StartedAt:       participation.StartedAt,
			SubmittedAt:     now,
		}
		return nil
	})
	if err != nil {
		metrics.ParticipationEvents.WithLabelValues("submit", outcomeOf(err)).Inc()
		return nil, err
	}

	s.invalidator.InvalidateContest(ctx, contestID)
	s.invalidator.InvalidateUserHistory(ctx, principal.UserID)

	metrics.ParticipationEvents.WithLabelValues("submit", "submitted").Inc()
	log.Printf("[ParticipationService] Пользователь #%d отправил ответы в конкурсе #%d: %d/%d",
		principal.UserID, contestID, result.Score, result.TotalQuestions)
	return result, nil
}

// GetUserContestScore возвращает результат вызывающего в конкурсе
func (s *ParticipationService) GetUserContestScore(ctx context.Context, principal Principal, contestID uint) (*ContestScore, error) {
	p, err := s.participationRepo.GetByUserAndContest(ctx, principal.UserID, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(CodeParticipationNotFound, "You have not participated in this contest")
		}
		return nil, err
	}
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errContestNotFound()
		}
		return nil, err
	}
	return &ContestScore{
		ContestID:   contestID,
		ContestName: contest.Name,
		Score:       p.Score,
		Status:      p.Status,
		SubmittedAt: p.SubmittedAt,
	}, nil
}

// GetActiveParticipations возвращает незавершенные участия в еще не закончившихся конкурсах
func (s *ParticipationService) GetActiveParticipations(ctx context.Context, principal Principal) ([]ActiveParticipation, error) {
	participations, err := s.participationRepo.ListInProgressByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}

	now := s.now()
	out := make([]ActiveParticipation, 0, len(participations))
	for _, p := range participations {
		if p.Contest == nil || p.Contest.HasEnded(now) {
			continue
		}
		out = append(out, ActiveParticipation{
			ID:          p.ID,
			ContestID:   p.ContestID,
			ContestName: p.Contest.Name,
			Description: p.Contest.Description,
			StartedAt:   p.StartedAt,
			EndsAt:      p.Contest.EndTime,
		})
	}
	return out, nil
}

func loadUser(ctx context.Context, store repository.Store, principal Principal) (*entity.User, error) {
	user, err := store.Users().GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errUserNotFound()
		}
		return nil, err
	}
	return user, nil
}

func loadCaller(ctx context.Context, store repository.Store, principal Principal, contestID uint) (*entity.User, *entity.Contest, error) {
	user, err := loadUser(ctx, store, principal)
	if err != nil {
		return nil, nil, err
	}
	contest, err := store.Contests().GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, errContestNotFound()
		}
		return nil, nil, err
	}
	return user, contest, nil
}

func checkAccess(contest *entity.Contest, role string) error {
	if !contest.CanAccess(role) {
		return apperrors.Forbidden(CodeAccessDenied, "This contest is only available to VIP users")
	}
	return nil
}

// isStorageConflict отличает нарушение уникальности в хранилище от конфликтов бизнес-логики
func isStorageConflict(err error) bool {
	var appErr *apperrors.AppError
	return errors.Is(err, apperrors.ErrConflict) && !errors.As(err, &appErr)
}

func errAlreadySubmitted() error {
	return apperrors.BadRequest(CodeAlreadySubmitted, "You have already submitted answers for this contest")
}

func errActiveParticipationNotFound() error {
	return apperrors.NotFound(CodeParticipationNotFound, "Active participation not found")
}

func outcomeOf(err error) string {
	return apperrors.Convert(err).Kind.String()
}
