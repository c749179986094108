package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// cacheInvalidator сбрасывает закешированные рейтинги и истории после изменений
type cacheInvalidator interface {
	InvalidateContest(ctx context.Context, contestID uint)
	InvalidateUserHistory(ctx context.Context, userID uint)
}

// OptionInput - вариант ответа при создании вопроса
type OptionInput struct {
	Text      string
	IsCorrect bool
}

// QuestionInput - вопрос при создании или замене вопросов конкурса
type QuestionInput struct {
	Text    string
	Type    string
	Options []OptionInput
}

// CreateContestInput - данные для создания конкурса
type CreateContestInput struct {
	Name             string
	Description      string
	StartTime        time.Time
	EndTime          time.Time
	AccessLevel      string
	PrizeInformation string
	Questions        []QuestionInput
}

// UpdateContestInput - частичное обновление; nil означает "не менять"
type UpdateContestInput struct {
	Name             *string
	Description      *string
	StartTime        *time.Time
	EndTime          *time.Time
	AccessLevel      *string
	PrizeInformation *string
	Questions        []QuestionInput
}

// ContestWithStatus - конкурс и его статус на момент чтения
type ContestWithStatus struct {
	Contest entity.Contest
	Status  string
}

// ContestDetails - конкурс с вопросами для просмотра
type ContestDetails struct {
	ContestWithStatus
	// ShowAnswers разрешает показывать признак правильности вариантов
	ShowAnswers bool
}

// ContestService предоставляет каталог конкурсов и управление ими
type ContestService struct {
	contestRepo       repository.ContestRepository
	participationRepo repository.ParticipationRepository
	userRepo          repository.UserRepository
	txManager         repository.TxManager
	invalidator       cacheInvalidator
	now               clock
}

// NewContestService создает новый сервис конкурсов
func NewContestService(
	contestRepo repository.ContestRepository,
	participationRepo repository.ParticipationRepository,
	userRepo repository.UserRepository,
	txManager repository.TxManager,
	invalidator cacheInvalidator,
) *ContestService {
	return &ContestService{
		contestRepo:       contestRepo,
		participationRepo: participationRepo,
		userRepo:          userRepo,
		txManager:         txManager,
		invalidator:       invalidator,
		now:               time.Now,
	}
}

// CreateContest создает конкурс вместе с вопросами
func (s *ContestService) CreateContest(ctx context.Context, principal Principal, in CreateContestInput) (*entity.Contest, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, errAdminOnly()
	}

	contest := &entity.Contest{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		AccessLevel:      in.AccessLevel,
		PrizeInformation: in.PrizeInformation,
		CreatorID:        principal.UserID,
		Questions:        buildQuestions(in.Questions),
	}
	if contest.AccessLevel == "" {
		contest.AccessLevel = entity.AccessLevelNormal
	}

	violations := contestViolations(contest)
	violations = append(violations, questionViolations(contest.Questions)...)
	if len(violations) > 0 {
		return nil, apperrors.Invalid(CodeInvalidContest, violations)
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		return store.Contests().Create(ctx, contest)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}

	log.Printf("[ContestService] Конкурс #%d создан администратором #%d (%d вопросов)", contest.ID, principal.UserID, len(contest.Questions))
	return contest, nil
}

// UpdateContest частично обновляет конкурс.
// Инвариант StartTime < EndTime проверяется для итогового состояния при любом обновлении.
func (s *ContestService) UpdateContest(ctx context.Context, principal Principal, contestID uint, in UpdateContestInput) (*entity.Contest, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, errAdminOnly()
	}

	var updated *entity.Contest
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		contest, err := store.Contests().GetByID(ctx, contestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errContestNotFound()
			}
			return err
		}

		applyContestUpdate(contest, in)
		violations := contestViolations(contest)

		var questions []entity.Question
		if in.Questions != nil {
			questions = buildQuestions(in.Questions)
			violations = append(violations, questionViolations(questions)...)
		}
		if len(violations) > 0 {
			return apperrors.Invalid(CodeInvalidContest, violations)
		}

		if in.Questions != nil {
			if contest.StatusAt(s.now()) != entity.ContestStatusUpcoming {
				return apperrors.Conflict(CodeContestLocked, "Questions can only be replaced before the contest starts")
			}
			joined, err := store.Participations().CountByContest(ctx, contestID)
			if err != nil {
				return err
			}
			if joined > 0 {
				return apperrors.Conflict(CodeContestLocked, "Questions cannot be replaced after users have joined")
			}
			if err := store.Contests().ReplaceQuestions(ctx, contestID, questions); err != nil {
				return err
			}
			contest.Questions = questions
		}

		if err := store.Contests().Update(ctx, contest); err != nil {
			return err
		}
		updated = contest
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.InvalidateContest(ctx, contestID)
	return updated, nil
}

// DeleteContest удаляет конкурс со всеми зависимыми данными
func (s *ContestService) DeleteContest(ctx context.Context, principal Principal, contestID uint) error {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return errAdminOnly()
	}

	var participants []uint
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := store.Contests().GetByID(ctx, contestID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errContestNotFound()
			}
			return err
		}
		ids, err := store.Participations().ListUserIDsByContest(ctx, contestID)
		if err != nil {
			return err
		}
		participants = ids
		return store.Contests().Delete(ctx, contestID)
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateContest(ctx, contestID)
	for _, userID := range participants {
		s.invalidator.InvalidateUserHistory(ctx, userID)
	}
	log.Printf("[ContestService] Конкурс #%d удален администратором #%d", contestID, principal.UserID)
	return nil
}

// ListContests возвращает конкурсы, видимые вызывающему.
// admin и vip видят все уровни доступа, остальные только normal.
func (s *ContestService) ListContests(ctx context.Context, principal Principal, status, accessLevel string, page Page) ([]ContestWithStatus, Pagination, error) {
	if status != "" && !entity.IsValidContestStatus(status) {
		return nil, Pagination{}, apperrors.BadRequest(CodeInvalidContest, "Unknown contest status %q", status)
	}
	if accessLevel != "" && !entity.IsValidAccessLevel(accessLevel) {
		return nil, Pagination{}, apperrors.BadRequest(CodeInvalidContest, "Unknown access level %q", accessLevel)
	}
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, Pagination{}, err
	}

	visible := []string{entity.AccessLevelNormal}
	if principal.Role == entity.RoleAdmin || principal.Role == entity.RoleVIP {
		visible = []string{entity.AccessLevelNormal, entity.AccessLevelVIP}
	}
	levels := visible
	if accessLevel != "" {
		levels = nil
		for _, l := range visible {
			if l == accessLevel {
				levels = append(levels, l)
			}
		}
		if len(levels) == 0 {
			return []ContestWithStatus{}, NewPagination(0, page), nil
		}
	}

	now := s.now()
	contests, total, err := s.contestRepo.List(ctx, repository.ContestFilter{
		AccessLevels: levels,
		Status:       status,
		Now:          now,
	}, page.Limit, page.Offset())
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to list contests: %w", err)
	}

	out := make([]ContestWithStatus, 0, len(contests))
	for _, c := range contests {
		out = append(out, ContestWithStatus{Contest: c, Status: c.StatusAt(now)})
	}
	return out, NewPagination(total, page), nil
}

// GetContest возвращает конкурс с вопросами.
// VIP-конкурс доступен только ролям vip и admin.
func (s *ContestService) GetContest(ctx context.Context, principal Principal, contestID uint) (*ContestDetails, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	contest, err := s.contestRepo.GetWithQuestions(ctx, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errContestNotFound()
		}
		return nil, err
	}
	if !contest.CanAccess(principal.Role) {
		return nil, apperrors.Forbidden(CodeAccessDenied, "This contest is only available to VIP users")
	}
	return &ContestDetails{
		ContestWithStatus: ContestWithStatus{Contest: *contest, Status: contest.StatusAt(s.now())},
		ShowAnswers:       principal.IsAdmin(),
	}, nil
}

func applyContestUpdate(c *entity.Contest, in UpdateContestInput) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.StartTime != nil {
		c.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		c.EndTime = *in.EndTime
	}
	if in.AccessLevel != nil {
		c.AccessLevel = *in.AccessLevel
	}
	if in.PrizeInformation != nil {
		c.PrizeInformation = *in.PrizeInformation
	}
}

func buildQuestions(in []QuestionInput) []entity.Question {
	questions := make([]entity.Question, 0, len(in))
	for i, q := range in {
		options := make([]entity.Option, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, entity.Option{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		questions = append(questions, entity.Question{
			Text:     strings.TrimSpace(q.Text),
			Type:     q.Type,
			Position: i,
			Options:  options,
		})
	}
	return questions
}

func contestViolations(c *entity.Contest) []apperrors.Violation {
	var v []apperrors.Violation
	if c.Name == "" {
		v = append(v, apperrors.Violation{Field: "name", Message: "name is required"})
	}
	if c.StartTime.IsZero() || c.EndTime.IsZero() {
		v = append(v, apperrors.Violation{Field: "start_time", Message: "start_time and end_time are required"})
	} else if !c.HasValidWindow() {
		v = append(v, apperrors.Violation{Field: "end_time", Message: "end_time must be after start_time"})
	}
	if !entity.IsValidAccessLevel(c.AccessLevel) {
		v = append(v, apperrors.Violation{Field: "access_level", Message: fmt.Sprintf("unknown access level %q", c.AccessLevel)})
	}
	return v
}

func questionViolations(questions []entity.Question) []apperrors.Violation {
	var v []apperrors.Violation
	switch {
	case len(questions) == 0:
		v = append(v, apperrors.Violation{Field: "questions", Message: "at least one question is required"})
	case len(questions) > entity.MaxQuestionsPerContest:
		v = append(v, apperrors.Violation{
			Field:   "questions",
			Message: fmt.Sprintf("a contest can have at most %d questions", entity.MaxQuestionsPerContest),
		})
	}
	for i := range questions {
		for _, problem := range questions[i].SchemaViolations() {
			v = append(v, apperrors.Violation{Field: fmt.Sprintf("questions[%d]", i), Message: problem})
		}
	}
	return v
}
