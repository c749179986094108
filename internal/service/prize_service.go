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
	"github.com/yourusername/contest-api/internal/metrics"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

const notifyTimeout = 10 * time.Second

// PrizeInput - приз за место при создании
type PrizeInput struct {
	Rank         int
	PrizeDetails string
}

// Winner - победитель, получивший приз
type Winner struct {
	UserID   uint
	Username string
	Score    int
}

// AwardedPrize - приз, присужденный в текущем вызове
type AwardedPrize struct {
	Prize  entity.Prize
	Winner Winner
}

// ContestPrizes - призы конкурса для просмотра
type ContestPrizes struct {
	ContestID   uint
	ContestName string
	Prizes      []entity.Prize
}

// PrizeService управляет призами конкурсов
type PrizeService struct {
	contestRepo repository.ContestRepository
	prizeRepo   repository.PrizeRepository
	userRepo    repository.UserRepository
	txManager   repository.TxManager
	notifier    Notifier
	now         clock
}

// NewPrizeService создает новый сервис призов
func NewPrizeService(
	contestRepo repository.ContestRepository,
	prizeRepo repository.PrizeRepository,
	userRepo repository.UserRepository,
	txManager repository.TxManager,
	notifier Notifier,
) *PrizeService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &PrizeService{
		contestRepo: contestRepo,
		prizeRepo:   prizeRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		notifier:    notifier,
		now:         time.Now,
	}
}

// CreateContestPrizes создает призы за места в конкурсе
func (s *PrizeService) CreateContestPrizes(ctx context.Context, principal Principal, contestID uint, inputs []PrizeInput) ([]entity.Prize, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, errAdminOnly()
	}
	if violations := prizeViolations(inputs); len(violations) > 0 {
		return nil, apperrors.Invalid(CodeInvalidPrizes, violations)
	}

	prizes := make([]entity.Prize, 0, len(inputs))
	for _, in := range inputs {
		prizes = append(prizes, entity.Prize{
			ContestID:    contestID,
			Rank:         in.Rank,
			PrizeDetails: strings.TrimSpace(in.PrizeDetails),
		})
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := store.Contests().GetByID(ctx, contestID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errContestNotFound()
			}
			return err
		}
		if err := store.Prizes().CreateBatch(ctx, prizes); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return apperrors.Conflict(CodePrizeExists, "A prize for one of these ranks already exists").WithCause(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[PrizeService] Для конкурса #%d создано призов: %d", contestID, len(prizes))
	return prizes, nil
}

// AwardContestPrizes присуждает призы лучшим участникам завершенного конкурса.
// Призы и участники сопоставляются по позиции; уже присужденные призы не меняются.
func (s *PrizeService) AwardContestPrizes(ctx context.Context, principal Principal, contestID uint) ([]AwardedPrize, error) {
	principal, err := withStoredRole(ctx, s.userRepo, principal)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, errAdminOnly()
	}

	var contestName string
	var awarded []AwardedPrize
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		contest, err := store.Contests().GetByID(ctx, contestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return errContestNotFound()
			}
			return err
		}
		contestName = contest.Name

		now := s.now()
		if !contest.HasEnded(now) {
			return apperrors.BadRequest(CodeContestNotEnded, "Prizes can only be awarded after the contest has ended")
		}

		prizes, err := store.Prizes().LockByContest(ctx, contestID)
		if err != nil {
			return err
		}
		if len(prizes) == 0 {
			return apperrors.BadRequest(CodeNoPrizes, "No prizes defined for this contest")
		}

		top, _, err := store.Participations().ListRanked(ctx, contestID, len(prizes), 0)
		if err != nil {
			return err
		}
		if len(top) == 0 {
			return apperrors.BadRequest(CodeNoParticipants, "No participants have submitted answers for this contest")
		}

		for i := range prizes {
			if i >= len(top) {
				break
			}
			prize := prizes[i]
			if prize.Awarded {
				continue
			}
			winner := top[i]
			prize.Award(winner.UserID, now)
			if err := store.Prizes().Save(ctx, &prize); err != nil {
				return fmt.Errorf("failed to award prize #%d: %w", prize.ID, err)
			}
			awarded = append(awarded, AwardedPrize{
				Prize:  prize,
				Winner: Winner{UserID: winner.UserID, Username: winner.Username, Score: winner.Score},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PrizesAwarded.Add(float64(len(awarded)))
	log.Printf("[PrizeService] Конкурс #%d: присуждено призов %d (администратор #%d)", contestID, len(awarded), principal.UserID)
	s.notifyWinners(ctx, contestName, awarded)
	return awarded, nil
}

// notifyWinners отправляет письма после фиксации; ошибки только логируются
func (s *PrizeService) notifyWinners(ctx context.Context, contestName string, awarded []AwardedPrize) {
	for _, a := range awarded {
		user, err := s.userRepo.GetByID(ctx, a.Winner.UserID)
		if err != nil {
			log.Printf("[PrizeService] Не удалось загрузить победителя #%d для уведомления: %v", a.Winner.UserID, err)
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		err = s.notifier.SendPrizeAwarded(sendCtx, PrizeAwardedEmail{
			To:             user.Email,
			Username:       user.Username,
			ContestName:    contestName,
			Rank:           a.Prize.Rank,
			PrizeDetails:   a.Prize.PrizeDetails,
			IdempotencyKey: fmt.Sprintf("prize-awarded-%d", a.Prize.ID),
		})
		cancel()
		if err != nil {
			log.Printf("[PrizeService] Ошибка отправки уведомления о призе #%d пользователю #%d: %v", a.Prize.ID, user.ID, err)
		}
	}
}

// GetContestPrizes возвращает призы конкурса по возрастанию места
func (s *PrizeService) GetContestPrizes(ctx context.Context, contestID uint) (*ContestPrizes, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errContestNotFound()
		}
		return nil, err
	}
	prizes, err := s.prizeRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	return &ContestPrizes{ContestID: contest.ID, ContestName: contest.Name, Prizes: prizes}, nil
}

// GetUserPrizes возвращает призы, выигранные вызывающим
func (s *PrizeService) GetUserPrizes(ctx context.Context, principal Principal) ([]entity.Prize, error) {
	prizes, err := s.prizeRepo.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	return prizes, nil
}

// ClaimPrize отмечает получение приза победителем. Переход необратим.
func (s *PrizeService) ClaimPrize(ctx context.Context, principal Principal, prizeID uint) (*entity.Prize, error) {
	var claimed *entity.Prize
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context, store repository.Store) error {
		prize, err := store.Prizes().LockByID(ctx, prizeID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound(CodePrizeNotFound, "Prize not found")
			}
			return err
		}
		if !prize.Awarded {
			return apperrors.BadRequest(CodePrizeNotAwarded, "Prize has not been awarded yet")
		}
		if !prize.IsWonBy(principal.UserID) {
			return apperrors.Forbidden(CodeAccessDenied, "Only the winner can claim this prize")
		}
		if prize.Claimed {
			return apperrors.BadRequest(CodeAlreadyClaimed, "Prize has already been claimed")
		}

		now := s.now()
		prize.Claimed = true
		prize.ClaimedAt = &now
		if err := store.Prizes().Save(ctx, prize); err != nil {
			return err
		}
		claimed = prize
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func prizeViolations(inputs []PrizeInput) []apperrors.Violation {
	if len(inputs) == 0 {
		return []apperrors.Violation{{Field: "prizes", Message: "at least one prize is required"}}
	}
	var v []apperrors.Violation
	seen := make(map[int]bool, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("prizes[%d]", i)
		if in.Rank < 1 {
			v = append(v, apperrors.Violation{Field: field + ".rank", Message: "rank must be a positive integer"})
		} else if seen[in.Rank] {
			v = append(v, apperrors.Violation{Field: field + ".rank", Message: fmt.Sprintf("rank %d is listed more than once", in.Rank)})
		}
		seen[in.Rank] = true
		if strings.TrimSpace(in.PrizeDetails) == "" {
			v = append(v, apperrors.Violation{Field: field + ".prize_details", Message: "prize details are required"})
		}
	}
	return v
}
