package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	"github.com/yourusername/contest-api/internal/metrics"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// CacheTTL задает время жизни закешированных представлений
type CacheTTL struct {
	LeaderboardOngoing time.Duration
	LeaderboardEnded   time.Duration
	History            time.Duration
}

// DefaultCacheTTL: минута для идущего конкурса, час для завершенного, пять минут для истории
func DefaultCacheTTL() CacheTTL {
	return CacheTTL{
		LeaderboardOngoing: time.Minute,
		LeaderboardEnded:   time.Hour,
		History:            5 * time.Minute,
	}
}

// ContestRef - краткое описание конкурса в ответах
type ContestRef struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// RankingEntry - строка рейтинга
type RankingEntry struct {
	Rank        int       `json:"rank"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Leaderboard - страница рейтинга конкурса
type Leaderboard struct {
	Contest    ContestRef
	Pagination Pagination
	Rankings   []RankingEntry
}

// HistoryEntry - участие пользователя в истории
type HistoryEntry struct {
	ID          uint
	ContestID   uint
	ContestName string
	Status      string
	Score       int
	// Rank равен nil для незавершенного участия
	Rank        *int
	SubmittedAt *time.Time
}

// History - страница истории участий
type History struct {
	Pagination Pagination
	Entries    []HistoryEntry
}

// leaderboardPage - закешированная часть рейтинга, без данных конкурса
type leaderboardPage struct {
	Total    int64          `json:"total"`
	Rankings []RankingEntry `json:"rankings"`
}

type historyRow struct {
	ID          uint       `json:"id"`
	ContestID   uint       `json:"contest_id"`
	Status      string     `json:"status"`
	Score       int        `json:"score"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// historyPage - закешированная страница истории. Ранги и названия конкурсов
// сюда не входят: они зависят от чужих отправок и читаются отдельно.
type historyPage struct {
	Total int64        `json:"total"`
	Rows  []historyRow `json:"rows"`
}

// LeaderboardService строит рейтинги и истории участий поверх кеша
type LeaderboardService struct {
	contestRepo       repository.ContestRepository
	participationRepo repository.ParticipationRepository
	cache             repository.CacheRepository
	ttl               CacheTTL
	group             singleflight.Group
	now               clock
}

// NewLeaderboardService создает новый сервис рейтингов
func NewLeaderboardService(
	contestRepo repository.ContestRepository,
	participationRepo repository.ParticipationRepository,
	cache repository.CacheRepository,
	ttl CacheTTL,
) *LeaderboardService {
	return &LeaderboardService{
		contestRepo:       contestRepo,
		participationRepo: participationRepo,
		cache:             cache,
		ttl:               ttl,
		now:               time.Now,
	}
}

func (s *LeaderboardService) leaderboardTTL(status string) time.Duration {
	if status == entity.ContestStatusEnded {
		return s.ttl.LeaderboardEnded
	}
	return s.ttl.LeaderboardOngoing
}

// GetContestLeaderboard возвращает страницу рейтинга: score по убыванию,
// при равенстве раньше отправивший выше. Rank = offset + index + 1.
func (s *LeaderboardService) GetContestLeaderboard(ctx context.Context, contestID uint, page Page) (*Leaderboard, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errContestNotFound()
		}
		return nil, err
	}
	status := contest.StatusAt(s.now())

	key := repository.NewCacheKey(repository.LeaderboardNamespace(contestID), "page", page.Page, "limit", page.Limit)
	var cached leaderboardPage
	if s.readCache(ctx, key, &cached) {
		return s.leaderboardFrom(contest, status, page, cached), nil
	}

	// Общая загрузка не должна обрываться, если первый из ожидающих клиентов отключился
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key.String(), func() (interface{}, error) {
		gen, cacheable := s.generation(loadCtx, key.Namespace)
		rows, total, err := s.participationRepo.ListRanked(loadCtx, contestID, page.Limit, page.Offset())
		if err != nil {
			return nil, err
		}
		lp := leaderboardPage{Total: total, Rankings: rankRows(rows, page.Offset())}
		if cacheable {
			s.writeCache(loadCtx, key, gen, lp, s.leaderboardTTL(status))
		}
		return lp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return s.leaderboardFrom(contest, status, page, v.(leaderboardPage)), nil
}

func (s *LeaderboardService) leaderboardFrom(contest *entity.Contest, status string, page Page, lp leaderboardPage) *Leaderboard {
	rankings := lp.Rankings
	if rankings == nil {
		rankings = []RankingEntry{}
	}
	return &Leaderboard{
		Contest:    ContestRef{ID: contest.ID, Name: contest.Name, Status: status},
		Pagination: NewPagination(lp.Total, page),
		Rankings:   rankings,
	}
}

// ExportLeaderboard возвращает полный рейтинг конкурса без кеша
func (s *LeaderboardService) ExportLeaderboard(ctx context.Context, contestID uint) (*entity.Contest, []RankingEntry, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, errContestNotFound()
		}
		return nil, nil, err
	}
	rows, _, err := s.participationRepo.ListRanked(ctx, contestID, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return contest, rankRows(rows, 0), nil
}

// GetUserContestHistory возвращает участия пользователя, последние обновленные первыми.
// Для отправленных участий вычисляется место в конкурсе.
func (s *LeaderboardService) GetUserContestHistory(ctx context.Context, principal Principal, page Page, status string) (*History, error) {
	if status != "" && !entity.IsValidParticipationStatus(status) {
		return nil, apperrors.BadRequest("VALIDATION_ERROR", "Unknown participation status %q", status)
	}

	key := repository.NewCacheKey(repository.HistoryNamespace(principal.UserID),
		"page", page.Page, "limit", page.Limit, "status", status)
	var hp historyPage
	if !s.readCache(ctx, key, &hp) {
		gen, cacheable := s.generation(ctx, key.Namespace)
		participations, total, err := s.participationRepo.ListByUser(ctx, principal.UserID, status, page.Limit, page.Offset())
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		hp = historyPage{Total: total, Rows: make([]historyRow, 0, len(participations))}
		for _, p := range participations {
			hp.Rows = append(hp.Rows, historyRow{
				ID:          p.ID,
				ContestID:   p.ContestID,
				Status:      p.Status,
				Score:       p.Score,
				SubmittedAt: p.SubmittedAt,
			})
		}
		if cacheable {
			s.writeCache(ctx, key, gen, hp, s.ttl.History)
		}
	}

	contests, err := s.contestsByID(ctx, hp.Rows)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]HistoryEntry, 0, len(hp.Rows))
	for _, row := range hp.Rows {
		entry := HistoryEntry{
			ID:          row.ID,
			ContestID:   row.ContestID,
			Status:      row.Status,
			Score:       row.Score,
			SubmittedAt: row.SubmittedAt,
		}
		contest, ok := contests[row.ContestID]
		if ok {
			entry.ContestName = contest.Name
		}
		if row.Status == entity.ParticipationStatusSubmitted && row.SubmittedAt != nil {
			contestStatus := entity.ContestStatusEnded
			if ok {
				contestStatus = contest.StatusAt(now)
			}
			rank, err := s.rankOf(ctx, principal.UserID, row, contestStatus)
			if err != nil {
				return nil, err
			}
			entry.Rank = &rank
		}
		entries = append(entries, entry)
	}

	return &History{Pagination: NewPagination(hp.Total, page), Entries: entries}, nil
}

// rankOf кеширует место участия в пространстве имен рейтинга конкурса,
// поэтому любая отправка в этот конкурс его сбрасывает.
func (s *LeaderboardService) rankOf(ctx context.Context, userID uint, row historyRow, contestStatus string) (int, error) {
	key := repository.NewCacheKey(repository.LeaderboardNamespace(row.ContestID), "rank", row.ID)
	var rank int
	if s.readCache(ctx, key, &rank) {
		return rank, nil
	}
	gen, cacheable := s.generation(ctx, key.Namespace)
	rank, err := s.participationRepo.RankOf(ctx, &entity.Participation{
		ID:          row.ID,
		UserID:      userID,
		ContestID:   row.ContestID,
		Status:      row.Status,
		Score:       row.Score,
		SubmittedAt: row.SubmittedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	if cacheable {
		s.writeCache(ctx, key, gen, rank, s.leaderboardTTL(contestStatus))
	}
	return rank, nil
}

func (s *LeaderboardService) contestsByID(ctx context.Context, rows []historyRow) (map[uint]entity.Contest, error) {
	ids := make([]uint, 0, len(rows))
	seen := make(map[uint]bool, len(rows))
	for _, r := range rows {
		if !seen[r.ContestID] {
			seen[r.ContestID] = true
			ids = append(ids, r.ContestID)
		}
	}
	contests, err := s.contestRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load contests: %w", err)
	}
	byID := make(map[uint]entity.Contest, len(contests))
	for _, c := range contests {
		byID[c.ID] = c
	}
	return byID, nil
}

// InvalidateContest сбрасывает все закешированные страницы и места конкурса
func (s *LeaderboardService) InvalidateContest(ctx context.Context, contestID uint) {
	if err := s.cache.InvalidateNamespace(ctx, repository.LeaderboardNamespace(contestID)); err != nil {
		log.Printf("[LeaderboardService] Ошибка инвалидации кеша рейтинга конкурса #%d: %v", contestID, err)
	}
}

// InvalidateUserHistory сбрасывает закешированную историю пользователя
func (s *LeaderboardService) InvalidateUserHistory(ctx context.Context, userID uint) {
	if err := s.cache.InvalidateNamespace(ctx, repository.HistoryNamespace(userID)); err != nil {
		log.Printf("[LeaderboardService] Ошибка инвалидации истории пользователя #%d: %v", userID, err)
	}
}

// readCache возвращает true при попадании. Ошибки кеша считаются промахом.
func (s *LeaderboardService) readCache(ctx context.Context, key repository.CacheKey, dest interface{}) bool {
	err := s.cache.GetJSON(ctx, key, dest)
	hit := err == nil
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[LeaderboardService] Ошибка чтения кеша %s: %v", key, err)
	}
	metrics.ObserveCache(key.Namespace.Kind, hit)
	return hit
}

// generation читается до обращения к БД. Если кеш недоступен, результат не кешируется.
func (s *LeaderboardService) generation(ctx context.Context, ns repository.CacheNamespace) (int64, bool) {
	gen, err := s.cache.Generation(ctx, ns)
	if err != nil {
		log.Printf("[LeaderboardService] Ошибка чтения поколения кеша %s: %v", ns, err)
		return 0, false
	}
	return gen, true
}

func (s *LeaderboardService) writeCache(ctx context.Context, key repository.CacheKey, gen int64, value interface{}, ttl time.Duration) {
	if err := s.cache.SetJSON(ctx, key, gen, value, ttl); err != nil {
		log.Printf("[LeaderboardService] Ошибка записи кеша %s: %v", key, err)
	}
}

func rankRows(rows []repository.RankedParticipation, offset int) []RankingEntry {
	out := make([]RankingEntry, 0, len(rows))
	for i, r := range rows {
		out = append(out, RankingEntry{
			Rank:        offset + i + 1,
			UserID:      r.UserID,
			Username:    r.Username,
			Score:       r.Score,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return out
}
