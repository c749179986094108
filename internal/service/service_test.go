package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/repository/memory"
	"github.com/yourusername/contest-api/internal/service/grading"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recordingNotifier запоминает отправленные уведомления
type recordingNotifier struct {
	mu   sync.Mutex
	sent []PrizeAwardedEmail
	err  error
}

func (n *recordingNotifier) SendPrizeAwarded(_ context.Context, msg PrizeAwardedEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

type testEnv struct {
	db       *fakeDB
	clock    *fakeClock
	notifier *recordingNotifier

	contests       *ContestService
	participations *ParticipationService
	leaderboard    *LeaderboardService
	prizes         *PrizeService
}

func newTestEnv(t *testing.T, cache repository.CacheRepository) *testEnv {
	t.Helper()
	db := newFakeDB()
	clock := &fakeClock{t: baseTime}
	notifier := &recordingNotifier{}

	leaderboard := NewLeaderboardService(db.Contests(), db.Participations(), cache, DefaultCacheTTL())
	env := &testEnv{
		db:             db,
		clock:          clock,
		notifier:       notifier,
		contests:       NewContestService(db.Contests(), db.Participations(), db.Users(), db, leaderboard),
		participations: NewParticipationService(db.Contests(), db.Participations(), db, leaderboard),
		leaderboard:    leaderboard,
		prizes:         NewPrizeService(db.Contests(), db.Prizes(), db.Users(), db, notifier),
	}
	env.contests.now = clock.Now
	env.participations.now = clock.Now
	env.leaderboard.now = clock.Now
	env.prizes.now = clock.Now
	return env
}

var (
	hashOnce     sync.Once
	passwordHash string
)

// testPasswordHash хеширует "password" с минимальной стоимостью один раз на пакет
func testPasswordHash(t *testing.T) string {
	hashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
		require.NoError(t, err)
		passwordHash = string(h)
	})
	return passwordHash
}

func (e *testEnv) user(t *testing.T, username, role string) Principal {
	t.Helper()
	u := &entity.User{Username: username, Email: username + "@example.com", Password: testPasswordHash(t), Role: role}
	require.NoError(t, e.db.Users().Create(context.Background(), u))
	return Principal{UserID: u.ID, Role: role}
}

// sampleQuestions: single-select с верным A и multi-select с верными A и B
func sampleQuestions() []QuestionInput {
	return []QuestionInput{
		{Text: "Capital of France?", Type: entity.QuestionTypeSingleSelect, Options: []OptionInput{
			{Text: "Paris", IsCorrect: true}, {Text: "Rome"}, {Text: "Berlin"},
		}},
		{Text: "Primary colors?", Type: entity.QuestionTypeMultiSelect, Options: []OptionInput{
			{Text: "Red", IsCorrect: true}, {Text: "Blue", IsCorrect: true}, {Text: "Green"},
		}},
	}
}

// ongoingContest создает конкурс, который идет в момент baseTime
func (e *testEnv) ongoingContest(t *testing.T, access string) *entity.Contest {
	t.Helper()
	c, err := e.contests.CreateContest(context.Background(), System(), CreateContestInput{
		Name:        "Weekly quiz",
		StartTime:   baseTime.Add(-time.Hour),
		EndTime:     baseTime.Add(time.Hour),
		AccessLevel: access,
		Questions:   sampleQuestions(),
	})
	require.NoError(t, err)
	return c
}

// answersFor выбирает варианты по индексам для каждого вопроса по порядку
func answersFor(c *entity.Contest, picks ...[]int) []grading.SubmittedAnswer {
	out := make([]grading.SubmittedAnswer, 0, len(picks))
	for i, idx := range picks {
		q := c.Questions[i]
		ids := make([]uint, 0, len(idx))
		for _, j := range idx {
			ids = append(ids, q.Options[j].ID)
		}
		out = append(out, grading.SubmittedAnswer{QuestionID: q.ID, OptionIDs: ids})
	}
	return out
}

func (e *testEnv) joinAndSubmit(t *testing.T, p Principal, c *entity.Contest, picks ...[]int) *SubmitResult {
	t.Helper()
	ctx := context.Background()
	_, err := e.participations.JoinContest(ctx, p, c.ID)
	require.NoError(t, err)
	res, err := e.participations.SubmitAnswers(ctx, p, c.ID, answersFor(c, picks...))
	require.NoError(t, err)
	return res
}

func requireAppError(t *testing.T, err error, kind apperrors.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "ожидалась AppError, получено %v", err)
	assert.Equal(t, kind, appErr.Kind, appErr.Error())
	assert.Equal(t, code, appErr.Code, appErr.Error())
}

func caches() map[string]func() repository.CacheRepository {
	return map[string]func() repository.CacheRepository{
		"memory": func() repository.CacheRepository { return memory.NewCacheRepo() },
		"noop":   func() repository.CacheRepository { return memory.NoopCache{} },
	}
}
