package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
	"github.com/yourusername/contest-api/internal/repository/memory"
	"github.com/yourusername/contest-api/internal/service/grading"
)

func TestJoinContest_IdempotentWhileInProgress(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	first, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, entity.ParticipationStatusInProgress, first.Participation.Status)
	assert.Equal(t, baseTime, first.Participation.StartedAt)
	assert.Equal(t, 2, first.QuestionCount)

	env.clock.Advance(time.Minute)
	second, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Participation.ID, second.Participation.ID)
	assert.Equal(t, baseTime, second.Participation.StartedAt, "startedAt не сдвигается при повторном join")
	assert.Len(t, env.db.participations, 1)
}

func TestJoinContest_Window(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	env.clock.Advance(-2 * time.Hour)
	_, err := env.participations.JoinContest(ctx, user, contest.ID)
	requireAppError(t, err, apperrors.KindBadRequest, CodeContestNotStarted)

	// конец окна не включается
	env.clock.Advance(3 * time.Hour)
	_, err = env.participations.JoinContest(ctx, user, contest.ID)
	requireAppError(t, err, apperrors.KindBadRequest, CodeContestEnded)

	assert.Empty(t, env.db.participations)
}

func TestJoinContest_NotFound(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	_, err := env.participations.JoinContest(ctx, user, 9999)
	requireAppError(t, err, apperrors.KindNotFound, CodeContestNotFound)

	_, err = env.participations.JoinContest(ctx, Principal{UserID: 4242, Role: entity.RoleNormal}, contest.ID)
	requireAppError(t, err, apperrors.KindNotFound, CodeUserNotFound)
}

func TestAccessGating_VIPContest(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	contest := env.ongoingContest(t, entity.AccessLevelVIP)

	for _, role := range []string{entity.RoleNormal, entity.RoleGuest} {
		p := env.user(t, "user-"+role, role)
		_, err := env.participations.JoinContest(ctx, p, contest.ID)
		requireAppError(t, err, apperrors.KindForbidden, CodeAccessDenied)

		_, err = env.participations.SubmitAnswers(ctx, p, contest.ID, answersFor(contest, []int{0}, []int{0, 1}))
		requireAppError(t, err, apperrors.KindForbidden, CodeAccessDenied)
	}

	for _, role := range []string{entity.RoleVIP, entity.RoleAdmin} {
		p := env.user(t, "user-"+role, role)
		_, err := env.participations.JoinContest(ctx, p, contest.ID)
		require.NoError(t, err, role)
	}
}

func TestAccessGating_UsesStoredRole(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	contest := env.ongoingContest(t, entity.AccessLevelVIP)
	p := env.user(t, "bob", entity.RoleNormal)

	// токен выпущен с ролью vip, но в базе пользователь normal
	p.Role = entity.RoleVIP
	_, err := env.participations.JoinContest(ctx, p, contest.ID)
	requireAppError(t, err, apperrors.KindForbidden, CodeAccessDenied)
}

func TestJoinContest_Concurrent(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	const workers = 10
	var wg sync.WaitGroup
	results := make([]*JoinResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.participations.JoinContest(ctx, user, contest.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if results[i].Created {
			created++
		}
		assert.Equal(t, results[0].Participation.ID, results[i].Participation.ID)
	}
	assert.Equal(t, 1, created)
	assert.Len(t, env.db.participations, 1)
}

func TestJoinContest_UniqueViolationReturnsExisting(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	// Параллельная транзакция фиксирует строку между проверкой и вставкой
	env.db.beforeParticipationCreate = func(p *entity.Participation) error {
		env.db.beforeParticipationCreate = nil
		winner := *p
		env.db.onRollback = append(env.db.onRollback, func() {
			require.NoError(t, env.db.Participations().Create(ctx, &winner))
		})
		return fmt.Errorf("%w: duplicate key", apperrors.ErrConflict)
	}

	res, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 2, res.QuestionCount)
	assert.Len(t, env.db.participations, 1)
}

func TestJoinContest_AfterSubmit(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)
	env.joinAndSubmit(t, user, contest, []int{0}, []int{0, 1})

	_, err := env.participations.JoinContest(context.Background(), user, contest.ID)
	requireAppError(t, err, apperrors.KindBadRequest, CodeAlreadySubmitted)
}

func TestSubmitAnswers_Scoring(t *testing.T) {
	tests := []struct {
		name   string
		single []int
		multi  []int
		want   int
	}{
		{"all correct", []int{0}, []int{0, 1}, 2},
		{"wrong single", []int{1}, []int{0, 1}, 1},
		{"multi missing one", []int{0}, []int{0}, 1},
		{"multi extra option", []int{0}, []int{0, 1, 2}, 1},
		{"nothing correct", []int{2}, []int{2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, memory.NewCacheRepo())
			user := env.user(t, "alice", entity.RoleNormal)
			contest := env.ongoingContest(t, entity.AccessLevelNormal)

			env.clock.Advance(5 * time.Minute)
			res := env.joinAndSubmit(t, user, contest, tt.single, tt.multi)

			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, 2, res.TotalQuestions)
			assert.Equal(t, entity.ParticipationStatusSubmitted, res.Status)
			assert.Equal(t, env.clock.Now(), res.SubmittedAt)

			stored, err := env.db.Participations().GetByUserAndContest(context.Background(), user.UserID, contest.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Score)
			n, err := env.db.Participations().CountAnswers(context.Background(), stored.ID)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)
		})
	}
}

func TestSubmitAnswers_NoResubmission(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)
	env.joinAndSubmit(t, user, contest, []int{1}, []int{2})

	_, err := env.participations.SubmitAnswers(ctx, user, contest.ID, answersFor(contest, []int{0}, []int{0, 1}))
	requireAppError(t, err, apperrors.KindNotFound, CodeParticipationNotFound)

	stored, err := env.db.Participations().GetByUserAndContest(ctx, user.UserID, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Score)
}

func TestSubmitAnswers_WithoutJoin(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	_, err := env.participations.SubmitAnswers(context.Background(), user, contest.ID, answersFor(contest, []int{0}, []int{0, 1}))
	requireAppError(t, err, apperrors.KindNotFound, CodeParticipationNotFound)
}

func TestSubmitAnswers_AllQuestionsRequired(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	joined, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)

	_, err = env.participations.SubmitAnswers(ctx, user, contest.ID, answersFor(contest, []int{0}))
	requireAppError(t, err, apperrors.KindBadRequest, grading.CodeInvalidAnswers)

	stored, err := env.db.Participations().GetByUserAndContest(ctx, user.UserID, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ParticipationStatusInProgress, stored.Status)
	n, err := env.db.Participations().CountAnswers(ctx, joined.Participation.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "ответы не должны сохраняться")
}

func TestSubmitAnswers_InvalidSelections(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)
	_, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)

	q1, q2 := contest.Questions[0], contest.Questions[1]
	tests := []struct {
		name    string
		answers []grading.SubmittedAnswer
	}{
		{"two options for single-select", []grading.SubmittedAnswer{
			{QuestionID: q1.ID, OptionIDs: []uint{q1.Options[0].ID, q1.Options[1].ID}},
			{QuestionID: q2.ID, OptionIDs: []uint{q2.Options[0].ID}},
		}},
		{"option from another question", []grading.SubmittedAnswer{
			{QuestionID: q1.ID, OptionIDs: []uint{q2.Options[0].ID}},
			{QuestionID: q2.ID, OptionIDs: []uint{q2.Options[0].ID}},
		}},
		{"duplicate question", []grading.SubmittedAnswer{
			{QuestionID: q1.ID, OptionIDs: []uint{q1.Options[0].ID}},
			{QuestionID: q1.ID, OptionIDs: []uint{q1.Options[0].ID}},
			{QuestionID: q2.ID, OptionIDs: []uint{q2.Options[0].ID}},
		}},
		{"unknown question", []grading.SubmittedAnswer{
			{QuestionID: q1.ID, OptionIDs: []uint{q1.Options[0].ID}},
			{QuestionID: q2.ID, OptionIDs: []uint{q2.Options[0].ID}},
			{QuestionID: 9999, OptionIDs: []uint{1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.participations.SubmitAnswers(ctx, user, contest.ID, tt.answers)
			requireAppError(t, err, apperrors.KindBadRequest, grading.CodeInvalidAnswers)
		})
	}

	stored, err := env.db.Participations().GetByUserAndContest(ctx, user.UserID, contest.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsInProgress())
	assert.Empty(t, env.db.answers)
}

func TestSubmitAnswers_AfterEnd(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)
	_, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	_, err = env.participations.SubmitAnswers(ctx, user, contest.ID, answersFor(contest, []int{0}, []int{0, 1}))
	requireAppError(t, err, apperrors.KindBadRequest, CodeContestEnded)
}

func TestSubmitAnswers_ConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)
	_, err := env.participations.JoinContest(ctx, user, contest.ID)
	require.NoError(t, err)

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.participations.SubmitAnswers(ctx, user, contest.ID, answersFor(contest, []int{0}, []int{0, 1}))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireAppError(t, err, apperrors.KindNotFound, CodeParticipationNotFound)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, env.db.answers, 2)
}

func TestGetUserContestScore(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	contest := env.ongoingContest(t, entity.AccessLevelNormal)

	_, err := env.participations.GetUserContestScore(ctx, user, contest.ID)
	requireAppError(t, err, apperrors.KindNotFound, CodeParticipationNotFound)

	env.joinAndSubmit(t, user, contest, []int{0}, []int{1})
	score, err := env.participations.GetUserContestScore(ctx, user, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekly quiz", score.ContestName)
	assert.Equal(t, 1, score.Score)
	assert.Equal(t, entity.ParticipationStatusSubmitted, score.Status)
	require.NotNil(t, score.SubmittedAt)
}

func TestGetActiveParticipations(t *testing.T) {
	env := newTestEnv(t, memory.NewCacheRepo())
	ctx := context.Background()
	user := env.user(t, "alice", entity.RoleNormal)
	open := env.ongoingContest(t, entity.AccessLevelNormal)
	submitted := env.ongoingContest(t, entity.AccessLevelNormal)

	_, err := env.participations.JoinContest(ctx, user, open.ID)
	require.NoError(t, err)
	env.joinAndSubmit(t, user, submitted, []int{0}, []int{0, 1})

	active, err := env.participations.GetActiveParticipations(ctx, user)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ContestID)
	assert.Equal(t, open.EndTime, active[0].EndsAt)

	// после окончания конкурса незавершенное участие больше не активно
	env.clock.Advance(2 * time.Hour)
	active, err = env.participations.GetActiveParticipations(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, active)
}
