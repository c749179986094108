package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-api/internal/domain/entity"
	"github.com/yourusername/contest-api/internal/middleware"
	"github.com/yourusername/contest-api/internal/service"
	"github.com/yourusername/contest-api/internal/service/grading"
	"github.com/yourusername/contest-api/pkg/auth"
)

type mockParticipationService struct{ mock.Mock }

func (m *mockParticipationService) JoinContest(ctx context.Context, p service.Principal, contestID uint) (*service.JoinResult, error) {
	args := m.Called(ctx, p, contestID)
	res, _ := args.Get(0).(*service.JoinResult)
	return res, args.Error(1)
}

func (m *mockParticipationService) SubmitAnswers(ctx context.Context, p service.Principal, contestID uint, answers []grading.SubmittedAnswer) (*service.SubmitResult, error) {
	args := m.Called(ctx, p, contestID, answers)
	res, _ := args.Get(0).(*service.SubmitResult)
	return res, args.Error(1)
}

func (m *mockParticipationService) GetUserContestScore(ctx context.Context, p service.Principal, contestID uint) (*service.ContestScore, error) {
	args := m.Called(ctx, p, contestID)
	res, _ := args.Get(0).(*service.ContestScore)
	return res, args.Error(1)
}

func (m *mockParticipationService) GetActiveParticipations(ctx context.Context, p service.Principal) ([]service.ActiveParticipation, error) {
	args := m.Called(ctx, p)
	res, _ := args.Get(0).([]service.ActiveParticipation)
	return res, args.Error(1)
}

type mockLeaderboardService struct{ mock.Mock }

func (m *mockLeaderboardService) GetContestLeaderboard(ctx context.Context, contestID uint, page service.Page) (*service.Leaderboard, error) {
	args := m.Called(ctx, contestID, page)
	res, _ := args.Get(0).(*service.Leaderboard)
	return res, args.Error(1)
}

func (m *mockLeaderboardService) GetUserContestHistory(ctx context.Context, p service.Principal, page service.Page, status string) (*service.History, error) {
	args := m.Called(ctx, p, page, status)
	res, _ := args.Get(0).(*service.History)
	return res, args.Error(1)
}

func (m *mockLeaderboardService) ExportLeaderboard(ctx context.Context, contestID uint) (*entity.Contest, []service.RankingEntry, error) {
	args := m.Called(ctx, contestID)
	contest, _ := args.Get(0).(*entity.Contest)
	rankings, _ := args.Get(1).([]service.RankingEntry)
	return contest, rankings, args.Error(2)
}

type mockPrizeService struct{ mock.Mock }

func (m *mockPrizeService) CreateContestPrizes(ctx context.Context, p service.Principal, contestID uint, inputs []service.PrizeInput) ([]entity.Prize, error) {
	args := m.Called(ctx, p, contestID, inputs)
	res, _ := args.Get(0).([]entity.Prize)
	return res, args.Error(1)
}

func (m *mockPrizeService) AwardContestPrizes(ctx context.Context, p service.Principal, contestID uint) ([]service.AwardedPrize, error) {
	args := m.Called(ctx, p, contestID)
	res, _ := args.Get(0).([]service.AwardedPrize)
	return res, args.Error(1)
}

func (m *mockPrizeService) GetContestPrizes(ctx context.Context, contestID uint) (*service.ContestPrizes, error) {
	args := m.Called(ctx, contestID)
	res, _ := args.Get(0).(*service.ContestPrizes)
	return res, args.Error(1)
}

func (m *mockPrizeService) GetUserPrizes(ctx context.Context, p service.Principal) ([]entity.Prize, error) {
	args := m.Called(ctx, p)
	res, _ := args.Get(0).([]entity.Prize)
	return res, args.Error(1)
}

func (m *mockPrizeService) ClaimPrize(ctx context.Context, p service.Principal, prizeID uint) (*entity.Prize, error) {
	args := m.Called(ctx, p, prizeID)
	res, _ := args.Get(0).(*entity.Prize)
	return res, args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*service.AuthResult)
	return res, args.Error(1)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID uint) (*entity.User, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*entity.User)
	return res, args.Error(1)
}

type mockContestService struct{ mock.Mock }

func (m *mockContestService) CreateContest(ctx context.Context, p service.Principal, in service.CreateContestInput) (*entity.Contest, error) {
	args := m.Called(ctx, p, in)
	res, _ := args.Get(0).(*entity.Contest)
	return res, args.Error(1)
}

func (m *mockContestService) UpdateContest(ctx context.Context, p service.Principal, contestID uint, in service.UpdateContestInput) (*entity.Contest, error) {
	args := m.Called(ctx, p, contestID, in)
	res, _ := args.Get(0).(*entity.Contest)
	return res, args.Error(1)
}

func (m *mockContestService) DeleteContest(ctx context.Context, p service.Principal, contestID uint) error {
	return m.Called(ctx, p, contestID).Error(0)
}

func (m *mockContestService) ListContests(ctx context.Context, p service.Principal, status, accessLevel string, page service.Page) ([]service.ContestWithStatus, service.Pagination, error) {
	args := m.Called(ctx, p, status, accessLevel, page)
	res, _ := args.Get(0).([]service.ContestWithStatus)
	return res, args.Get(1).(service.Pagination), args.Error(2)
}

func (m *mockContestService) GetContest(ctx context.Context, p service.Principal, contestID uint) (*service.ContestDetails, error) {
	args := m.Called(ctx, p, contestID)
	res, _ := args.Get(0).(*service.ContestDetails)
	return res, args.Error(1)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) ListUsers(ctx context.Context, p service.Principal, page service.Page) ([]entity.User, service.Pagination, error) {
	args := m.Called(ctx, p, page)
	res, _ := args.Get(0).([]entity.User)
	return res, args.Get(1).(service.Pagination), args.Error(2)
}

func (m *mockUserService) UpdateRole(ctx context.Context, p service.Principal, userID uint, role string) (*entity.User, error) {
	args := m.Called(ctx, p, userID, role)
	res, _ := args.Get(0).(*entity.User)
	return res, args.Error(1)
}

// testAPI - роутер со всеми обработчиками поверх моков сервисов
type testAPI struct {
	router         *gin.Engine
	jwt            *auth.JWTService
	participations *mockParticipationService
	leaderboard    *mockLeaderboardService
	prizes         *mockPrizeService
	auth           *mockAuthService
	contests       *mockContestService
	users          *mockUserService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService, err := auth.NewJWTService("handler-test-secret-value", time.Hour)
	require.NoError(t, err)

	api := &testAPI{
		jwt:            jwtService,
		participations: new(mockParticipationService),
		leaderboard:    new(mockLeaderboardService),
		prizes:         new(mockPrizeService),
		auth:           new(mockAuthService),
		contests:       new(mockContestService),
		users:          new(mockUserService),
	}
	api.router = NewRouter(Handlers{
		Auth:          NewAuthHandler(api.auth, CookieConfig{}),
		Contest:       NewContestHandler(api.contests),
		Participation: NewParticipationHandler(api.participations),
		Leaderboard:   NewLeaderboardHandler(api.leaderboard),
		Prize:         NewPrizeHandler(api.prizes),
		User:          NewUserHandler(api.users),
	}, middleware.NewAuthMiddleware(jwtService), RouterOptions{})

	t.Cleanup(func() {
		api.participations.AssertExpectations(t)
		api.leaderboard.AssertExpectations(t)
		api.prizes.AssertExpectations(t)
		api.auth.AssertExpectations(t)
		api.contests.AssertExpectations(t)
		api.users.AssertExpectations(t)
	})
	return api
}

func (a *testAPI) token(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, _, err := a.jwt.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

// do выполняет запрос; пустой token означает анонимный запрос
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
