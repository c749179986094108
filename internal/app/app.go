// Package app собирает зависимости сервиса из конфигурации.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/contest-api/internal/config"
	"github.com/yourusername/contest-api/internal/domain/repository"
	"github.com/yourusername/contest-api/internal/handler"
	"github.com/yourusername/contest-api/internal/middleware"
	"github.com/yourusername/contest-api/internal/repository/memory"
	pgRepo "github.com/yourusername/contest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/contest-api/internal/repository/redis"
	"github.com/yourusername/contest-api/internal/service"
	"github.com/yourusername/contest-api/pkg/auth"
	"github.com/yourusername/contest-api/pkg/database"
)

// App содержит инициализированные зависимости
type App struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis равен nil, если cache.driver не redis
	Redis redis.UniversalClient
	Cache repository.CacheRepository
	JWT   *auth.JWTService

	AuthService          *service.AuthService
	UserService          *service.UserService
	ContestService       *service.ContestService
	ParticipationService *service.ParticipationService
	LeaderboardService   *service.LeaderboardService
	PrizeService         *service.PrizeService

	memoryCache *memory.CacheRepo
}

// New подключается к хранилищам и собирает сервисы
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}
	db, err := database.NewPostgresDB(cfg.Database, logLevel)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: db}
	if err := a.initCache(ctx); err != nil {
		a.Close()
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.JWT = jwtService

	notifier, err := newNotifier(cfg.Email)
	if err != nil {
		a.Close()
		return nil, err
	}

	userRepo := pgRepo.NewUserRepo(db)
	contestRepo := pgRepo.NewContestRepo(db)
	participationRepo := pgRepo.NewParticipationRepo(db)
	prizeRepo := pgRepo.NewPrizeRepo(db)
	txManager := pgRepo.NewTxManager(db)

	a.LeaderboardService = service.NewLeaderboardService(contestRepo, participationRepo, a.Cache, service.CacheTTL{
		LeaderboardOngoing: cfg.Cache.LeaderboardOngoingTTL,
		LeaderboardEnded:   cfg.Cache.LeaderboardEndedTTL,
		History:            cfg.Cache.HistoryTTL,
	})
	a.AuthService = service.NewAuthService(userRepo, jwtService)
	a.UserService = service.NewUserService(userRepo)
	a.ContestService = service.NewContestService(contestRepo, participationRepo, userRepo, txManager, a.LeaderboardService)
	a.ParticipationService = service.NewParticipationService(contestRepo, participationRepo, txManager, a.LeaderboardService)
	a.PrizeService = service.NewPrizeService(contestRepo, prizeRepo, userRepo, txManager, notifier)

	return a, nil
}

func (a *App) initCache(ctx context.Context) error {
	switch a.Config.Cache.Driver {
	case config.CacheDriverRedis:
		client, err := database.NewUniversalRedisClient(ctx, a.Config.Redis)
		if err != nil {
			return err
		}
		a.Redis = client
		cache, err := redisRepo.NewCacheRepo(client, a.Config.Cache.Prefix)
		if err != nil {
			return err
		}
		a.Cache = cache
	case config.CacheDriverNone:
		a.Cache = memory.NoopCache{}
	default:
		a.memoryCache = memory.NewCacheRepo()
		a.Cache = a.memoryCache
	}
	log.Printf("[App] Кеш рейтингов: %s", a.Config.Cache.Driver)
	return nil
}

func newNotifier(cfg config.EmailConfig) (service.Notifier, error) {
	if cfg.Provider != config.EmailProviderResend {
		return service.NoopNotifier{}, nil
	}
	notifier, err := service.NewResendNotifier(cfg.APIKey, cfg.From)
	if err != nil {
		return nil, fmt.Errorf("failed to init resend notifier: %w", err)
	}
	return notifier, nil
}

// Router собирает HTTP-роутер поверх сервисов
func (a *App) Router() *gin.Engine {
	handlers := handler.Handlers{
		Auth: handler.NewAuthHandler(a.AuthService, handler.CookieConfig{
			Secure:   a.Config.Server.Mode == "release",
			SameSite: http.SameSiteLaxMode,
		}),
		Contest:       handler.NewContestHandler(a.ContestService),
		Participation: handler.NewParticipationHandler(a.ParticipationService),
		Leaderboard:   handler.NewLeaderboardHandler(a.LeaderboardService),
		Prize:         handler.NewPrizeHandler(a.PrizeService),
		User:          handler.NewUserHandler(a.UserService),
	}
	return handler.NewRouter(handlers, middleware.NewAuthMiddleware(a.JWT), handler.RouterOptions{
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		Metrics:        a.Config.Metrics.Enabled,
		Pprof:          a.Config.Metrics.Pprof,
		HealthCheck:    a.Ping,
	})
}

// Ping проверяет доступность базы данных и Redis
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// RunCacheCleanup периодически удаляет просроченные записи in-memory кеша до отмены ctx
func (a *App) RunCacheCleanup(ctx context.Context) {
	if a.memoryCache == nil || a.Config.Cache.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.Config.Cache.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.memoryCache.Cleanup(); removed > 0 {
				log.Printf("[App] Очистка кеша: удалено просроченных записей %d, осталось %d", removed, a.memoryCache.Len())
			}
		}
	}
}

// Close закрывает подключения
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("[App] Ошибка закрытия Redis: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("[App] Ошибка закрытия БД: %v", err)
			}
		}
	}
}
