package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/contest-api/internal/middleware"
)

// Handlers - набор обработчиков API
type Handlers struct {
	Auth          *AuthHandler
	Contest       *ContestHandler
	Participation *ParticipationHandler
	Leaderboard   *LeaderboardHandler
	Prize         *PrizeHandler
	User          *UserHandler
}

// RouterOptions - инфраструктурные настройки роутера
type RouterOptions struct {
	AllowedOrigins []string
	TrustedProxies []string
	Metrics        bool
	Pprof          bool
	// HealthCheck проверяет зависимости для /health; nil означает "всегда здоров"
	HealthCheck func(ctx context.Context) error
}

// NewRouter собирает маршруты API
func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	if opts.Metrics {
		router.Use(middleware.Metrics())
	}

	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		panic(err)
	}

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", healthHandler(opts.HealthCheck))
	if opts.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if opts.Pprof {
		pprof.Register(router, "/debug/pprof")
	}

	contestID := middleware.ExtractUintParam("contestId", ContestIDKey)
	requireAuth := authMiddleware.RequireAuth()
	adminOnly := authMiddleware.AdminOnly()

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/logout", h.Auth.Logout)
			authGroup.GET("/me", requireAuth, h.Auth.Me)
		}

		contests := api.Group("/contests")
		{
			byID := middleware.ExtractUintParam("id", ContestIDKey)
			contests.GET("", authMiddleware.OptionalAuth(), h.Contest.ListContests)
			contests.GET("/:id", authMiddleware.OptionalAuth(), byID, h.Contest.GetContest)
			contests.POST("", requireAuth, adminOnly, h.Contest.CreateContest)
			contests.PUT("/:id", requireAuth, adminOnly, byID, h.Contest.UpdateContest)
			contests.DELETE("/:id", requireAuth, adminOnly, byID, h.Contest.DeleteContest)
		}

		participations := api.Group("/participations", requireAuth)
		{
			participations.POST("/contests/:contestId/join", contestID, h.Participation.JoinContest)
			participations.POST("/contests/:contestId/submit", contestID, h.Participation.SubmitAnswers)
			participations.GET("/contests/:contestId/score", contestID, h.Participation.GetUserContestScore)
		}

		leaderboard := api.Group("/leaderboard")
		{
			leaderboard.GET("/contests/:contestId", contestID, h.Leaderboard.GetContestLeaderboard)
			leaderboard.GET("/contests/:contestId/export", requireAuth, adminOnly, contestID, h.Leaderboard.ExportLeaderboard)

			user := leaderboard.Group("/user", requireAuth)
			user.GET("/history", h.Leaderboard.GetUserContestHistory)
			user.GET("/in-progress", h.Participation.GetActiveParticipations)
			user.GET("/prizes", h.Prize.GetUserPrizes)
		}

		prizes := api.Group("/prizes")
		{
			prizes.GET("/contest/:contestId", contestID, h.Prize.GetContestPrizes)
			prizes.POST("/contest/:contestId", requireAuth, adminOnly, contestID, h.Prize.CreateContestPrizes)
			prizes.POST("/contest/:contestId/award", requireAuth, adminOnly, contestID, h.Prize.AwardContestPrizes)
			prizes.POST("/:id/claim", requireAuth, middleware.ExtractUintParam("id", PrizeIDKey), h.Prize.ClaimPrize)
		}

		users := api.Group("/users", requireAuth, adminOnly)
		{
			users.GET("", h.User.ListUsers)
			users.PUT("/:id/role", middleware.ExtractUintParam("id", UserIDKey), h.User.UpdateRole)
		}
	}

	return router
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
