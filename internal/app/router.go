package app

import (
	"learnquest_backend/internal/config"
	"learnquest_backend/internal/middleware"
	"learnquest_backend/pkg/monitoring"
	"learnquest_backend/pkg/security"
	"learnquest_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)
	api.GET("/achievements", c.achievement.ListAchievements)

	authGroup := api.Group("")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/quiz-results", c.quiz.SubmitQuiz)
		authGroup.GET("/quiz-results/:userId", c.quiz.ListQuizResults)

		authGroup.POST("/user-progress", c.progress.UpdateProgress)
		authGroup.GET("/user-progress/:userId", c.progress.ListUserProgress)

		authGroup.GET("/user-streak/:userId", c.streak.GetStreak)
		authGroup.POST("/user-streak", c.streak.RecordActivity)

		authGroup.POST("/check-achievements", c.achievement.CheckAchievements)
		authGroup.GET("/user-achievements/:userId", c.achievement.ListUserAchievements)
		authGroup.POST("/user-achievements", c.achievement.UnlockAchievement)
	}

	admin := authGroup.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/achievements/refresh", c.achievement.RefreshCatalog)
	}
}
