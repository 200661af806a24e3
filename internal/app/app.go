package app

import (
	"context"
	"errors"
	"learnquest_backend/internal/config"
	"learnquest_backend/internal/controller"
	"learnquest_backend/internal/repository"
	"learnquest_backend/internal/service"
	"learnquest_backend/pkg/configwatcher"
	"learnquest_backend/pkg/database"
	"learnquest_backend/pkg/logger"
	"learnquest_backend/pkg/monitoring"
	"learnquest_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Policy *service.Policy

	services        *services
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	module      *repository.ModuleRepository
	progress    *repository.ProgressRepository
	quiz        *repository.QuizRepository
	streak      *repository.StreakRepository
	achievement *repository.AchievementRepository
	catalog     *repository.AchievementCatalog
}

type services struct {
	progress     *service.ProgressService
	streak       *service.StreakService
	achievement  *service.AchievementService
	gamification *service.GamificationService
}

type controllers struct {
	quiz        *controller.QuizController
	progress    *controller.ProgressController
	streak      *controller.StreakController
	achievement *controller.AchievementController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 依次执行注册的回调
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	achievement := repository.NewAchievementRepository(db)
	return &repositories{
		module:      repository.NewModuleRepository(db),
		progress:    repository.NewProgressRepository(db),
		quiz:        repository.NewQuizRepository(db),
		streak:      repository.NewStreakRepository(db),
		achievement: achievement,
		catalog:     repository.NewAchievementCatalog(achievement, rdb, a.Config.Redis.CatalogTTL),
	}
}

func (a *App) initServices(repos *repositories) *services {
	s := &services{}

	s.progress = service.NewProgressService(repos.progress, repos.module, a.Policy)
	s.streak = service.NewStreakService(repos.streak, a.Policy)
	s.achievement = service.NewAchievementService(
		repos.achievement,
		repos.catalog,
		repos.quiz,
		repos.progress,
		repos.streak,
	)
	s.gamification = service.NewGamificationService(s.progress, s.streak, s.achievement, repos.quiz, a.Policy)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		quiz:        controller.NewQuizController(s.gamification),
		progress:    controller.NewProgressController(s.gamification),
		streak:      controller.NewStreakController(s.gamification),
		achievement: controller.NewAchievementController(s.gamification),
		health:      controller.NewHealthController(a.DB, a.Redis),
	}
}

// New 基于已建立的连接组装应用，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Policy: service.NewPolicy(cfg.Gamification),
		ctx:    ctx,
		cancel: cancel,
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := app.Policy.Update(newCfg.Gamification); err != nil {
			logger.Log.Error("Rejected gamification config", zap.Error(err))
			return
		}
		logger.Log.Info("Gamification policy updated",
			zap.Int("pass_threshold", newCfg.Gamification.PassThreshold),
			zap.Int("streak_cap", newCfg.Gamification.StreakCap),
			zap.Duration("freeze_duration", newCfg.Gamification.FreezeDuration))
	})

	repos := app.initRepositories(db, rdb)
	app.services = app.initServices(repos)
	controllers := app.initControllers(app.services)

	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

// NewApp 按配置建立数据库、Redis 和链路追踪后组装应用
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// 缓存只用于成就目录，连不上时退回直接读库
			logger.Log.Warn("Redis unavailable, achievement catalog cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer(context.Background(), cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)
	app.tracer = tp
	return app
}

func (a *App) watchConfig() {
	if a.Config.File == "" {
		return
	}
	go func() {
		if err := configwatcher.WatchConfig(a.ctx, a.Config.File, a.ReloadConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.watchConfig()

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}

// Close 停止后台协程并释放连接
func (a *App) Close() {
	a.cancel()
	tracing.Shutdown(a.tracer)
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
