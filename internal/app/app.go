package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lingua_exam_backend/internal/config"
	"lingua_exam_backend/internal/controller"
	"lingua_exam_backend/internal/grading"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/service"
	"lingua_exam_backend/internal/util"
	"lingua_exam_backend/pkg/configwatcher"
	"lingua_exam_backend/pkg/database"
	"lingua_exam_backend/pkg/lock"
	"lingua_exam_backend/pkg/logger"
	"lingua_exam_backend/pkg/monitoring"
	"lingua_exam_backend/pkg/security"
	"lingua_exam_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	ctx             context.Context
	cancel          context.CancelFunc
}

type repositories struct {
	exam    *repository.ExamRepository
	attempt *repository.ExamAttemptRepository
	answer  *repository.AnswerRepository
}

type services struct {
	catalog   *service.CatalogService
	ledger    *service.AnswerLedgerService
	questions *service.QuestionService
	attempts  *service.ExamAttemptService
}

type controllers struct {
	exam     *controller.ExamController
	attempt  *controller.AttemptController
	adaptive *controller.AdaptiveController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		exam:    repository.NewExamRepository(db),
		attempt: repository.NewExamAttemptRepository(db),
		answer:  repository.NewAnswerRepository(db),
	}
}

func (a *App) newLocker(cfg *config.Config, rdb *redis.Client) lock.Locker {
	if cfg.Exam.LockBackend == util.LockBackendRedis && rdb != nil {
		logger.Log.Info("Using redis attempt locks", zap.Duration("ttl", cfg.Exam.LockTTL()))
		return lock.NewRedisLease(rdb, "lingua-exam:lock:", cfg.Exam.LockTTL(), cfg.Exam.LockWait(), logger.Log)
	}
	return lock.NewKeyedMutex(cfg.Exam.LockWait())
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	grader := grading.NewGrader(grading.WithPartialMulti(cfg.Exam.PartialMultiSelect))
	s.catalog = service.NewCatalogService(repos.exam, grader, db)
	s.ledger = service.NewAnswerLedgerService(repos.answer, repos.attempt, s.catalog)
	s.questions = service.NewQuestionService(s.catalog, repos.attempt, s.ledger, cfg.Exam.Adaptive)
	s.attempts = service.NewExamAttemptService(db, s.catalog, repos.attempt, s.ledger, s.questions, a.newLocker(cfg, rdb))
	if cfg.Exam.ExpiryBatchSize > 0 {
		s.attempts.SweepBatchSize = cfg.Exam.ExpiryBatchSize
	}
	if cfg.Exam.SweepConcurrency > 0 {
		s.attempts.SweepConcurrency = cfg.Exam.SweepConcurrency
	}

	a.RegisterConfigCallback(func(c *config.Config) {
		s.questions.SetAdaptiveConfig(c.Exam.Adaptive)
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		exam:     controller.NewExamController(s.catalog, s.attempts),
		attempt:  controller.NewAttemptController(s.attempts, s.ledger, s.questions),
		adaptive: controller.NewAdaptiveController(s.questions),
		admin:    controller.NewAdminController(s.catalog, s.attempts),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.WindowMinutes > 0 {
		router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the overdue-attempt sweep and, when a config
// directory is known, the config watcher until ctx is done.
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	interval := a.Config.Exam.SweepInterval()
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					n, err := s.attempts.ExpireOverdue(ctx, now)
					if err != nil {
						logger.Log.Error("expiry sweep error", zap.Error(err))
					}
					if n > 0 {
						logger.Log.Info("expired overdue attempts", zap.Int("count", n))
					}
				}
			}
		}()
	}

	if a.ConfigDir != "" {
		go func() {
			path := filepath.Join(a.ConfigDir, "config.yaml")
			err := configwatcher.WatchConfig(ctx, path, func(cfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(cfg)
				}
			})
			if err != nil {
				logger.Log.Warn("config hot reload disabled", zap.Error(err))
			}
		}()
	}
}

// New wires an App around an open database. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		ctx:    ctx,
		cancel: cancel,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(ctx, router, cfg)
	app.registerRoutes(router, controllers, cfg)
	return app
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)
	app.ConfigDir = configDir

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}
	return app
}

func (a *App) Run() {
	a.startBackgroundTasks(a.ctx, a.services)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	a.cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
