package app

import (
	"context"
	"errors"
	"fmt"
	"lan_exam_backend/internal/config"
	"lan_exam_backend/internal/controller"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/service"
	"lan_exam_backend/internal/validator"
	"lan_exam_backend/pkg/configwatcher"
	"lan_exam_backend/pkg/database"
	"lan_exam_backend/pkg/logger"
	"lan_exam_backend/pkg/monitoring"
	"lan_exam_backend/pkg/security"
	"lan_exam_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ServeStudent = "student"
	ServeAdmin   = "admin"
	ServeAll     = "all"

	serviceStudent = "student"
	serviceAdmin   = "admin"
)

type App struct {
	Config        *config.Config
	StudentRouter *gin.Engine
	AdminRouter   *gin.Engine
	DB            *gorm.DB
	Redis         *redis.Client

	services        *services
	limiters        []*security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	question  *repository.QuestionRepository
	exam      *repository.ExamRepository
	result    *repository.ResultRepository
	setting   *repository.SettingRepository
	tabSwitch *repository.TabSwitchRepository
	session   *repository.SessionRepository
}

type services struct {
	guard    *service.LoginGuard
	tokens   *service.TokenStore
	auth     *service.AuthService
	exam     *service.ExamService
	question *service.QuestionService
	student  *service.StudentService
	setting  *service.SettingService
	storage  *service.StorageService
	report   *service.ReportService
	monitor  *service.MonitorHub
}

type controllers struct {
	auth          *controller.AuthController
	exam          *controller.ExamController
	question      *controller.QuestionController
	student       *controller.StudentController
	setting       *controller.SettingController
	report        *controller.ReportController
	monitor       *controller.MonitorController
	studentHealth *controller.HealthController
	adminHealth   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		question:  repository.NewQuestionRepository(db),
		exam:      repository.NewExamRepository(db),
		result:    repository.NewResultRepository(db),
		setting:   repository.NewSettingRepository(db),
		tabSwitch: repository.NewTabSwitchRepository(db),
		session:   repository.NewSessionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	s.storage = storage

	s.monitor = service.NewMonitorHub(rdb, cfg.CORS.AdminOrigins)
	if err := s.monitor.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("start monitor hub: %w", err)
	}

	s.guard = service.NewLoginGuard(rdb, cfg.RateLimit.MaxLoginAttempts, cfg.RateLimit.LoginWindow())
	s.tokens = service.NewTokenStore(rdb)
	s.auth = service.NewAuthService(repos.user, repos.session, s.guard, s.tokens, cfg)
	s.auth.Monitor = s.monitor

	s.exam = service.NewExamService(
		db,
		repos.user,
		repos.question,
		repos.exam,
		repos.result,
		repos.setting,
		repos.tabSwitch,
	)
	s.exam.Monitor = s.monitor

	s.question = service.NewQuestionService(repos.question)
	s.student = service.NewStudentService(db, repos.user, repos.exam)
	s.setting = service.NewSettingService(repos.setting)
	s.report = service.NewReportService(repos.result, repos.tabSwitch, repos.session, s.storage)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:          controller.NewAuthController(s.auth),
		exam:          controller.NewExamController(s.exam),
		question:      controller.NewQuestionController(s.question),
		student:       controller.NewStudentController(s.student),
		setting:       controller.NewSettingController(s.setting),
		report:        controller.NewReportController(s.report),
		monitor:       controller.NewMonitorController(s.monitor),
		studentHealth: controller.NewHealthController(db, rdb, serviceStudent),
		adminHealth:   controller.NewHealthController(db, rdb, serviceAdmin),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config, serviceName string, origins []string) {
	router.Use(security.CORS(origins))
	router.Use(security.Secure())

	limiter := security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	a.limiters = append(a.limiters, limiter)
	router.Use(limiter.Middleware())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(serviceName))
	}

	router.Use(monitoring.MetricsMiddleware(serviceName))
}

// NewApp 连接数据库与 Redis、执行迁移，失败直接退出
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
	if err := database.EnsureDefaults(db, cfg); err != nil {
		logger.Log.Fatal("Failed to create default records", zap.Error(err))
	}
	if cfg.SeedSample {
		if err := database.SeedSample(db); err != nil {
			logger.Log.Fatal("Failed to seed sample data", zap.Error(err))
		}
		logger.Log.Info("Sample questions and students ensured")
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app, err := New(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to build application", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lan-exam", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}
	return app
}

// New 用已打开的连接组装两个服务，rdb 可为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	if err := validator.RegisterBindingRules(); err != nil {
		return nil, err
	}
	monitoring.Init()

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	svcs, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	app.services = svcs
	ctrls := app.initControllers(svcs, db, rdb)

	app.StudentRouter = gin.New()
	app.StudentRouter.Use(gin.Recovery(), requestLogger(serviceStudent))
	app.setupMiddlewares(app.StudentRouter, cfg, serviceStudent, cfg.CORS.StudentOrigins)
	app.registerStudentRoutes(app.StudentRouter, ctrls)

	app.AdminRouter = gin.New()
	app.AdminRouter.Use(gin.Recovery(), requestLogger(serviceAdmin))
	app.setupMiddlewares(app.AdminRouter, cfg, serviceAdmin, cfg.CORS.AdminOrigins)
	app.registerAdminRoutes(app.AdminRouter, ctrls)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		svcs.guard.SetLimits(newCfg.RateLimit.MaxLoginAttempts, newCfg.RateLimit.LoginWindow())
		logger.SetLevel(newCfg)
	})

	return app, nil
}

// requestLogger 用 zap 记录访问日志
func requestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Log.Debug("request",
			zap.String("service", serviceName),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (a *App) servers(serve string) ([]*http.Server, error) {
	student := &http.Server{Addr: ":" + a.Config.Server.StudentPort, Handler: a.StudentRouter}
	admin := &http.Server{Addr: ":" + a.Config.Server.AdminPort, Handler: a.AdminRouter}

	switch serve {
	case ServeStudent:
		return []*http.Server{student}, nil
	case ServeAdmin:
		return []*http.Server{admin}, nil
	case ServeAll, "":
		return []*http.Server{student, admin}, nil
	}
	return nil, fmt.Errorf("unknown -serve value %q", serve)
}

// Run 启动服务并阻塞，收到 SIGINT/SIGTERM 后优雅退出
func (a *App) Run(serve string) error {
	srvs, err := a.servers(serve)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Config.ConfigFile != "" {
		err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}

	errCh := make(chan error, len(srvs))
	for _, srv := range srvs {
		go func(srv *http.Server) {
			logger.Log.Info("Server running", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Log.Info("Shutting down servers...")
	case err = <-errCh:
		logger.Log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, srv := range srvs {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Log.Error("Server forced to shutdown", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
	wg.Wait()

	a.Close()
	logger.Log.Info("Server exiting")
	return err
}

// Close 释放后台任务与连接
func (a *App) Close() {
	for _, l := range a.limiters {
		l.Close()
	}
	if a.services != nil {
		a.services.monitor.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
