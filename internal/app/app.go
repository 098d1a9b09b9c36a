package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jsr_backend/internal/config"
	"jsr_backend/internal/controller"
	"jsr_backend/internal/middleware"
	"jsr_backend/internal/repository"
	"jsr_backend/internal/service"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/database"
	"jsr_backend/pkg/logger"
	"jsr_backend/pkg/monitoring"
	"jsr_backend/pkg/security"
	"jsr_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Services *Services

	tracer          *sdktrace.TracerProvider
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	admin    *repository.AdminRepository
	resource *repository.ResourceRepository
	vote     *repository.VoteRepository
	bookmark *repository.BookmarkRepository
	comment  *repository.CommentRepository
	category *repository.CategoryRepository
	typeRepo *repository.ResourceTypeRepository
}

// Services 命令行子命令也会直接使用
type Services struct {
	Auth        *service.AuthService
	Gate        *service.AuthGate
	Storage     *service.StorageService
	Resource    *service.ResourceService
	Vote        *service.VoteService
	Interaction *service.InteractionService
	Taxonomy    *service.TaxonomyService
	Preview     *service.PreviewService
	Seed        *service.SeedService
}

type controllers struct {
	auth        *controller.AuthController
	resource    *controller.ResourceController
	interaction *controller.InteractionController
	taxonomy    *controller.TaxonomyController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热加载后调用
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		admin:    repository.NewAdminRepository(db),
		resource: repository.NewResourceRepository(db),
		vote:     repository.NewVoteRepository(db),
		bookmark: repository.NewBookmarkRepository(db),
		comment:  repository.NewCommentRepository(db),
		category: repository.NewCategoryRepository(db),
		typeRepo: repository.NewResourceTypeRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*Services, error) {
	s := &Services{}

	verifiers, err := service.BuildVerifiers(cfg, repos.user)
	if err != nil {
		return nil, err
	}
	s.Gate = service.NewAuthGate(verifiers...)
	s.Auth = service.NewAuthService(repos.user, repos.admin, cfg)
	s.Storage = service.NewStorageService(cfg)

	limits := repository.QueryLimits{
		DefaultLimit:     cfg.Resources.DefaultLimit,
		MaxLimit:         cfg.Resources.MaxLimit,
		MinTextSearchLen: cfg.Resources.MinTextSearchLen,
	}
	s.Resource = service.NewResourceService(repos.resource, repos.category, repos.typeRepo, s.Storage, limits)
	s.Vote = service.NewVoteService(repos.vote, repos.resource)
	s.Interaction = service.NewInteractionService(
		repos.vote,
		repos.bookmark,
		repos.comment,
		repos.resource,
		cfg.Resources.MaxBatchIDs,
		cfg.Resources.CommentMaxLength,
	)
	s.Taxonomy = service.NewTaxonomyService(repos.category, repos.typeRepo, repos.resource)
	s.Preview = service.NewPreviewService(
		rdb,
		time.Duration(cfg.Preview.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Preview.CacheTTLHours)*time.Hour,
	)
	s.Seed = &service.SeedService{
		Categories:   repos.category,
		Types:        repos.typeRepo,
		Users:        repos.user,
		Resources:    repos.resource,
		Interactions: s.Interaction,
		Votes:        s.Vote,
		Auth:         s.Auth,
	}

	logger.Log.Info("Token verifiers configured", zap.Strings("order", s.Gate.VerifierNames()))
	return s, nil
}

func (a *App) initControllers(s *Services, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.Auth),
		resource:    controller.NewResourceController(s.Resource, s.Preview, cfg.Resources),
		interaction: controller.NewInteractionController(s.Vote, s.Interaction, cfg.Resources),
		taxonomy:    controller.NewTaxonomyController(s.Taxonomy),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.Recovery(cfg.IsDebug()))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.WindowMinutes > 0 {
		router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(util.ContextRequestIDKey))
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 基于已建立的连接组装应用，rdb 可为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		cancel: cancel,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		cancel()
		return nil, err
	}
	app.Services = services
	controllers := app.initControllers(services, cfg, db, rdb)

	// 监控初始化
	monitoring.Init()

	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	app.Router = router

	app.setupMiddlewares(ctx, router, cfg)
	app.registerRoutes(router, controllers, repos, services)

	app.RegisterConfigCallback(logger.SetLevel)
	return app, nil
}

// Bootstrap 建立数据库、Redis 与追踪，按需执行迁移
func Bootstrap(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(&cfg.Database, cfg.IsDebug())
	if err != nil {
		return nil, err
	}

	// 开发模式、sqlite 或显式要求时自动迁移
	if cfg.IsDebug() || cfg.ForceMigrate || cfg.Database.Driver == database.DriverSQLite {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		logger.Log.Info("Database migrated")
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存不可用时继续运行
		logger.Log.Warn("Redis unavailable, link previews will not be cached", zap.Error(err))
		rdb = nil
	}

	app, err := New(cfg, db, rdb)
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(&cfg.Tracing)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}
	return app, nil
}

// Close 释放后台任务与外部连接
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Run 阻塞直到收到中断信号或 ctx 取消
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Log.Info("Server exiting")
	return nil
}
