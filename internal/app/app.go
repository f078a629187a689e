package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshop_form_backend/internal/config"
	"workshop_form_backend/internal/controller"
	"workshop_form_backend/internal/middleware"
	"workshop_form_backend/internal/repository"
	"workshop_form_backend/internal/service"
	"workshop_form_backend/internal/web"
	"workshop_form_backend/pkg/configwatcher"
	"workshop_form_backend/pkg/database"
	"workshop_form_backend/pkg/lock"
	"workshop_form_backend/pkg/logger"
	"workshop_form_backend/pkg/monitoring"
	"workshop_form_backend/pkg/retry"
	"workshop_form_backend/pkg/security"
	"workshop_form_backend/pkg/sheets"
	"workshop_form_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 使用 mysql 后端且未配置答案表名称时的默认名称
const defaultAnswerSheet = "回答"

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Handle          *sheets.Handle
	Catalog         *service.QuestionCatalog
	tracer          *sdktrace.TracerProvider
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	answer   *repository.AnswerRepository
	question *repository.QuestionRepository
}

type services struct {
	answer   *service.AnswerService
	question *service.QuestionService
}

type controllers struct {
	answer   *controller.AnswerController
	question *controller.QuestionController
	page     *controller.PageController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(cfg *config.Config) *repositories {
	return &repositories{
		answer:   repository.NewAnswerRepository(a.Handle, cfg.Sheets.AnswerSheet),
		question: repository.NewQuestionRepository(a.Handle, cfg.Sheets.QuestionSheet),
	}
}

func (a *App) initServices(repos *repositories, executor *retry.Executor, locker lock.Locker, loc *time.Location) *services {
	return &services{
		answer:   service.NewAnswerService(repos.answer, a.Catalog, executor, locker),
		question: service.NewQuestionService(repos.question, executor, loc),
	}
}

func (a *App) initControllers(s *services, cfg *config.Config) *controllers {
	return &controllers{
		answer:   controller.NewAnswerController(s.answer, a.Catalog, cfg.Token),
		question: controller.NewQuestionController(s.question),
		page:     controller.NewPageController(s.answer, s.question, a.Catalog, cfg.Token),
		health:   controller.NewHealthController(a.Handle),
	}
}

func newExecutor(cfg *config.Config) *retry.Executor {
	return retry.NewExecutor(retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	}, sheets.IsTransient, retry.WithLogger(logger.Log))
}

// openerFor 按配置的后端构造工作簿打开函数，打开本身也经过重试
func (a *App) openerFor(ctx context.Context, cfg *config.Config, executor *retry.Executor) (sheets.Opener, error) {
	switch cfg.Sheets.Backend {
	case config.BackendMySQL:
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		a.DB = db

		if cfg.Sheets.AnswerSheet == "" {
			cfg.Sheets.AnswerSheet = defaultAnswerSheet
		}
		book := repository.NewWorkbookRepository(db)
		for _, title := range []string{cfg.Sheets.AnswerSheet, cfg.Sheets.QuestionSheet} {
			if err := book.EnsureSheet(title); err != nil {
				return nil, fmt.Errorf("ensure sheet %q: %w", title, err)
			}
		}
		return func(ctx context.Context) (sheets.Workbook, error) {
			return book, nil
		}, nil

	default:
		svc, err := sheets.NewGoogleService(ctx, sheets.GoogleCredentials{
			File: cfg.Sheets.CredentialsFile,
			JSON: cfg.Sheets.CredentialsJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		key := cfg.Sheets.SpreadsheetKey
		return func(ctx context.Context) (sheets.Workbook, error) {
			return retry.Do(ctx, executor, nil, "open_by_key", func(ctx context.Context) (sheets.Workbook, error) {
				book, err := sheets.OpenGoogle(ctx, svc, key)
				if err != nil {
					return nil, err
				}
				return book, nil
			})
		}, nil
	}
}

func (a *App) lockerFor(cfg *config.Config) (lock.Locker, error) {
	if cfg.Lock.Type != config.LockRedis {
		return lock.NewLocal(), nil
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("initialize redis: %w", err)
	}
	a.Redis = rdb
	return lock.NewRedis(rdb, cfg.Lock.TTL), nil
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// build 组装路由与服务，工作簿打开方式和锁由调用方决定
func (a *App) build(ctx context.Context, opener sheets.Opener, executor *retry.Executor, locker lock.Locker) error {
	cfg := a.Config

	loc, err := time.LoadLocation(cfg.Form.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Form.Timezone, err)
	}

	if cfg.Token.Secret == "" {
		// 未配置密钥时确认令牌只在本进程内有效
		cfg.Token.Secret = uuid.NewString() + uuid.NewString()
		logger.Log.Warn("Token secret not configured, using a random per-process secret")
	}

	a.Handle = sheets.NewHandle(opener, cfg.Sheets.CacheTTL)
	a.Catalog = service.NewQuestionCatalog(cfg.Form.QuestionLabels)
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		// 已有答案按列存放，改动旧标签会让答案落到别的问题下
		if err := a.Catalog.Replace(newCfg.Form.QuestionLabels); err != nil {
			logger.Log.Error("Rejected question label reload, keeping current labels", zap.Error(err))
			return
		}
		logger.Log.Info("Question labels reloaded", zap.Int("count", len(newCfg.Form.QuestionLabels)))
	})

	repos := a.initRepositories(cfg)
	svcs := a.initServices(repos, executor, locker, loc)
	ctrls := a.initControllers(svcs, cfg)

	monitoring.Init()

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(web.Templates())
	a.Router = router

	a.setupMiddlewares(ctx, router, cfg)
	a.registerRoutes(router, ctrls)
	return nil
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		cancel:    cancel,
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("workshop-form", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	executor := newExecutor(cfg)

	opener, err := app.openerFor(ctx, cfg, executor)
	if err != nil {
		logger.Log.Fatal("Failed to initialize spreadsheet backend", zap.Error(err))
	}

	locker, err := app.lockerFor(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize locker", zap.Error(err))
	}

	if err := app.build(ctx, opener, executor, locker); err != nil {
		logger.Log.Fatal("Failed to build application", zap.Error(err))
	}

	// 工作簿连接失败时终止，不再接受任何请求
	for _, name := range []string{cfg.Sheets.AnswerSheet, cfg.Sheets.QuestionSheet} {
		if _, err := app.Handle.Sheet(ctx, name); err != nil {
			logger.Log.Fatal("Failed to open spreadsheet", zap.String("sheet", name), zap.Error(err))
		}
	}

	app.startBackgroundTasks(ctx)
	return app
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	if a.ConfigDir == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, a.ConfigDir, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.Close(ctx)
	log.Println("Server exiting")
}

// Close 停止后台任务并释放外部连接
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if err := tracing.Shutdown(ctx, a.tracer); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
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
