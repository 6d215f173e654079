package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/controller"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/repository"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/service"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/database"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/logger"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/monitoring"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/security"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user     *repository.UserRepository
	category *repository.CategoryRepository
	quiz     *repository.QuizRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
	forum    *repository.ForumRepository
	lesson   *repository.LessonRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	quiz      *service.QuizService
	session   *service.SessionService
	ingest    *service.IngestService
	forum     *service.ForumService
	lesson    *service.LessonService
	category  *service.CategoryService
	dashboard *service.DashboardService
}

type controllers struct {
	auth      *controller.AuthController
	quiz      *controller.QuizController
	session   *controller.SessionController
	ingest    *controller.IngestController
	forum     *controller.ForumController
	lesson    *controller.LessonController
	category  *controller.CategoryController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		category: repository.NewCategoryRepository(db),
		quiz:     repository.NewQuizRepository(db),
		question: repository.NewQuestionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		forum:    repository.NewForumRepository(db),
		lesson:   repository.NewLessonRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg.JWT)
	s.quiz = service.NewQuizService(repos.quiz, repos.question, repos.attempt, rdb)
	s.session = service.NewSessionService(s.quiz, s.quiz)

	classifier := service.NewAIService(cfg.AI)
	s.ingest = service.NewIngestService(classifier, repos.quiz, repos.question, cfg.Ingest)

	s.forum = service.NewForumService(repos.forum, rdb)
	s.lesson = service.NewLessonService(repos.lesson)
	s.category = service.NewCategoryService(repos.category)
	s.dashboard = service.NewDashboardService(repos.user, repos.quiz, repos.question, repos.attempt, repos.lesson, repos.forum)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.storage),
		quiz:      controller.NewQuizController(s.quiz),
		session:   controller.NewSessionController(s.session, s.quiz),
		ingest:    controller.NewIngestController(s.ingest),
		forum:     controller.NewForumController(s.forum, s.storage),
		lesson:    controller.NewLessonController(s.lesson, s.storage),
		category:  controller.NewCategoryController(s.category),
		dashboard: controller.NewDashboardController(s.dashboard, s.auth),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	// migrate on the explicit flag, and always outside release mode
	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != "release")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("castle-quiz", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
