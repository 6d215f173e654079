package app

import (
	"github.com/faizerlangga999/ProjectCastleBeta/docs"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/config"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/middleware"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/model"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	a.registerPublicRoutes(router, c, cfg)
	a.registerSessionRoutes(router, c, cfg)
	a.registerUserRoutes(router, c, cfg)
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/quizzes", c.quiz.List)
		public.GET("/quizzes/:id", c.quiz.Detail)
		public.GET("/categories", c.category.List)
		public.GET("/lessons", c.lesson.List)
		public.GET("/lessons/:id", c.lesson.Detail)

		// forum reads allow guests; logged-in readers see their like state
		public.GET("/threads", middleware.TryAuthMiddleware(cfg), c.forum.ListThreads)
		public.GET("/threads/:id", middleware.TryAuthMiddleware(cfg), c.forum.ThreadDetail)
	}
}

func (a *App) registerSessionRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// Practice sessions are open to guests. Exam mode enforces
	// authentication inside the service, so start is only TryAuth.
	sessions := router.Group("/api/quiz/sessions")
	sessions.Use(middleware.TryAuthMiddleware(cfg))
	{
		sessions.POST("", c.session.Start)
		sessions.GET("/:id", c.session.State)
		sessions.POST("/:id/goto", c.session.GoTo)
		sessions.POST("/:id/next", c.session.Next)
		sessions.POST("/:id/prev", c.session.Prev)
		sessions.POST("/:id/select", c.session.Select)
		sessions.POST("/:id/confirm", c.session.Confirm)
		sessions.POST("/:id/submit", c.session.Submit)
		sessions.DELETE("/:id", c.session.Abandon)
	}
}

func (a *App) registerUserRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	authorized := router.Group("/api")
	authorized.Use(middleware.AuthMiddleware(cfg))
	{
		authorized.GET("/profile", c.auth.Profile)
		authorized.PUT("/profile", c.auth.UpdateProfile)
		authorized.POST("/profile/avatar", c.auth.UploadAvatar)
		authorized.GET("/attempts", c.quiz.MyAttempts)

		authorized.POST("/threads", c.forum.CreateThread)
		authorized.DELETE("/threads/:id", c.forum.DeleteThread)
		authorized.POST("/threads/upload", c.forum.UploadImage)
		authorized.POST("/threads/:id/comments", c.forum.CreateComment)
		authorized.DELETE("/comments/:id", c.forum.DeleteComment)
		authorized.POST("/threads/:id/like", c.forum.ToggleLike)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.GET("/dashboard", c.dashboard.Counts)
		admin.GET("/users", c.dashboard.Users)

		admin.POST("/quizzes", c.quiz.Create)
		admin.PUT("/quizzes/:id", c.quiz.Update)
		admin.DELETE("/quizzes/:id", c.quiz.Delete)
		admin.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
		admin.PUT("/questions/:id", c.quiz.UpdateQuestion)
		admin.DELETE("/questions/:id", c.quiz.DeleteQuestion)

		admin.POST("/ingest/csv", c.ingest.UploadCSV)
		admin.POST("/ingest/document", c.ingest.UploadDocument)
		admin.POST("/ingest/save", c.ingest.SaveDrafts)
		admin.POST("/markup/tokenize", c.ingest.Tokenize)

		admin.POST("/categories", c.category.Create)
		admin.DELETE("/categories/:id", c.category.Delete)

		admin.POST("/lessons", c.lesson.Create)
		admin.PUT("/lessons/:id", c.lesson.Update)
		admin.DELETE("/lessons/:id", c.lesson.Delete)
		admin.PUT("/lessons/reorder", c.lesson.Reorder)
	}
}
