package app

import (
	"lingua_exam_backend/internal/config"
	"lingua_exam_backend/internal/middleware"
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. public catalog
	a.registerPublicRoutes(router, c)

	// 2. candidate routes
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerCandidateRoutes(authGroup, c)

		adaptive := authGroup.Group("/adaptive")
		{
			adaptive.POST("/sections/:sectionId/next", c.adaptive.Next)
			adaptive.GET("/sections/:sectionId/bank", middleware.RoleMiddleware(model.Teacher), c.adaptive.Bank)
		}
	}

	// 3. admin routes
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/exams", c.exam.ListExams)
		public.GET("/exams/:examId", c.exam.GetExam)
		public.GET("/exams/:examId/sections/:sectionId", c.exam.GetSection)
	}
}

func (a *App) registerCandidateRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/exams/:examId/start", c.exam.StartAttempt)

	attempts := rg.Group("/exam-attempts")
	{
		attempts.GET("", c.attempt.ListAttempts)
		attempts.GET("/:attemptId", c.attempt.GetAttempt)
		attempts.GET("/:attemptId/progress", c.attempt.GetProgress)
		attempts.POST("/:attemptId/submit", c.attempt.SubmitExam)
		attempts.POST("/:attemptId/sections/:sectionId/start", c.attempt.StartSection)
		attempts.PUT("/:attemptId/sections/:sectionId/answers", c.attempt.RecordAnswers)
		attempts.POST("/:attemptId/sections/:sectionId/submit", c.attempt.SubmitSection)
		attempts.GET("/:attemptId/sections/:sectionId/next", c.attempt.NextQuestion)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/exams/import", c.admin.ImportExam)
		admin.GET("/exam-attempts", c.admin.ListAttempts)
		admin.POST("/exam-attempts/:attemptId/expire", c.admin.ExpireAttempt)
	}

	// rubric grading is open to teachers as well
	grading := router.Group("/api/admin")
	grading.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Teacher))
	{
		grading.POST("/exam-attempts/:attemptId/sections/:sectionId/grade", c.admin.GradeSection)
	}
}
