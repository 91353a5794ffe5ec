package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	student := router.Group("/api")
	student.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Student))
	registerQuizAttemptRoutes(student, c)
}

func registerQuizAttemptRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/courses/:courseId/quizzes/:quizId/attempts", c.quizAttempt.StartAttempt)
	rg.GET("/quizzes/:quizId/attempts", c.quizAttempt.GetAttemptSummary)
	rg.PUT("/attempts/:attemptId/answers/:questionId", c.quizAttempt.SubmitAnswer)
	rg.POST("/attempts/:attemptId/submit", c.quizAttempt.SubmitAttempt)
}
