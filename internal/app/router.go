package app

import (
	"workshop_form_backend/docs"
	"workshop_form_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 表单页面
	a.registerPageRoutes(router, c)

	// 2. JSON 接口
	a.registerAPIRoutes(router, c)
}

func (a *App) registerPageRoutes(router *gin.Engine, c *controllers) {
	router.GET("/", c.page.Index)
	router.POST("/answers", c.page.PostAnswer)
	router.POST("/answers/confirm", c.page.PostConfirm)
	router.POST("/questions", c.page.PostQuestion)
}

func (a *App) registerAPIRoutes(router *gin.Engine, c *controllers) {
	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		api.GET("/questions/labels", c.answer.ListLabels)
		api.POST("/questions", c.question.SubmitQuestion)

		api.POST("/answers", c.answer.SubmitAnswer)
		api.POST("/answers/confirm", c.answer.ConfirmOverwrite)
	}
}
