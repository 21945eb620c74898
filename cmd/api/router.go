package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"publisher-backend/internal/shared/middleware"
	"publisher-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupPublicationRoutes(v1, c)
	}

	return router
}

func setupPublicationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	publications := v1.Group("/publications")
	{
		publications.POST("", c.PublicationHandler.CreatePublication)
		publications.GET("/:id", c.PublicationHandler.GetStatus)
		publications.POST("/:id/schedule", c.PublicationHandler.Schedule)
		publications.POST("/:id/publish", c.PublicationHandler.PublishNow)
		publications.POST("/:id/posts/:post_id/retry", c.PublicationHandler.RetryPost)
	}
}

// healthCheckHandler reports database and redis availability.
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		if err := c.DB.HealthCheck(checkCtx); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}

		if err := c.Redis.HealthCheck(checkCtx); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}

		ctx.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"version": c.Config.App.Version,
			"checks":  checks,
		})
	}
}
