package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matteworks/matte-server/internal/api"
	"github.com/matteworks/matte-server/internal/api/middleware"
	"github.com/matteworks/matte-server/internal/app"
)

func (s *Server) SetupRoutes(app *app.App) {
	// Health check endpoint
	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Not an API, just a simple file server endpoint
	s.ginEngine.GET("/file/:filename", handlerWrapper(app, api.GetFile))

	apiV1 := s.ginEngine.Group("/api/v1")

	// Authentication middleware
	apiV1.Use(handlerWrapper(app, middleware.AuthenticationMiddleware))

	apiV1.POST("/upload", handlerWrapper(app, api.UploadFile))
	apiV1.POST("/segment", handlerWrapper(app, api.SegmentImageSync))
	apiV1.POST("/segment_async", handlerWrapper(app, api.SegmentImageAsync))

	apiV1.GET("/models", handlerWrapper(app, api.ListModels))
	apiV1.POST("/models/load", handlerWrapper(app, api.LoadModel))
	apiV1.POST("/models/reset", handlerWrapper(app, api.ResetModel))

	apiV1.GET("/jobs/:id", handlerWrapper(app, api.GetJob))
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}
