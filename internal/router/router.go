package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refinener/internal/config"
	"refinener/internal/handler"
	"refinener/internal/middleware"
)

// Handlers groups the HTTP handlers wired into the engine.
type Handlers struct {
	Health     *handler.HealthHandler
	Provider   *handler.ProviderHandler
	Project    *handler.ProjectHandler
	Extraction *handler.ExtractionHandler
	// Metrics serves the Prometheus registry; nil disables the route.
	Metrics http.Handler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)
	if h.Metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(h.Metrics))
	}

	v1 := r.Group("/api/v1")

	// Provider routes
	providers := v1.Group("/providers")
	providers.GET("", h.Provider.List)
	providers.PUT("/:name", h.Provider.Update)

	// Project routes
	projects := v1.Group("/projects")
	projects.POST("", middleware.MaxBodySize(cfg.Server.MaxUploadSize<<20), h.Project.Create)
	projects.GET("", h.Project.List)
	projects.GET("/:id", h.Project.GetByID)
	projects.GET("/:id/history", h.Project.History)
	projects.POST("/:id/history/undo", h.Project.Undo)
	projects.POST("/:id/history/redo", h.Project.Redo)
	projects.GET("/:id/export", h.Project.Export)
	projects.POST("/:id/export/s3", h.Project.Publish)
	projects.POST("/:id/extractions", h.Extraction.Start)
	projects.GET("/:id/extractions", h.Extraction.ListByProject)

	// Process routes
	processes := v1.Group("/processes")
	processes.GET("/:id", h.Extraction.Get)
	processes.DELETE("/:id", h.Extraction.Cancel)

	return r
}
