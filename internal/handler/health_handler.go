package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"refinener/internal/dataset"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db         *sqlx.DB
	projects   *dataset.Store
	publishing bool
}

// NewHealthHandler creates a new HealthHandler. publishing reports whether
// export publishing to object storage is configured.
func NewHealthHandler(db *sqlx.DB, projects *dataset.Store, publishing bool) *HealthHandler {
	return &HealthHandler{db: db, projects: projects, publishing: publishing}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. Undo history is persisted to the change
// log, so the server is not ready while it cannot be reached.
func (h *HealthHandler) Readiness(c *gin.Context) {
	body := gin.H{
		"change_log":        h.db.DriverName(),
		"projects":          h.projects.Len(),
		"export_publishing": h.publishing,
	}
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		body["status"] = "unavailable"
		body["error"] = "change log not reachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ok"
	c.JSON(http.StatusOK, body)
}
