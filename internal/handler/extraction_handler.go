package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refinener/internal/service"
)

// ExtractionHandler handles extraction process endpoints.
type ExtractionHandler struct {
	extractionSvc service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionSvc service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionSvc: extractionSvc}
}

// Start handles POST /api/v1/projects/:id/extractions
func (h *ExtractionHandler) Start(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.StartExtractionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	info, err := h.extractionSvc.Start(c.Request.Context(), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, info)
}

// ListByProject handles GET /api/v1/projects/:id/extractions
func (h *ExtractionHandler) ListByProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	infos, err := h.extractionSvc.ListByProject(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, infos)
}

// Get handles GET /api/v1/processes/:id
func (h *ExtractionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	info, err := h.extractionSvc.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, info)
}

// Cancel handles DELETE /api/v1/processes/:id
func (h *ExtractionHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	info, err := h.extractionSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, info)
}
