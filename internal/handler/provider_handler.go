package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refinener/internal/provider"
	"refinener/internal/service"
)

// ProviderHandler handles provider listing and configuration.
type ProviderHandler struct {
	providerSvc service.ProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providerSvc service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerSvc: providerSvc}
}

// List handles GET /api/v1/providers
func (h *ProviderHandler) List(c *gin.Context) {
	RespondOK(c, h.providerSvc.List())
}

// Update handles PUT /api/v1/providers/:name
func (h *ProviderHandler) Update(c *gin.Context) {
	var req provider.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	info, err := h.providerSvc.Configure(c.Param("name"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, info)
}
