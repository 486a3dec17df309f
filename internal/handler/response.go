package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"refinener/internal/domain"
	"refinener/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 response for work that continues in the background.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error
// codes. Configuration errors carry the wrapped detail so callers can see
// which name was rejected.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "PROJECT_NOT_FOUND", "project not found"
	case errors.Is(err, domain.ErrProcessNotFound):
		return http.StatusNotFound, "PROCESS_NOT_FOUND", "process not found"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "UNKNOWN_PROVIDER", err.Error()
	case errors.Is(err, domain.ErrUnknownSetting):
		return http.StatusBadRequest, "UNKNOWN_SETTING", err.Error()
	case errors.Is(err, domain.ErrUnknownColumn):
		return http.StatusBadRequest, "UNKNOWN_COLUMN", err.Error()
	case errors.Is(err, domain.ErrDuplicateColumn):
		return http.StatusConflict, "DUPLICATE_COLUMN", err.Error()
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return http.StatusBadRequest, "PROVIDER_NOT_CONFIGURED", err.Error()
	case errors.Is(err, domain.ErrNoProviders):
		return http.StatusBadRequest, "NO_PROVIDERS", "at least one configured provider is required"
	case errors.Is(err, domain.ErrInvalidScope):
		return http.StatusBadRequest, "INVALID_FILTER", err.Error()
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "unsupported dataset format; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrExportStorageDisabled):
		return http.StatusServiceUnavailable, "EXPORT_STORAGE_DISABLED", "export storage is not configured"
	case errors.Is(err, domain.ErrNothingToUndo):
		return http.StatusConflict, "NOTHING_TO_UNDO", "nothing to undo"
	case errors.Is(err, domain.ErrNothingToRedo):
		return http.StatusConflict, "NOTHING_TO_REDO", "nothing to redo"
	case errors.Is(err, domain.ErrStructuralViolation), errors.Is(err, domain.ErrInvalidChangeState),
		errors.Is(err, domain.ErrMalformedChange):
		return http.StatusConflict, "CHANGE_CONFLICT", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get(middleware.RequestIDKey)
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}

// parseID reads a UUID path parameter. On failure the 400 response is
// already written.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
