package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"refinener/internal/domain"
	"refinener/internal/handler"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrProjectNotFound, http.StatusNotFound, "PROJECT_NOT_FOUND"},
		{domain.ErrProcessNotFound, http.StatusNotFound, "PROCESS_NOT_FOUND"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidScope), http.StatusBadRequest, "INVALID_FILTER"},
		{domain.ErrNothingToRedo, http.StatusConflict, "NOTHING_TO_REDO"},
		{fmt.Errorf("revert: %w", domain.ErrStructuralViolation), http.StatusConflict, "CHANGE_CONFLICT"},
		{domain.ErrInvalidChangeState, http.StatusConflict, "CHANGE_CONFLICT"},
		{domain.ErrMalformedChange, http.StatusConflict, "CHANGE_CONFLICT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, msg := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestMapDomainError_InternalHidesDetail(t *testing.T) {
	_, _, msg := handler.MapDomainError(errors.New("password=hunter2"))
	assert.NotContains(t, msg, "hunter2")
}
