package handler_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"refinener/internal/domain"
	"refinener/internal/extraction"
	"refinener/internal/handler"
	"refinener/internal/service"
	"refinener/mocks"
)

func newExtractionHandler() (*handler.ExtractionHandler, *mocks.MockExtractionService) {
	mockSvc := new(mocks.MockExtractionService)
	return handler.NewExtractionHandler(mockSvc), mockSvc
}

func TestExtractionHandler_Start_Accepted(t *testing.T) {
	h, mockSvc := newExtractionHandler()
	projectID := uuid.New()
	info := &extraction.ProcessInfo{ID: uuid.New(), ProjectID: projectID, Status: domain.ProcessStatusRunning}

	mockSvc.On("Start", mock.Anything, projectID, mock.MatchedBy(func(in service.StartExtractionInput) bool {
		return in.Column == "text" &&
			len(in.Providers) == 2 && in.Providers[0] == "Dandelion" &&
			in.Settings["Dandelion"]["Language"] == "en" &&
			len(in.Filter.Facets) == 1 && in.Filter.Facets[0].Mode == domain.FilterModeNonBlank
	})).Return(info, nil)

	body := `{
		"column": "text",
		"providers": ["Dandelion", "DBpedia Spotlight"],
		"settings": {"Dandelion": {"Language": "en"}},
		"filter": {"facets": [{"column": "text", "mode": "nonblank"}]}
	}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects/"+projectID.String()+"/extractions", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: projectID.String()}}

	h.Start(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"running"`)
	mockSvc.AssertExpectations(t)
}

func TestExtractionHandler_Start_MissingColumn(t *testing.T) {
	h, mockSvc := newExtractionHandler()
	projectID := uuid.New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"providers":["Dandelion"]}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: projectID.String()}}

	h.Start(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
	mockSvc.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtractionHandler_Start_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown column", fmt.Errorf("%w: %q", domain.ErrUnknownColumn, "txt"), http.StatusBadRequest, "UNKNOWN_COLUMN"},
		{"duplicate column", fmt.Errorf("%w: %q", domain.ErrDuplicateColumn, "Dandelion"), http.StatusConflict, "DUPLICATE_COLUMN"},
		{"unknown provider", fmt.Errorf("%w: %q", domain.ErrUnknownProvider, "Nope"), http.StatusBadRequest, "UNKNOWN_PROVIDER"},
		{"unconfigured", fmt.Errorf("%w: %q", domain.ErrProviderNotConfigured, "Dandelion"), http.StatusBadRequest, "PROVIDER_NOT_CONFIGURED"},
		{"no providers", domain.ErrNoProviders, http.StatusBadRequest, "NO_PROVIDERS"},
		{"project not found", domain.ErrProjectNotFound, http.StatusNotFound, "PROJECT_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc := newExtractionHandler()
			projectID := uuid.New()
			mockSvc.On("Start", mock.Anything, projectID, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"column":"text","providers":["Dandelion"]}`))
			c.Request.Header.Set("Content-Type", "application/json")
			c.Params = gin.Params{{Key: "id", Value: projectID.String()}}

			h.Start(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error.Code)
		})
	}
}

func TestExtractionHandler_Get(t *testing.T) {
	h, mockSvc := newExtractionHandler()
	id := uuid.New()
	mockSvc.On("Get", mock.Anything, id).Return(&extraction.ProcessInfo{ID: id, Status: domain.ProcessStatusDone, Progress: 100}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/processes/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"progress":100`)
}

func TestExtractionHandler_Cancel_NotFound(t *testing.T) {
	h, mockSvc := newExtractionHandler()
	id := uuid.New()
	mockSvc.On("Cancel", mock.Anything, id).Return(nil, domain.ErrProcessNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/api/v1/processes/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Cancel(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PROCESS_NOT_FOUND", decode(t, w).Error.Code)
}

func TestExtractionHandler_ListByProject(t *testing.T) {
	h, mockSvc := newExtractionHandler()
	projectID := uuid.New()
	mockSvc.On("ListByProject", mock.Anything, projectID).Return([]extraction.ProcessInfo{
		{ID: uuid.New(), Status: domain.ProcessStatusCanceled},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: projectID.String()}}

	h.ListByProject(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"canceled"`)
}
