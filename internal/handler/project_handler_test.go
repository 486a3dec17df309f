package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/handler"
	"refinener/internal/service"
	"refinener/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProjectHandler() (*handler.ProjectHandler, *mocks.MockProjectService) {
	mockSvc := new(mocks.MockProjectService)
	return handler.NewProjectHandler(mockSvc), mockSvc
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func multipartUpload(t *testing.T, filename, content, name string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestProjectHandler_Create_Success(t *testing.T) {
	h, mockSvc := newProjectHandler()

	summary := &dataset.Summary{ID: uuid.New(), Name: "cities", Columns: []string{"id", "text"}, RowCount: 2}
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateProjectInput) bool {
		data, _ := io.ReadAll(in.Body)
		return in.Filename == "cities.csv" && in.Name == "cities" && string(data) == "id,text\n1,Paris\n"
	})).Return(summary, nil)

	body, contentType := multipartUpload(t, "cities.csv", "id,text\n1,Paris\n", "cities")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_Create_MissingFile(t *testing.T) {
	h, mockSvc := newProjectHandler()

	body, contentType := multipartUpload(t, "", "", "cities")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectHandler_Create_UnsupportedFormat(t *testing.T) {
	h, mockSvc := newProjectHandler()
	mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrUnsupportedFormat)

	body, contentType := multipartUpload(t, "cities.json", "{}", "")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", decode(t, w).Error.Code)
}

func TestProjectHandler_GetByID(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Get", mock.Anything, id).Return(&dataset.Summary{ID: id, Name: "cities"}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestProjectHandler_GetByID_InvalidID(t *testing.T) {
	h, mockSvc := newProjectHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects/nope", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
	mockSvc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestProjectHandler_GetByID_NotFound(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Get", mock.Anything, id).Return(nil, domain.ErrProjectNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", decode(t, w).Error.Code)
}

func TestProjectHandler_List(t *testing.T) {
	h, mockSvc := newProjectHandler()
	mockSvc.On("List", mock.Anything).Return([]dataset.Summary{{Name: "a"}, {Name: "b"}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []dataset.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestProjectHandler_Undo_NothingToUndo(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Undo", mock.Anything, id).Return(nil, domain.ErrNothingToUndo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects/"+id.String()+"/history/undo", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Undo(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOTHING_TO_UNDO", decode(t, w).Error.Code)
}

func TestProjectHandler_Redo(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	entry := &domain.HistoryEntry{ID: uuid.New(), ProjectID: id, Seq: 1, State: domain.EntryStateApplied}
	mockSvc.On("Redo", mock.Anything, id).Return(entry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects/"+id.String()+"/history/redo", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Redo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"applied"`)
}

func TestProjectHandler_History(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("History", mock.Anything, id).Return([]domain.HistoryEntry{
		{Seq: 1, Description: "Recognize named entities in column text", State: domain.EntryStateUndone},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects/"+id.String()+"/history", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.History(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Recognize named entities in column text")
	assert.NotContains(t, w.Body.String(), "change_data")
}

func TestProjectHandler_Export(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Export", mock.Anything, id, domain.DatasetFormatCSV, mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = args.Get(3).(io.Writer).Write([]byte("id,text\n1,Paris\n"))
		}).
		Return("cities_2026-01-01.csv", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects/"+id.String()+"/export", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cities_2026-01-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,text\n1,Paris\n", w.Body.String())
}

func TestProjectHandler_Export_Failure(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Export", mock.Anything, id, domain.DatasetFormatXLSX, mock.Anything).Return("", errors.New("disk error"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/projects/"+id.String()+"/export?format=xlsx", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w).Error.Code)
}

func TestProjectHandler_Publish_StorageDisabled(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Publish", mock.Anything, id, domain.DatasetFormatXLSX).Return(nil, domain.ErrExportStorageDisabled)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects/"+id.String()+"/export/s3", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Publish(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "EXPORT_STORAGE_DISABLED", decode(t, w).Error.Code)
}

func TestProjectHandler_Publish(t *testing.T) {
	h, mockSvc := newProjectHandler()
	id := uuid.New()
	mockSvc.On("Publish", mock.Anything, id, domain.DatasetFormatCSV).Return(&service.ExportResult{
		Key: "exports/x/cities.csv", URL: "https://bucket.example/exports/x/cities.csv?sig=1",
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/projects/"+id.String()+"/export/s3?format=csv", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Publish(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "exports/x/cities.csv")
}
