package handler

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"refinener/internal/domain"
	"refinener/internal/service"
)

// ProjectHandler handles dataset import, export and history endpoints.
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// Create handles POST /api/v1/projects (multipart: file, optional name)
func (h *ProjectHandler) Create(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot read uploaded file")
		return
	}
	defer func() { _ = file.Close() }()

	summary, err := h.projectSvc.Create(c.Request.Context(), service.CreateProjectInput{
		Name:     c.PostForm("name"),
		Filename: fileHeader.Filename,
		Body:     file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, summary)
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	RespondOK(c, h.projectSvc.List(c.Request.Context()))
}

// GetByID handles GET /api/v1/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	summary, err := h.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}

// History handles GET /api/v1/projects/:id/history
func (h *ProjectHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.projectSvc.History(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entries)
}

// Undo handles POST /api/v1/projects/:id/history/undo
func (h *ProjectHandler) Undo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.projectSvc.Undo(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entry)
}

// Redo handles POST /api/v1/projects/:id/history/redo
func (h *ProjectHandler) Redo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.projectSvc.Redo(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, entry)
}

// Export handles GET /api/v1/projects/:id/export?format=csv|xlsx
func (h *ProjectHandler) Export(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	format := domain.DatasetFormat(c.DefaultQuery("format", string(domain.DatasetFormatCSV)))

	// Buffer so a failed export still gets a JSON error instead of a
	// truncated download.
	var buf bytes.Buffer
	filename, err := h.projectSvc.Export(c.Request.Context(), id, format, &buf)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, domain.DatasetContentTypes[format], buf.Bytes())
	log.Printf("handler.ProjectHandler.Export: project %s as %s (%d bytes)", id, format, buf.Len())
}

// Publish handles POST /api/v1/projects/:id/export/s3?format=csv|xlsx
func (h *ProjectHandler) Publish(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	format := domain.DatasetFormat(c.DefaultQuery("format", string(domain.DatasetFormatXLSX)))
	result, err := h.projectSvc.Publish(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, result)
}
