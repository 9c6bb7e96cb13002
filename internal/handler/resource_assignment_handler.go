package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type resourceAssigner interface {
	AssignResources(ctx context.Context, classID int64, req dto.AssignResourcesRequest, actor *models.Actor) (*dto.AssignResourcesResponse, error)
	PreviewConflicts(ctx context.Context, classID int64, req dto.AssignResourcesRequest) (*dto.AssignResourcesResponse, error)
	ExportConflicts(ctx context.Context, classID int64, req dto.AssignResourcesRequest, format dto.ExportFormat) (*service.ExportFile, error)
	SuggestAlternatives(ctx context.Context, resourceID int64, query dto.SuggestionQuery) ([]dto.ResourceSuggestion, error)
}

// ResourceAssignmentHandler exposes resource binding endpoints.
type ResourceAssignmentHandler struct {
	service resourceAssigner
}

// NewResourceAssignmentHandler constructs the handler.
func NewResourceAssignmentHandler(svc resourceAssigner) *ResourceAssignmentHandler {
	return &ResourceAssignmentHandler{service: svc}
}

// Assign godoc
// @Summary Assign resources to class sessions by weekday
// @Description Binds the requested resource to every session whose weekday appears in the pattern. Conflicting sessions are reported with ranked alternatives and left unchanged. skipConflictCheck overwrites without checks.
// @Tags Resources
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body dto.AssignResourcesRequest true "Weekday to resource pattern"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /classes/{id}/resources/assign [post]
func (h *ResourceAssignmentHandler) Assign(c *gin.Context) {
	classID, req, ok := bindResourcePattern(c)
	if !ok {
		return
	}
	result, err := h.service.AssignResources(c.Request.Context(), classID, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview resource conflicts without binding
// @Tags Resources
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body dto.AssignResourcesRequest true "Weekday to resource pattern"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/resources/preview [post]
func (h *ResourceAssignmentHandler) Preview(c *gin.Context) {
	classID, req, ok := bindResourcePattern(c)
	if !ok {
		return
	}
	result, err := h.service.PreviewConflicts(c.Request.Context(), classID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export a resource conflict preview
// @Tags Resources
// @Accept json
// @Produce text/csv,application/pdf
// @Param id path int true "Class ID"
// @Param format query string false "csv (default) or pdf"
// @Param payload body dto.AssignResourcesRequest true "Weekday to resource pattern"
// @Success 200 {file} file
// @Router /classes/{id}/resources/preview/export [post]
func (h *ResourceAssignmentHandler) Export(c *gin.Context) {
	var query dto.ConflictExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	classID, req, ok := bindResourcePattern(c)
	if !ok {
		return
	}
	file, err := h.service.ExportConflicts(c.Request.Context(), classID, req, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Suggestions godoc
// @Summary Rank alternatives to a resource for a class
// @Tags Resources
// @Produce json
// @Param id path int true "Resource ID"
// @Param classId query int true "Class whose sessions drive availability"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/suggestions [get]
func (h *ResourceAssignmentHandler) Suggestions(c *gin.Context) {
	resourceID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.SuggestionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion query"))
		return
	}
	suggestions, err := h.service.SuggestAlternatives(c.Request.Context(), resourceID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}

func bindResourcePattern(c *gin.Context) (int64, dto.AssignResourcesRequest, bool) {
	var req dto.AssignResourcesRequest
	classID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resource pattern payload"))
		return 0, req, false
	}
	return classID, req, true
}
