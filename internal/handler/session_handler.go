package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type sessionGenerator interface {
	Generate(ctx context.Context, classID int64, req dto.GenerateSessionsRequest, actor *models.Actor) (*dto.GenerateSessionsResponse, error)
	Preview(ctx context.Context, classID int64, req dto.GenerateSessionsRequest) (*dto.GenerateSessionsResponse, error)
	ListSessions(ctx context.Context, classID int64, query dto.SessionListQuery) ([]models.ClassSessionDetail, error)
}

// SessionHandler exposes class session generation endpoints.
type SessionHandler struct {
	service sessionGenerator
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(svc sessionGenerator) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Generate godoc
// @Summary Generate class sessions from a weekday pattern
// @Description Expands the pattern into dated sessions and stores the planned end date. Fails with CONFLICT when the class already has sessions.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body dto.GenerateSessionsRequest true "Session pattern"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/sessions/generate [post]
func (h *SessionHandler) Generate(c *gin.Context) {
	classID, req, ok := h.bind(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), classID, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "mode", "persisted")
	response.JSON(c, http.StatusCreated, result, nil, middleware.ExtractMeta(c))
}

// Preview godoc
// @Summary Preview generated session dates
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body dto.GenerateSessionsRequest true "Session pattern"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/sessions/preview [post]
func (h *SessionHandler) Preview(c *gin.Context) {
	classID, req, ok := h.bind(c)
	if !ok {
		return
	}
	result, err := h.service.Preview(c.Request.Context(), classID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "mode", "preview")
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List class sessions
// @Tags Sessions
// @Produce json
// @Param id path int true "Class ID"
// @Param status query string false "PLANNED, COMPLETED or CANCELLED"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	classID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.SessionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session query"))
		return
	}
	sessions, err := h.service.ListSessions(c.Request.Context(), classID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

func (h *SessionHandler) bind(c *gin.Context) (int64, dto.GenerateSessionsRequest, bool) {
	var req dto.GenerateSessionsRequest
	classID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return 0, req, false
	}
	return classID, req, true
}
