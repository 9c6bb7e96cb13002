package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/response"
)

type policyService interface {
	List(ctx context.Context) ([]dto.PolicyItem, error)
	Update(ctx context.Context, req dto.UpdatePolicyRequest, actor *models.Actor) (*dto.PolicyItem, error)
}

// PolicyHandler exposes scheduling policy endpoints.
type PolicyHandler struct {
	service policyService
}

// NewPolicyHandler builds a new handler.
func NewPolicyHandler(service policyService) *PolicyHandler {
	return &PolicyHandler{service: service}
}

// List godoc
// @Summary List scheduling policies
// @Tags Policies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /policies [get]
func (h *PolicyHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Update godoc
// @Summary Override a scheduling policy
// @Tags Policies
// @Accept json
// @Produce json
// @Param payload body dto.UpdatePolicyRequest true "Policy payload"
// @Success 200 {object} response.Envelope
// @Router /policies [put]
func (h *PolicyHandler) Update(c *gin.Context) {
	var req dto.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid policy payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
