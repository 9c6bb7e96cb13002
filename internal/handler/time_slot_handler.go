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

type timeSlotAssigner interface {
	AssignTimeSlots(ctx context.Context, classID int64, req dto.AssignTimeSlotsRequest, actor *models.Actor) (*dto.AssignTimeSlotsResponse, error)
}

// TimeSlotHandler exposes time slot binding.
type TimeSlotHandler struct {
	service timeSlotAssigner
}

// NewTimeSlotHandler constructs the handler.
func NewTimeSlotHandler(svc timeSlotAssigner) *TimeSlotHandler {
	return &TimeSlotHandler{service: svc}
}

// Assign godoc
// @Summary Assign time slot templates to planned sessions by weekday
// @Description Each entry is applied independently; success is true only when every entry succeeded.
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body dto.AssignTimeSlotsRequest true "Weekday to template pattern"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/time-slots/assign [post]
func (h *TimeSlotHandler) Assign(c *gin.Context) {
	classID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignTimeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time slot payload"))
		return
	}
	result, err := h.service.AssignTimeSlots(c.Request.Context(), classID, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
