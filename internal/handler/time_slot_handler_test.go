package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type timeSlotAssignerFake struct {
	err error
}

func (f *timeSlotAssignerFake) AssignTimeSlots(ctx context.Context, classID int64, req dto.AssignTimeSlotsRequest, actor *models.Actor) (*dto.AssignTimeSlotsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AssignTimeSlotsResponse{Success: true, ClassID: classID, SessionsUpdated: 4}, nil
}

func TestTimeSlotHandlerAssign(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimeSlotHandler(&timeSlotAssignerFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/classes/8/time-slots/assign", dto.AssignTimeSlotsRequest{
		Assignments: []dto.TimeSlotPatternEntry{{DayOfWeek: 1, TimeSlotTemplateID: 2}},
	})
	c.Params = gin.Params{{Key: "id", Value: "8"}}

	handler.Assign(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessionsUpdated":4`)
}

func TestTimeSlotHandlerNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimeSlotHandler(&timeSlotAssignerFake{err: appErrors.Clone(appErrors.ErrNotFound, "class not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/classes/8/time-slots/assign", dto.AssignTimeSlotsRequest{
		Assignments: []dto.TimeSlotPatternEntry{{DayOfWeek: 1, TimeSlotTemplateID: 2}},
	})
	c.Params = gin.Params{{Key: "id", Value: "8"}}

	handler.Assign(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
