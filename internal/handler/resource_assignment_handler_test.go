package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type resourceAssignerFake struct {
	lastClassID int64
	lastReq     dto.AssignResourcesRequest
	lastActor   *models.Actor
	lastFormat  dto.ExportFormat
	lastQuery   dto.SuggestionQuery
	err         error
}

func (f *resourceAssignerFake) AssignResources(ctx context.Context, classID int64, req dto.AssignResourcesRequest, actor *models.Actor) (*dto.AssignResourcesResponse, error) {
	f.lastClassID, f.lastReq, f.lastActor = classID, req, actor
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AssignResourcesResponse{ClassID: classID, TotalSessions: 5, SuccessCount: 5, Conflicts: []dto.ResourceConflictDetail{}}, nil
}

func (f *resourceAssignerFake) PreviewConflicts(ctx context.Context, classID int64, req dto.AssignResourcesRequest) (*dto.AssignResourcesResponse, error) {
	f.lastClassID, f.lastReq = classID, req
	return &dto.AssignResourcesResponse{ClassID: classID, Conflicts: []dto.ResourceConflictDetail{}}, nil
}

func (f *resourceAssignerFake) ExportConflicts(ctx context.Context, classID int64, req dto.AssignResourcesRequest, format dto.ExportFormat) (*service.ExportFile, error) {
	f.lastFormat = format
	return &service.ExportFile{Filename: "class-1-resource-conflicts.pdf", ContentType: "application/pdf", Body: []byte("%PDF-1.3")}, nil
}

func (f *resourceAssignerFake) SuggestAlternatives(ctx context.Context, resourceID int64, query dto.SuggestionQuery) ([]dto.ResourceSuggestion, error) {
	f.lastQuery = query
	return []dto.ResourceSuggestion{{ResourceID: 7, AvailabilityRate: 100, IsRecommended: true}}, nil
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body []byte
	switch v := payload.(type) {
	case string:
		body = []byte(v)
	default:
		var err error
		body, err = json.Marshal(v)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestResourceAssignmentHandlerAssign(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &resourceAssignerFake{}
	handler := NewResourceAssignmentHandler(fake)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/classes/12/resources/assign", dto.AssignResourcesRequest{
		Pattern:           []dto.ResourcePatternEntry{{DayOfWeek: 1, ResourceID: 101}},
		SkipConflictCheck: true,
	})
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleAcademicStaff})

	handler.Assign(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), fake.lastClassID)
	assert.True(t, fake.lastReq.SkipConflictCheck)
	require.NotNil(t, fake.lastActor)
	assert.Equal(t, "staff-1", fake.lastActor.UserID)

	var envelope struct {
		Data dto.AssignResourcesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 5, envelope.Data.SuccessCount)
	assert.Contains(t, rec.Body.String(), `"conflicts":[]`)
}

func TestResourceAssignmentHandlerRejectsBadInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewResourceAssignmentHandler(&resourceAssignerFake{})

	cases := []struct {
		name  string
		param string
		body  interface{}
	}{
		{name: "non numeric id", param: "abc", body: dto.AssignResourcesRequest{}},
		{name: "negative id", param: "-4", body: dto.AssignResourcesRequest{}},
		{name: "malformed body", param: "1", body: `{"pattern": "monday"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = jsonRequest(t, http.MethodPost, "/classes/x/resources/assign", tc.body)
			c.Params = gin.Params{{Key: "id", Value: tc.param}}

			handler.Assign(c)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), appErrors.ErrValidation.Code)
		})
	}
}

func TestResourceAssignmentHandlerMapsServiceErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewResourceAssignmentHandler(&resourceAssignerFake{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "branch mismatch")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/classes/1/resources/assign", dto.AssignResourcesRequest{Pattern: []dto.ResourcePatternEntry{{DayOfWeek: 1, ResourceID: 9}}})
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Assign(c)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestResourceAssignmentHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &resourceAssignerFake{}
	handler := NewResourceAssignmentHandler(fake)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/classes/1/resources/preview/export?format=pdf", dto.AssignResourcesRequest{Pattern: []dto.ResourcePatternEntry{{DayOfWeek: 1, ResourceID: 9}}})
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ExportFormatPDF, fake.lastFormat)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "class-1-resource-conflicts.pdf")
}

func TestResourceAssignmentHandlerSuggestions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &resourceAssignerFake{}
	handler := NewResourceAssignmentHandler(fake)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/resources/5/suggestions?classId=12", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Suggestions(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), fake.lastQuery.ClassID)
	assert.Contains(t, rec.Body.String(), `"isRecommended":true`)
}
