package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/config"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		JWT:       config.JWTConfig{Secret: testSecret},
		Scheduler: config.SchedulerConfig{RequestTimeout: time.Second},
	}
	c := &Container{
		Config:  cfg,
		Logger:  zap.NewNop(),
		Metrics: service.NewMetricsService(),
		Auth:    service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: testSecret}),
	}
	return NewRouter(c)
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthIsPublic(t *testing.T) {
	r := newTestRouter(t)
	rec := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRequiresToken(t *testing.T) {
	r := newTestRouter(t)
	rec := serve(r, http.MethodPost, "/api/v1/classes/1/resources/assign", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterRoleGates(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, http.MethodPost, "/api/v1/classes/1/resources/preview", bearer(t, models.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(r, http.MethodGet, "/api/v1/policies", bearer(t, models.RoleAcademicStaff))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(r, http.MethodGet, "/api/v1/metrics/system", bearer(t, models.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data")
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newTestRouter(t)
	rec := serve(r, http.MethodGet, "/api/v1/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
