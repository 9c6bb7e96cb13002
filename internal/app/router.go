package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/training-center-api/internal/handler"
	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/pkg/config"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/training-center-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/training-center-api/pkg/middleware/requestid"
	"github.com/noah-isme/training-center-api/pkg/response"
)

// NewRouter mounts the scheduling API and operational endpoints.
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(c.Metrics))

	metricsHandler := handler.NewMetricsHandler(c.Metrics, map[string]handler.ReadinessCheck{
		"postgres": c.PingDatabase,
		"redis":    c.PingCache,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	sessions := handler.NewSessionHandler(c.Sessions)
	resources := handler.NewResourceAssignmentHandler(c.Resources)
	timeSlots := handler.NewTimeSlotHandler(c.TimeSlots)
	policies := handler.NewPolicyHandler(c.Policies)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(requestTimeout(cfg.Scheduler.RequestTimeout))
	api.Use(middleware.JWT(c.Auth))

	scheduling := api.Group("")
	scheduling.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleAcademicStaff))
	{
		scheduling.POST("/classes/:id/sessions/generate", sessions.Generate)
		scheduling.POST("/classes/:id/sessions/preview", sessions.Preview)
		scheduling.GET("/classes/:id/sessions", sessions.List)
		scheduling.POST("/classes/:id/resources/assign", resources.Assign)
		scheduling.POST("/classes/:id/resources/preview", resources.Preview)
		scheduling.POST("/classes/:id/resources/preview/export", resources.Export)
		scheduling.POST("/classes/:id/time-slots/assign", timeSlots.Assign)
		scheduling.GET("/resources/:id/suggestions", resources.Suggestions)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	{
		admin.GET("/policies", policies.List)
		admin.PUT("/policies", policies.Update)
		admin.GET("/metrics/system", metricsHandler.System)
	}

	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	return r
}

// requestTimeout bounds the request context so locks and queries give up with the client.
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
