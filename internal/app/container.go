package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/repository"
	"github.com/noah-isme/training-center-api/internal/service"
	"github.com/noah-isme/training-center-api/pkg/cache"
	"github.com/noah-isme/training-center-api/pkg/config"
	"github.com/noah-isme/training-center-api/pkg/database"
	"github.com/noah-isme/training-center-api/pkg/jobs"
)

// Container holds the scheduling services shared by the API gateway and the CLI.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sqlx.DB
	Redis    *redis.Client
	Location *time.Location

	Metrics     *service.MetricsService
	Audit       *service.AuditService
	Auth        *service.AuthService
	Policies    *service.PolicyService
	Sessions    *service.SessionGeneratorService
	Resources   *service.ResourceAssignmentService
	TimeSlots   *service.TimeSlotAssignmentService
	Suggestions *service.SuggestionRanker
}

// NewContainer connects to Postgres and, when enabled, Redis, then wires every service.
// The audit queue is started; call Close to drain it and release connections.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache.Enabled)
	if err != nil {
		// the suggestion cache is optional; run without it
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Redis: redisClient, Location: location}
	c.wire(ctx)
	return c, nil
}

func (c *Container) wire(ctx context.Context) {
	cfg := c.Config

	classRepo := repository.NewClassRepository(c.DB)
	sessionRepo := repository.NewClassSessionRepository(c.DB)
	subjectRepo := repository.NewSubjectRepository(c.DB)
	resourceRepo := repository.NewResourceRepository(c.DB)
	bookingRepo := repository.NewBookingRepository(c.DB)
	templateRepo := repository.NewTimeSlotTemplateRepository(c.DB)
	configRepo := repository.NewConfigurationRepository(c.DB)
	auditRepo := repository.NewAuditRepository(c.DB)

	c.Metrics = service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if c.Redis != nil {
		cacheRepo = repository.NewCacheRepository(c.Redis, repository.BreakerSettings{
			Timeout:          cfg.Cache.BreakerTimeout,
			FailureThreshold: cfg.Cache.BreakerThreshold,
		}, c.Logger)
	}
	cacheSvc := service.NewCacheService(cacheRepo, c.Metrics, cfg.Cache.DefaultTTL, c.Logger, cfg.Cache.Enabled)

	c.Audit = service.NewAuditService(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     c.Logger,
	})
	c.Audit.Start(ctx)

	c.Auth = service.NewAuthService(c.Logger, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
	c.Policies = service.NewPolicyService(configRepo, c.Audit, nil, c.Logger)

	detector := service.NewConflictDetector(bookingRepo, c.Location)
	c.Suggestions = service.NewSuggestionRanker(resourceRepo, bookingRepo, c.Policies, cacheSvc, c.Metrics, c.Logger, service.SuggestionRankerConfig{
		CacheTTL: cfg.Scheduler.SuggestionCacheTTL,
		Location: c.Location,
	})

	c.Resources = service.NewResourceAssignmentService(
		classRepo,
		sessionRepo,
		resourceRepo,
		detector,
		c.Suggestions,
		c.DB,
		c.Audit,
		c.Metrics,
		nil,
		c.Logger,
		service.ResourceAssignmentConfig{LockNamespace: cfg.Scheduler.LockNamespace},
	)
	c.TimeSlots = service.NewTimeSlotAssignmentService(classRepo, sessionRepo, templateRepo, c.DB, c.Audit, c.Metrics, nil, c.Logger)
	c.Sessions = service.NewSessionGeneratorService(classRepo, subjectRepo, sessionRepo, templateRepo, c.DB, c.Audit, c.Metrics, nil, c.Logger, c.Location)
}

// PingDatabase reports whether Postgres answers.
func (c *Container) PingDatabase(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// PingCache reports whether Redis answers. A disabled cache is always ready.
func (c *Container) PingCache(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Ping(ctx).Err()
}

// Close drains pending audit writes and closes connections.
func (c *Container) Close() {
	if c.Audit != nil {
		c.Audit.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}
