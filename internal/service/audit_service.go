package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditRecorder interface {
	Record(ctx context.Context, log *models.AuditLog)
}

// AuditService writes audit records off the request path through a worker queue.
type AuditService struct {
	writer auditWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService builds the service and its queue. Call Start before recording.
func NewAuditService(writer auditWriter, cfg jobs.QueueConfig) *AuditService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	svc := &AuditService{writer: writer, logger: cfg.Logger}
	svc.queue = jobs.NewQueue("audit", svc.handle, cfg)
	return svc
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains pending audit records.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit record. When the queue refuses it the record is written inline.
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	if s == nil || log == nil {
		return
	}
	err := s.queue.Enqueue(ctx, jobs.Job{Type: auditJobType, Payload: log})
	if err == nil {
		return
	}
	s.logger.Warn("audit queue unavailable, writing inline", zap.String("action", log.Action), zap.Error(err))
	if err := s.writer.CreateAuditLog(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Error("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.writer.CreateAuditLog(ctx, log)
}

func newAuditLog(actor *models.Actor, action, resource, resourceID string, oldValues, newValues interface{}) *models.AuditLog {
	log := &models.AuditLog{
		Action:   action,
		Resource: resource,
	}
	if resourceID != "" {
		log.ResourceID = &resourceID
	}
	if actor != nil {
		if actor.UserID != "" {
			userID := actor.UserID
			log.UserID = &userID
		}
		log.IPAddress = actor.IPAddress
		log.UserAgent = actor.UserAgent
	}
	if oldValues != nil {
		log.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		log.NewValues, _ = json.Marshal(newValues)
	}
	return log
}
