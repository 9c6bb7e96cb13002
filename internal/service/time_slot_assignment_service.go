package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type timeSlotSessionStore interface {
	LockByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) ([]models.ClassSessionDetail, error)
	UpdateTimeSlot(ctx context.Context, exec sqlx.ExtContext, sessionID, templateID int64) error
}

type timeSlotTemplateReader interface {
	FindByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.TimeSlotTemplate, error)
}

// TimeSlotAssignmentService binds time slot templates to planned sessions by weekday.
type TimeSlotAssignmentService struct {
	classes   schedulingClassReader
	sessions  timeSlotSessionStore
	templates timeSlotTemplateReader
	tx        txProvider
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTimeSlotAssignmentService wires the time slot assigner.
func NewTimeSlotAssignmentService(classes schedulingClassReader, sessions timeSlotSessionStore, templates timeSlotTemplateReader, tx txProvider, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TimeSlotAssignmentService {
	if validate == nil {
		validate = newRequestValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotAssignmentService{
		classes:   classes,
		sessions:  sessions,
		templates: templates,
		tx:        tx,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// AssignTimeSlots applies each entry independently. Entries that fail are reported with an error
// message while the others still commit; COMPLETED and CANCELLED sessions are never re-slotted.
func (s *TimeSlotAssignmentService) AssignTimeSlots(ctx context.Context, classID int64, req dto.AssignTimeSlotsRequest, actor *models.Actor) (*dto.AssignTimeSlotsResponse, error) {
	started := time.Now()
	violations := collectViolations(s.validator, req)
	days := make([]int, len(req.Assignments))
	for i, entry := range req.Assignments {
		days[i] = entry.DayOfWeek
	}
	violations = append(violations, duplicateWeekdays("assignments", days)...)
	if err := violationError("time slot assignments", violations); err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sessions, err := s.sessions.LockByClass(ctx, tx, class.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock class sessions")
		return nil, err
	}

	ids := make([]int64, 0, len(req.Assignments))
	for _, entry := range req.Assignments {
		ids = append(ids, entry.TimeSlotTemplateID)
	}
	found, err := s.templates.FindByIDs(ctx, tx, ids)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot templates")
		return nil, err
	}
	templates := make(map[int64]models.TimeSlotTemplate, len(found))
	for _, tpl := range found {
		templates[tpl.ID] = tpl
	}

	planned := make(map[int][]models.ClassSessionDetail, 7)
	for _, session := range sessions {
		if session.Status != models.SessionStatusPlanned {
			continue
		}
		planned[session.DayOfWeek()] = append(planned[session.DayOfWeek()], session)
	}

	resp := &dto.AssignTimeSlotsResponse{
		ClassID:           class.ID,
		ClassCode:         class.Code,
		TotalSessions:     len(sessions),
		AssignmentDetails: make([]dto.TimeSlotAssignmentDetail, 0, len(req.Assignments)),
	}
	failed := 0
	for _, entry := range req.Assignments {
		detail := dto.TimeSlotAssignmentDetail{
			DayOfWeek:          entry.DayOfWeek,
			DayName:            DayName(entry.DayOfWeek),
			TimeSlotTemplateID: entry.TimeSlotTemplateID,
		}
		tpl, ok := templates[entry.TimeSlotTemplateID]
		if ok {
			detail.TimeSlotName = tpl.Name
			detail.StartTime = tpl.StartTime
			detail.EndTime = tpl.EndTime
		}
		if reason := entryRejection(entry, tpl, ok, len(planned[entry.DayOfWeek])); reason != "" {
			detail.ErrorMessage = &reason
			failed++
			resp.AssignmentDetails = append(resp.AssignmentDetails, detail)
			continue
		}

		for _, session := range planned[entry.DayOfWeek] {
			if err = s.sessions.UpdateTimeSlot(ctx, tx, session.ID, tpl.ID); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bind time slot to session")
				return nil, err
			}
		}
		detail.SessionsAffected = len(planned[entry.DayOfWeek])
		detail.Successful = true
		resp.SessionsUpdated += detail.SessionsAffected
		resp.AssignmentDetails = append(resp.AssignmentDetails, detail)
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit time slot assignment")
		return nil, err
	}

	resp.UpdatedAt = s.now().UTC()
	resp.Success = failed == 0
	if resp.Success {
		resp.Message = fmt.Sprintf("time slots assigned to %d sessions", resp.SessionsUpdated)
	} else {
		resp.Message = fmt.Sprintf("%d of %d entries failed; %d sessions updated", failed, len(req.Assignments), resp.SessionsUpdated)
	}

	s.metrics.ObserveAssignment(AssignmentKindTimeSlot, false, resp.SessionsUpdated, time.Since(started))
	s.logger.Info("time slot assignment committed",
		zap.Int64("class_id", class.ID),
		zap.Int("sessions_updated", resp.SessionsUpdated),
		zap.Int("failed_entries", failed),
	)
	if s.audit != nil && resp.SessionsUpdated > 0 {
		s.audit.Record(ctx, newAuditLog(actor, models.AuditActionTimeSlotAssign, models.AuditResourceClassSchedule, strconv.FormatInt(class.ID, 10), nil, map[string]interface{}{
			"assignments":     req.Assignments,
			"sessionsUpdated": resp.SessionsUpdated,
			"failedEntries":   failed,
		}))
	}
	return resp, nil
}

// entryRejection explains why an entry cannot be applied, or returns "".
func entryRejection(entry dto.TimeSlotPatternEntry, tpl models.TimeSlotTemplate, found bool, plannedCount int) string {
	if !found {
		return fmt.Sprintf("time slot template %d not found", entry.TimeSlotTemplateID)
	}
	if tpl.Status != models.TimeSlotStatusActive {
		return fmt.Sprintf("time slot template %s is inactive", tpl.Name)
	}
	start, startErr := parseClock(tpl.StartTime)
	end, endErr := parseClock(tpl.EndTime)
	if startErr != nil || endErr != nil || start >= end {
		return fmt.Sprintf("time slot template %s has an invalid time range %s-%s", tpl.Name, tpl.StartTime, tpl.EndTime)
	}
	if plannedCount == 0 {
		return fmt.Sprintf("class has no planned sessions on %s", DayName(entry.DayOfWeek))
	}
	return ""
}
