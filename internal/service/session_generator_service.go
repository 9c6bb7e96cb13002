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
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

const pqUniqueViolation = "23505"

type generatorClassStore interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) error
	UpdatePlannedEndDate(ctx context.Context, exec sqlx.ExtContext, id int64, endDate time.Time) error
}

type generatorSubjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type generatorSessionStore interface {
	ListByClass(ctx context.Context, classID int64, status string) ([]models.ClassSessionDetail, error)
	CountByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) (int, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error
}

// SessionGeneratorService expands a class's weekday pattern into dated sessions.
type SessionGeneratorService struct {
	classes   generatorClassStore
	subjects  generatorSubjectReader
	sessions  generatorSessionStore
	templates timeSlotTemplateReader
	tx        txProvider
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
}

// NewSessionGeneratorService wires the generator. location governs how startDate is read.
func NewSessionGeneratorService(classes generatorClassStore, subjects generatorSubjectReader, sessions generatorSessionStore, templates timeSlotTemplateReader, tx txProvider, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, location *time.Location) *SessionGeneratorService {
	if validate == nil {
		validate = newRequestValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &SessionGeneratorService{
		classes:   classes,
		subjects:  subjects,
		sessions:  sessions,
		templates: templates,
		tx:        tx,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		location:  location,
	}
}

type sessionPlan struct {
	class     *models.Class
	start     time.Time
	dates     []time.Time
	slotByDay map[int]int64
}

// Preview returns the dates Generate would create without persisting anything.
func (s *SessionGeneratorService) Preview(ctx context.Context, classID int64, req dto.GenerateSessionsRequest) (*dto.GenerateSessionsResponse, error) {
	plan, err := s.plan(ctx, classID, req, nil)
	if err != nil {
		return nil, err
	}
	return plan.response(nil), nil
}

// Generate persists the expanded sessions and the class's planned end date in one transaction.
// A class that already has sessions is refused with CONFLICT.
func (s *SessionGeneratorService) Generate(ctx context.Context, classID int64, req dto.GenerateSessionsRequest, actor *models.Actor) (*dto.GenerateSessionsResponse, error) {
	started := time.Now()
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

	var plan *sessionPlan
	plan, err = s.plan(ctx, classID, req, tx)
	if err != nil {
		return nil, err
	}

	if err = s.classes.LockByID(ctx, tx, plan.class.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "class not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock class")
		return nil, err
	}

	var existing int
	existing, err = s.sessions.CountByClass(ctx, tx, plan.class.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class sessions")
		return nil, err
	}
	if existing > 0 {
		err = appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class %s already has %d sessions", plan.class.Code, existing))
		return nil, err
	}

	sessions := make([]models.ClassSession, len(plan.dates))
	for i, date := range plan.dates {
		sessions[i] = models.ClassSession{
			ClassID:     plan.class.ID,
			SequenceNo:  i + 1,
			SessionDate: date,
			Status:      models.SessionStatusPlanned,
		}
		if slot, ok := plan.slotByDay[int(date.Weekday())]; ok {
			id := slot
			sessions[i].TimeSlotTemplateID = &id
		}
	}
	if err = s.sessions.BulkCreate(ctx, tx, sessions); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = appErrors.Clone(appErrors.ErrConflict, "sessions were generated concurrently for this class")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class sessions")
		return nil, err
	}
	end := plan.dates[len(plan.dates)-1]
	if err = s.classes.UpdatePlannedEndDate(ctx, tx, plan.class.ID, end); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update planned end date")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generated sessions")
		return nil, err
	}

	resp := plan.response(sessions)
	s.metrics.ObserveAssignment(AssignmentKindSessions, false, len(sessions), time.Since(started))
	s.logger.Info("class sessions generated",
		zap.Int64("class_id", plan.class.ID),
		zap.Int("total_sessions", len(sessions)),
		zap.String("planned_end_date", resp.PlannedEndDate),
	)
	if s.audit != nil {
		s.audit.Record(ctx, newAuditLog(actor, models.AuditActionSessionGenerate, models.AuditResourceClassSchedule, strconv.FormatInt(plan.class.ID, 10), nil, map[string]interface{}{
			"startDate":      resp.StartDate,
			"daysOfWeek":     req.DaysOfWeek,
			"totalSessions":  resp.TotalSessions,
			"plannedEndDate": resp.PlannedEndDate,
		}))
	}
	return resp, nil
}

// ListSessions returns a class's sessions in sequence order, optionally filtered by status.
func (s *SessionGeneratorService) ListSessions(ctx context.Context, classID int64, query dto.SessionListQuery) ([]models.ClassSessionDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session filter")
	}
	if _, err := s.loadClass(ctx, classID); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByClass(ctx, classID, query.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sessions")
	}
	if sessions == nil {
		sessions = []models.ClassSessionDetail{}
	}
	return sessions, nil
}

func (s *SessionGeneratorService) plan(ctx context.Context, classID int64, req dto.GenerateSessionsRequest, exec sqlx.ExtContext) (*sessionPlan, error) {
	violations := collectViolations(s.validator, req)
	violations = append(violations, duplicateWeekdays("daysOfWeek", req.DaysOfWeek)...)
	slotDays := make([]int, len(req.TimeSlots))
	for i, entry := range req.TimeSlots {
		slotDays[i] = entry.DayOfWeek
	}
	violations = append(violations, duplicateWeekdays("timeSlots", slotDays)...)
	selected := make(map[int]bool, len(req.DaysOfWeek))
	for _, day := range req.DaysOfWeek {
		selected[day] = true
	}
	for i, entry := range req.TimeSlots {
		if !selected[entry.DayOfWeek] {
			violations = append(violations, fmt.Sprintf("timeSlots[%d].dayOfWeek %d is not in daysOfWeek", i, entry.DayOfWeek))
		}
	}
	if err := violationError("session pattern", violations); err != nil {
		return nil, err
	}

	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	start := class.StartDate
	if req.StartDate != "" {
		start, err = time.ParseInLocation(dateLayout, req.StartDate, s.location)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must match 2006-01-02")
		}
	} else {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.location)
	}

	total := req.TotalSessions
	if total == 0 {
		subject, err := s.subjects.FindByID(ctx, class.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		if subject.TotalSessions <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s has no session count; provide totalSessions", subject.Code))
		}
		total = subject.TotalSessions
	}

	slotByDay, err := s.resolveSlots(ctx, exec, req.TimeSlots)
	if err != nil {
		return nil, err
	}

	dates, err := ExpandSessionDates(start, total, req.DaysOfWeek)
	if err != nil {
		return nil, err
	}
	return &sessionPlan{class: class, start: start, dates: dates, slotByDay: slotByDay}, nil
}

func (s *SessionGeneratorService) resolveSlots(ctx context.Context, exec sqlx.ExtContext, entries []dto.TimeSlotPatternEntry) (map[int]int64, error) {
	slotByDay := make(map[int]int64, len(entries))
	if len(entries) == 0 {
		return slotByDay, nil
	}
	ids := make([]int64, len(entries))
	for i, entry := range entries {
		ids[i] = entry.TimeSlotTemplateID
	}
	found, err := s.templates.FindByIDs(ctx, exec, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot templates")
	}
	templates := make(map[int64]models.TimeSlotTemplate, len(found))
	for _, tpl := range found {
		templates[tpl.ID] = tpl
	}
	var violations []string
	for _, entry := range entries {
		tpl, ok := templates[entry.TimeSlotTemplateID]
		if reason := entryRejection(entry, tpl, ok, 1); reason != "" {
			violations = append(violations, reason)
			continue
		}
		slotByDay[entry.DayOfWeek] = tpl.ID
	}
	if err := violationError("time slots", violations); err != nil {
		return nil, err
	}
	return slotByDay, nil
}

func (s *SessionGeneratorService) loadClass(ctx context.Context, classID int64) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// response renders the plan; persisted carries generated ids when present.
func (p *sessionPlan) response(persisted []models.ClassSession) *dto.GenerateSessionsResponse {
	resp := &dto.GenerateSessionsResponse{
		ClassID:        p.class.ID,
		TotalSessions:  len(p.dates),
		StartDate:      p.start.Format(dateLayout),
		PlannedEndDate: p.dates[len(p.dates)-1].Format(dateLayout),
		Persisted:      persisted != nil,
		Sessions:       make([]dto.GeneratedSession, len(p.dates)),
	}
	for i, date := range p.dates {
		day := int(date.Weekday())
		session := dto.GeneratedSession{
			SessionNumber: i + 1,
			Date:          date.Format(dateLayout),
			DayOfWeek:     day,
		}
		if slot, ok := p.slotByDay[day]; ok {
			id := slot
			session.TimeSlotTemplateID = &id
		}
		if persisted != nil {
			session.SessionID = persisted[i].ID
		}
		resp.Sessions[i] = session
	}
	return resp
}
