package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
	"github.com/noah-isme/training-center-api/pkg/export"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type schedulingClassReader interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
}

type assignmentSessionStore interface {
	LockByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) ([]models.ClassSessionDetail, error)
	ListByClass(ctx context.Context, classID int64, status string) ([]models.ClassSessionDetail, error)
	UpdateResource(ctx context.Context, exec sqlx.ExtContext, sessionID, resourceID int64) error
}

type assignmentResourceDirectory interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Resource, error)
	FindByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.Resource, error)
	LockForAssignment(ctx context.Context, exec sqlx.ExtContext, namespace int, ids []int64) error
}

type resourceConflictDetector interface {
	Detect(ctx context.Context, exec sqlx.ExtContext, session models.ClassSessionDetail, resourceID int64, resource *models.Resource, class *models.Class) (*ResourceConflict, error)
}

type resourceSuggestionRanker interface {
	Rank(ctx context.Context, class *models.Class, sessions []models.ClassSessionDetail, requested models.Resource) ([]dto.ResourceSuggestion, error)
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ResourceAssignmentConfig governs locking behaviour.
type ResourceAssignmentConfig struct {
	LockNamespace int
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ResourceAssignmentService binds resources to class sessions by weekday pattern and reports
// per-session conflicts with ranked alternatives.
type ResourceAssignmentService struct {
	classes   schedulingClassReader
	sessions  assignmentSessionStore
	resources assignmentResourceDirectory
	detector  resourceConflictDetector
	ranker    resourceSuggestionRanker
	tx        txProvider
	audit     auditRecorder
	metrics   *MetricsService
	renderers map[dto.ExportFormat]datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ResourceAssignmentConfig
}

// NewResourceAssignmentService wires assignment dependencies.
func NewResourceAssignmentService(
	classes schedulingClassReader,
	sessions assignmentSessionStore,
	resources assignmentResourceDirectory,
	detector resourceConflictDetector,
	ranker resourceSuggestionRanker,
	tx txProvider,
	audit auditRecorder,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ResourceAssignmentConfig,
) *ResourceAssignmentService {
	if validate == nil {
		validate = newRequestValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceAssignmentService{
		classes:   classes,
		sessions:  sessions,
		resources: resources,
		detector:  detector,
		ranker:    ranker,
		tx:        tx,
		audit:     audit,
		metrics:   metrics,
		renderers: map[dto.ExportFormat]datasetRenderer{
			dto.ExportFormatCSV: export.NewCSVExporter(),
			dto.ExportFormatPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

type pendingConflict struct {
	session    models.ClassSessionDetail
	resourceID int64
	resource   *models.Resource
	conflict   *ResourceConflict
}

type assignmentRun struct {
	class     *models.Class
	sessions  []models.ClassSessionDetail
	total     int
	success   int
	conflicts []pendingConflict
}

// AssignResources applies the weekday pattern to every session of the class. Sessions without a
// pattern entry are left untouched; conflicting sessions are reported and left unchanged while the
// rest are committed. With SkipConflictCheck every eligible session is overwritten.
func (s *ResourceAssignmentService) AssignResources(ctx context.Context, classID int64, req dto.AssignResourcesRequest, actor *models.Actor) (*dto.AssignResourcesResponse, error) {
	started := time.Now()
	if err := s.validatePattern(req); err != nil {
		return nil, err
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
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
	ids := patternResourceIDs(req.Pattern)
	if err = s.resources.LockForAssignment(ctx, tx, s.cfg.LockNamespace, ids); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock requested resources")
		return nil, err
	}

	var run *assignmentRun
	run, err = s.evaluate(ctx, tx, class, sessions, req, true)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit resource assignment")
		return nil, err
	}

	resp := s.buildResponse(ctx, run)
	elapsed := time.Since(started)
	resp.ProcessingTimeMs = elapsed.Milliseconds()
	s.metrics.ObserveAssignment(AssignmentKindResource, req.SkipConflictCheck, run.success, elapsed)

	fields := []zap.Field{
		zap.Int64("class_id", class.ID),
		zap.Int("total_sessions", run.total),
		zap.Int("success_count", run.success),
		zap.Int("conflict_count", len(run.conflicts)),
		zap.Int64("processing_time_ms", resp.ProcessingTimeMs),
	}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.UserID))
	}
	action := models.AuditActionResourceAssign
	if req.SkipConflictCheck {
		action = models.AuditActionResourceForceAssign
		s.logger.Warn("forced resource assignment committed without conflict checks", fields...)
	} else {
		s.logger.Info("resource assignment committed", fields...)
	}
	if s.audit != nil {
		s.audit.Record(ctx, newAuditLog(actor, action, models.AuditResourceClassSchedule, strconv.FormatInt(class.ID, 10), nil, map[string]interface{}{
			"pattern":           req.Pattern,
			"skipConflictCheck": req.SkipConflictCheck,
			"totalSessions":     resp.TotalSessions,
			"successCount":      resp.SuccessCount,
			"conflictCount":     resp.ConflictCount,
		}))
	}

	return resp, nil
}

// PreviewConflicts reports what AssignResources would do without binding anything or taking locks.
func (s *ResourceAssignmentService) PreviewConflicts(ctx context.Context, classID int64, req dto.AssignResourcesRequest) (*dto.AssignResourcesResponse, error) {
	started := time.Now()
	if err := s.validatePattern(req); err != nil {
		return nil, err
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByClass(ctx, class.ID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class sessions")
	}
	run, err := s.evaluate(ctx, nil, class, sessions, req, false)
	if err != nil {
		return nil, err
	}
	resp := s.buildResponse(ctx, run)
	elapsed := time.Since(started)
	resp.ProcessingTimeMs = elapsed.Milliseconds()
	s.metrics.ObserveAssignment(AssignmentKindPreview, req.SkipConflictCheck, 0, elapsed)
	return resp, nil
}

// ExportConflicts renders a preview as a CSV or PDF document.
func (s *ResourceAssignmentService) ExportConflicts(ctx context.Context, classID int64, req dto.AssignResourcesRequest, format dto.ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = dto.ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	preview, err := s.PreviewConflicts(ctx, classID, req)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Session", "Date", "Day", "Time Slot", "Requested Resource", "Conflict", "Reason", "Conflicting Class", "Best Alternative"},
	}
	for _, conflict := range preview.Conflicts {
		row := map[string]string{
			"Session":            strconv.Itoa(conflict.SessionNumber),
			"Date":               conflict.Date,
			"Day":                DayName(conflict.DayOfWeek),
			"Requested Resource": conflict.RequestedResourceName,
			"Conflict":           string(conflict.ConflictType),
			"Reason":             conflict.ConflictReason,
		}
		if conflict.TimeSlotStart != nil && conflict.TimeSlotEnd != nil {
			row["Time Slot"] = *conflict.TimeSlotStart + "-" + *conflict.TimeSlotEnd
		}
		if conflict.ConflictingClassName != nil {
			row["Conflicting Class"] = *conflict.ConflictingClassName
		}
		if len(conflict.Suggestions) > 0 {
			best := conflict.Suggestions[0]
			row["Best Alternative"] = fmt.Sprintf("%s - %s (%.2f%%)", best.ResourceCode, best.ResourceName, best.AvailabilityRate)
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	title := fmt.Sprintf("Resource conflicts for class %d: %d of %d sessions", preview.ClassID, preview.ConflictCount, preview.TotalSessions)
	body, err := renderer.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render conflict export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("class-%d-resource-conflicts.%s", preview.ClassID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// SuggestAlternatives ranks alternatives to resourceID for every session of the class.
func (s *ResourceAssignmentService) SuggestAlternatives(ctx context.Context, resourceID int64, query dto.SuggestionQuery) ([]dto.ResourceSuggestion, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion query")
	}
	class, err := s.loadClass(ctx, query.ClassID)
	if err != nil {
		return nil, err
	}
	resource, err := s.resources.FindByID(ctx, nil, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	if resource.BranchID != class.BranchID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "resource belongs to a different branch than the class")
	}
	sessions, err := s.sessions.ListByClass(ctx, class.ID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class sessions")
	}
	suggestions, err := s.ranker.Rank(ctx, class, sessions, *resource)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank alternatives")
	}
	return suggestions, nil
}

// evaluate walks every session, detects conflicts and, when commit is set, binds the resource.
// Whole-request failures (missing or foreign resources under force, branch mismatch) abort
// before any session is touched.
func (s *ResourceAssignmentService) evaluate(ctx context.Context, exec sqlx.ExtContext, class *models.Class, sessions []models.ClassSessionDetail, req dto.AssignResourcesRequest, commit bool) (*assignmentRun, error) {
	ids := patternResourceIDs(req.Pattern)
	found, err := s.resources.FindByIDs(ctx, exec, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requested resources")
	}
	resources := make(map[int64]*models.Resource, len(found))
	for i := range found {
		resource := &found[i]
		if resource.BranchID != class.BranchID {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("resource %s belongs to a different branch than class %s", resource.DisplayName(), class.Code))
		}
		resources[resource.ID] = resource
	}
	if req.SkipConflictCheck {
		for _, id := range ids {
			if _, ok := resources[id]; !ok {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("resource %d not found", id))
			}
		}
	}

	pattern := make(map[int]int64, len(req.Pattern))
	for _, entry := range req.Pattern {
		pattern[entry.DayOfWeek] = entry.ResourceID
	}

	run := &assignmentRun{class: class, sessions: sessions}
	for _, session := range sessions {
		resourceID, ok := pattern[session.DayOfWeek()]
		if !ok {
			continue
		}
		run.total++
		resource := resources[resourceID]

		if !req.SkipConflictCheck {
			conflict, err := s.detector.Detect(ctx, exec, session, resourceID, resource, class)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check resource conflicts")
			}
			if conflict != nil {
				if commit {
					s.metrics.RecordConflict(string(conflict.Type))
				}
				run.conflicts = append(run.conflicts, pendingConflict{
					session:    session,
					resourceID: resourceID,
					resource:   resource,
					conflict:   conflict,
				})
				continue
			}
		}

		if commit {
			if err := s.sessions.UpdateResource(ctx, exec, session.ID, resourceID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bind resource to session")
			}
		}
		run.success++
	}
	return run, nil
}

// buildResponse expands pending conflicts and attaches suggestions, ranked once per requested resource.
func (s *ResourceAssignmentService) buildResponse(ctx context.Context, run *assignmentRun) *dto.AssignResourcesResponse {
	resp := &dto.AssignResourcesResponse{
		ClassID:       run.class.ID,
		TotalSessions: run.total,
		SuccessCount:  run.success,
		ConflictCount: len(run.conflicts),
		Conflicts:     make([]dto.ResourceConflictDetail, 0, len(run.conflicts)),
	}

	memo := make(map[int64][]dto.ResourceSuggestion)
	for _, pending := range run.conflicts {
		detail := dto.ResourceConflictDetail{
			SessionID:            pending.session.ID,
			SessionNumber:        pending.session.SequenceNo,
			Date:                 pending.session.SessionDate.Format(dateLayout),
			DayOfWeek:            pending.session.DayOfWeek(),
			TimeSlotTemplateID:   pending.session.TimeSlotTemplateID,
			TimeSlotName:         pending.session.TimeSlotName,
			TimeSlotStart:        pending.session.TimeSlotStart,
			TimeSlotEnd:          pending.session.TimeSlotEnd,
			RequestedResourceID:  pending.resourceID,
			ConflictType:         pending.conflict.Type,
			ConflictReason:       pending.conflict.Reason,
			ConflictingClassID:   pending.conflict.ConflictingClassID,
			ConflictingClassName: pending.conflict.ConflictingClassName,
			Suggestions:          []dto.ResourceSuggestion{},
		}
		if pending.resource != nil {
			detail.RequestedResourceName = pending.resource.DisplayName()
		}
		if pending.resource != nil && pending.conflict.Type.Suggestable() && s.ranker != nil {
			suggestions, ok := memo[pending.resourceID]
			if !ok {
				ranked, err := s.ranker.Rank(ctx, run.class, run.sessions, *pending.resource)
				if err != nil {
					s.logger.Warn("failed to rank alternative resources",
						zap.Int64("class_id", run.class.ID),
						zap.Int64("resource_id", pending.resourceID),
						zap.Error(err),
					)
					ranked = []dto.ResourceSuggestion{}
				}
				memo[pending.resourceID] = ranked
				suggestions = ranked
			}
			detail.Suggestions = suggestions
		}
		resp.Conflicts = append(resp.Conflicts, detail)
	}
	return resp
}

func (s *ResourceAssignmentService) validatePattern(req dto.AssignResourcesRequest) error {
	violations := collectViolations(s.validator, req)
	days := make([]int, len(req.Pattern))
	for i, entry := range req.Pattern {
		days[i] = entry.DayOfWeek
	}
	violations = append(violations, duplicateWeekdays("pattern", days)...)
	return violationError("resource pattern", violations)
}

func (s *ResourceAssignmentService) loadClass(ctx context.Context, classID int64) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func patternResourceIDs(pattern []dto.ResourcePatternEntry) []int64 {
	seen := make(map[int64]struct{}, len(pattern))
	ids := make([]int64, 0, len(pattern))
	for _, entry := range pattern {
		if _, ok := seen[entry.ResourceID]; ok {
			continue
		}
		seen[entry.ResourceID] = struct{}{}
		ids = append(ids, entry.ResourceID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
