package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// schedulingWorld is an in-memory stand-in for the class, session, resource and booking tables.
type schedulingWorld struct {
	mu        sync.Mutex
	classes   map[int64]*models.Class
	sessions  []*models.ClassSessionDetail
	resources map[int64]*models.Resource
	templates map[int64]*models.TimeSlotTemplate
	windows   []models.MaintenanceWindow
	nextID    int64
	locks     [][]int64
	updates   int
	failOn    string
	calls     []string
}

func newSchedulingWorld() *schedulingWorld {
	return &schedulingWorld{
		classes:   map[int64]*models.Class{},
		resources: map[int64]*models.Resource{},
		templates: map[int64]*models.TimeSlotTemplate{},
		nextID:    1000,
	}
}

func (w *schedulingWorld) addClass(id int64, code string, branchID int64, maxCapacity int) *models.Class {
	class := &models.Class{ID: id, Code: code, Name: "Class " + code, BranchID: branchID, SubjectID: 1, MaxCapacity: maxCapacity, Status: models.ClassStatusScheduled}
	w.classes[id] = class
	return class
}

func (w *schedulingWorld) addResource(id int64, code string, branchID int64, capacity int) *models.Resource {
	resource := &models.Resource{ID: id, Code: code, Name: "Room " + code, BranchID: branchID, Type: models.ResourceTypeRoom, Capacity: capacity, Status: models.ResourceStatusActive}
	w.resources[id] = resource
	return resource
}

func (w *schedulingWorld) addTemplate(id int64, name, start, end string) *models.TimeSlotTemplate {
	tpl := &models.TimeSlotTemplate{ID: id, Name: name, StartTime: start, EndTime: end, Status: models.TimeSlotStatusActive}
	w.templates[id] = tpl
	return tpl
}

// addSession appends a session; slot may be nil for a whole-day session.
func (w *schedulingWorld) addSession(classID int64, seq int, date string, slot *models.TimeSlotTemplate, resourceID *int64) *models.ClassSessionDetail {
	w.nextID++
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		panic(err)
	}
	session := &models.ClassSessionDetail{
		ClassSession: models.ClassSession{
			ID:          w.nextID,
			ClassID:     classID,
			SequenceNo:  seq,
			SessionDate: day,
			ResourceID:  resourceID,
			Status:      models.SessionStatusPlanned,
		},
	}
	if slot != nil {
		w.applyTemplate(session, slot)
	}
	w.sessions = append(w.sessions, session)
	return session
}

func (w *schedulingWorld) applyTemplate(session *models.ClassSessionDetail, slot *models.TimeSlotTemplate) {
	id, name, start, end := slot.ID, slot.Name, slot.StartTime, slot.EndTime
	session.TimeSlotTemplateID = &id
	session.TimeSlotName = &name
	session.TimeSlotStart = &start
	session.TimeSlotEnd = &end
}

// expand generates sessions for a class from a weekday list, all sharing slot.
func (w *schedulingWorld) expand(t *testing.T, classID int64, start string, total int, weekdays []int, slot *models.TimeSlotTemplate) {
	day, err := time.Parse(dateLayout, start)
	require.NoError(t, err)
	dates, err := ExpandSessionDates(day, total, weekdays)
	require.NoError(t, err)
	for i, date := range dates {
		w.addSession(classID, i+1, date.Format(dateLayout), slot, nil)
	}
}

func (w *schedulingWorld) classSessions(classID int64) []models.ClassSessionDetail {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []models.ClassSessionDetail
	for _, s := range w.sessions {
		if s.ClassID == classID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNo < out[j].SequenceNo })
	return out
}

type worldClasses struct{ w *schedulingWorld }

func (r worldClasses) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	class, ok := r.w.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *class
	return &clone, nil
}

func (r worldClasses) LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	r.w.calls = append(r.w.calls, "LockByID")
	if _, ok := r.w.classes[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (r worldClasses) UpdatePlannedEndDate(ctx context.Context, exec sqlx.ExtContext, id int64, endDate time.Time) error {
	class, ok := r.w.classes[id]
	if !ok {
		return sql.ErrNoRows
	}
	end := endDate
	class.PlannedEndDate = &end
	return nil
}

type worldSubjects struct{ subjects map[int64]*models.Subject }

func (r worldSubjects) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	subject, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subject, nil
}

type worldSessions struct{ w *schedulingWorld }

func (r worldSessions) CountByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) (int, error) {
	r.w.calls = append(r.w.calls, "CountByClass")
	return len(r.w.classSessions(classID)), nil
}

func (r worldSessions) BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error {
	if r.w.failOn == "BulkCreate" {
		return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	for i := range sessions {
		var slot *models.TimeSlotTemplate
		if sessions[i].TimeSlotTemplateID != nil {
			slot = r.w.templates[*sessions[i].TimeSlotTemplateID]
		}
		created := r.w.addSession(sessions[i].ClassID, sessions[i].SequenceNo, sessions[i].SessionDate.Format(dateLayout), slot, nil)
		sessions[i].ID = created.ID
	}
	return nil
}

func (r worldSessions) LockByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) ([]models.ClassSessionDetail, error) {
	return r.w.classSessions(classID), nil
}

func (r worldSessions) ListByClass(ctx context.Context, classID int64, status string) ([]models.ClassSessionDetail, error) {
	all := r.w.classSessions(classID)
	if status == "" {
		return all, nil
	}
	var out []models.ClassSessionDetail
	for _, s := range all {
		if string(s.Status) == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r worldSessions) UpdateResource(ctx context.Context, exec sqlx.ExtContext, sessionID, resourceID int64) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if r.w.failOn == "UpdateResource" {
		return sql.ErrConnDone
	}
	for _, s := range r.w.sessions {
		if s.ID == sessionID {
			id := resourceID
			s.ResourceID = &id
			r.w.updates++
		}
	}
	return nil
}

func (r worldSessions) UpdateTimeSlot(ctx context.Context, exec sqlx.ExtContext, sessionID, templateID int64) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	for _, s := range r.w.sessions {
		if s.ID == sessionID {
			r.w.applyTemplate(s, r.w.templates[templateID])
			r.w.updates++
		}
	}
	return nil
}

type worldResources struct{ w *schedulingWorld }

func (r worldResources) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Resource, error) {
	resource, ok := r.w.resources[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *resource
	return &clone, nil
}

func (r worldResources) FindByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.Resource, error) {
	var out []models.Resource
	for _, id := range ids {
		if resource, ok := r.w.resources[id]; ok {
			out = append(out, *resource)
		}
	}
	return out, nil
}

func (r worldResources) LockForAssignment(ctx context.Context, exec sqlx.ExtContext, namespace int, ids []int64) error {
	r.w.locks = append(r.w.locks, append([]int64(nil), ids...))
	return nil
}

func (r worldResources) ListActiveByBranchAndType(ctx context.Context, branchID int64, resourceType models.ResourceType) ([]models.Resource, error) {
	var out []models.Resource
	for _, resource := range r.w.resources {
		if resource.BranchID == branchID && resource.Type == resourceType && resource.IsActive() {
			out = append(out, *resource)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type worldTemplates struct{ w *schedulingWorld }

func (r worldTemplates) FindByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.TimeSlotTemplate, error) {
	var out []models.TimeSlotTemplate
	for _, id := range ids {
		if tpl, ok := r.w.templates[id]; ok {
			out = append(out, *tpl)
		}
	}
	return out, nil
}

type worldBookings struct{ w *schedulingWorld }

func (r worldBookings) FindOverlappingBookings(ctx context.Context, exec sqlx.ExtContext, q repository.BookingQuery) ([]models.ResourceBooking, error) {
	qStart, err := parseClock(q.StartTime)
	if err != nil {
		return nil, err
	}
	qEnd, err := parseClock(q.EndTime)
	if err != nil {
		return nil, err
	}
	var out []models.ResourceBooking
	for _, booking := range r.bookings(func(s *models.ClassSessionDetail) bool {
		return *s.ResourceID == q.ResourceID && s.ClassID != q.ExcludeClassID && s.SessionDate.Format(dateLayout) == q.Date.Format(dateLayout)
	}) {
		start, _ := parseClock(clockOrDefault(booking.StartTime, dayStartClock))
		end, _ := parseClock(clockOrDefault(booking.EndTime, dayEndClock))
		if start < qEnd && qStart < end {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (r worldBookings) FindMaintenanceWindows(ctx context.Context, exec sqlx.ExtContext, resourceID int64, from, to time.Time) ([]models.MaintenanceWindow, error) {
	return r.ListMaintenanceWindows(ctx, []int64{resourceID}, from, to)
}

func (r worldBookings) ListBookings(ctx context.Context, resourceIDs []int64, from, to time.Time, excludeClassID int64) ([]models.ResourceBooking, error) {
	wanted := map[int64]bool{}
	for _, id := range resourceIDs {
		wanted[id] = true
	}
	lo, hi := from.Format(dateLayout), to.Format(dateLayout)
	return r.bookings(func(s *models.ClassSessionDetail) bool {
		date := s.SessionDate.Format(dateLayout)
		return wanted[*s.ResourceID] && s.ClassID != excludeClassID && date >= lo && date <= hi
	}), nil
}

func (r worldBookings) ListMaintenanceWindows(ctx context.Context, resourceIDs []int64, from, to time.Time) ([]models.MaintenanceWindow, error) {
	wanted := map[int64]bool{}
	for _, id := range resourceIDs {
		wanted[id] = true
	}
	var out []models.MaintenanceWindow
	for _, window := range r.w.windows {
		if wanted[window.ResourceID] && window.StartsAt.Before(to) && window.EndsAt.After(from) {
			out = append(out, window)
		}
	}
	return out, nil
}

func (r worldBookings) bookings(match func(*models.ClassSessionDetail) bool) []models.ResourceBooking {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	var out []models.ResourceBooking
	for _, s := range r.w.sessions {
		if s.ResourceID == nil || s.Status == models.SessionStatusCancelled || !match(s) {
			continue
		}
		class := r.w.classes[s.ClassID]
		out = append(out, models.ResourceBooking{
			SessionID:   s.ID,
			ClassID:     s.ClassID,
			ClassCode:   class.Code,
			ClassName:   class.Name,
			ResourceID:  *s.ResourceID,
			SessionDate: s.SessionDate,
			StartTime:   s.TimeSlotStart,
			EndTime:     s.TimeSlotEnd,
		})
	}
	return out
}

type policyStub struct {
	rate  float64
	limit int
}

func (p policyStub) LookupFloat(ctx context.Context, key string, fallback float64) float64 {
	if key == PolicySuggestionRecommendedRate && p.rate > 0 {
		return p.rate
	}
	return fallback
}

func (p policyStub) LookupInt(ctx context.Context, key string, fallback int) int {
	if key == PolicySuggestionLimit && p.limit > 0 {
		return p.limit
	}
	return fallback
}

func int64Ptr(v int64) *int64 { return &v }

func at(date string, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		panic(err)
	}
	return t
}
