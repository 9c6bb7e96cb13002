package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/training-center-api/internal/models"
)

const bookingSelect = `SELECT s.id AS session_id, s.class_id, c.code AS class_code, c.name AS class_name, s.resource_id, s.session_date,
t.start_time::text AS start_time, t.end_time::text AS end_time
FROM class_sessions s
JOIN classes c ON c.id = s.class_id
LEFT JOIN time_slot_templates t ON t.id = s.time_slot_template_id`

const sqlDateLayout = "2006-01-02"

// BookingQuery selects bookings of a resource overlapping [StartTime, EndTime) on Date.
type BookingQuery struct {
	ResourceID     int64
	Date           time.Time
	StartTime      string
	EndTime        string
	ExcludeClassID int64
}

// BookingRepository is the booking index: session to resource bindings across every class,
// plus maintenance windows.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindOverlappingBookings returns other classes' sessions holding the resource in an overlapping window.
// Sessions without a time slot occupy the whole day. Cancelled sessions hold nothing.
func (r *BookingRepository) FindOverlappingBookings(ctx context.Context, exec sqlx.ExtContext, q BookingQuery) ([]models.ResourceBooking, error) {
	query := bookingSelect + `
WHERE s.resource_id = $1 AND s.session_date = $2 AND s.class_id <> $3 AND s.status <> 'CANCELLED'
AND COALESCE(t.start_time, TIME '00:00') < $5::time
AND $4::time < COALESCE(t.end_time, TIME '24:00')
ORDER BY t.start_time ASC NULLS FIRST, s.class_id ASC`
	var bookings []models.ResourceBooking
	if err := sqlx.SelectContext(ctx, r.exec(exec), &bookings, query, q.ResourceID, q.Date.Format(sqlDateLayout), q.ExcludeClassID, q.StartTime, q.EndTime); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return bookings, nil
}

// ListBookings returns every booking of the resources dated between from and to inclusive, excluding one class.
func (r *BookingRepository) ListBookings(ctx context.Context, resourceIDs []int64, from, to time.Time, excludeClassID int64) ([]models.ResourceBooking, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}
	query := bookingSelect + `
WHERE s.resource_id = ANY($1) AND s.session_date BETWEEN $2 AND $3 AND s.class_id <> $4 AND s.status <> 'CANCELLED'
ORDER BY s.resource_id ASC, s.session_date ASC`
	var bookings []models.ResourceBooking
	if err := r.db.SelectContext(ctx, &bookings, query, pq.Array(resourceIDs), from.Format(sqlDateLayout), to.Format(sqlDateLayout), excludeClassID); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// FindMaintenanceWindows returns windows of the resource intersecting [from, to).
func (r *BookingRepository) FindMaintenanceWindows(ctx context.Context, exec sqlx.ExtContext, resourceID int64, from, to time.Time) ([]models.MaintenanceWindow, error) {
	const query = `SELECT id, resource_id, starts_at, ends_at, reason FROM resource_maintenance_windows
WHERE resource_id = $1 AND starts_at < $3 AND ends_at > $2 ORDER BY starts_at ASC`
	var windows []models.MaintenanceWindow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &windows, query, resourceID, from, to); err != nil {
		return nil, fmt.Errorf("find maintenance windows: %w", err)
	}
	return windows, nil
}

// ListMaintenanceWindows returns windows of any of the resources intersecting [from, to).
func (r *BookingRepository) ListMaintenanceWindows(ctx context.Context, resourceIDs []int64, from, to time.Time) ([]models.MaintenanceWindow, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, resource_id, starts_at, ends_at, reason FROM resource_maintenance_windows
WHERE resource_id = ANY($1) AND starts_at < $3 AND ends_at > $2 ORDER BY resource_id ASC, starts_at ASC`
	var windows []models.MaintenanceWindow
	if err := r.db.SelectContext(ctx, &windows, query, pq.Array(resourceIDs), from, to); err != nil {
		return nil, fmt.Errorf("list maintenance windows: %w", err)
	}
	return windows, nil
}
