package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

const sessionDetailSelect = `SELECT s.id, s.class_id, s.sequence_no, s.session_date, s.time_slot_template_id, s.resource_id, s.teacher_id, s.status, s.created_at, s.updated_at,
t.name AS time_slot_name, t.start_time::text AS time_slot_start, t.end_time::text AS time_slot_end
FROM class_sessions s
LEFT JOIN time_slot_templates t ON t.id = s.time_slot_template_id`

// ClassSessionRepository persists class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

func (r *ClassSessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByClass returns the sessions of a class in sequence order, optionally filtered by status.
func (r *ClassSessionRepository) ListByClass(ctx context.Context, classID int64, status string) ([]models.ClassSessionDetail, error) {
	query := sessionDetailSelect + " WHERE s.class_id = $1"
	args := []interface{}{classID}
	if status != "" {
		query += " AND s.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY s.sequence_no ASC"

	var sessions []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}

// LockByClass loads every session of a class and holds row locks until the transaction ends.
func (r *ClassSessionRepository) LockByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) ([]models.ClassSessionDetail, error) {
	query := sessionDetailSelect + " WHERE s.class_id = $1 ORDER BY s.sequence_no ASC FOR UPDATE OF s"
	var sessions []models.ClassSessionDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sessions, query, classID); err != nil {
		return nil, fmt.Errorf("lock class sessions: %w", err)
	}
	return sessions, nil
}

// CountByClass returns how many sessions a class already has.
func (r *ClassSessionRepository) CountByClass(ctx context.Context, exec sqlx.ExtContext, classID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM class_sessions WHERE class_id = $1`
	var total int
	if err := sqlx.GetContext(ctx, r.exec(exec), &total, query, classID); err != nil {
		return 0, fmt.Errorf("count class sessions: %w", err)
	}
	return total, nil
}

// BulkCreate inserts sessions and fills in their generated ids.
func (r *ClassSessionRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO class_sessions (class_id, sequence_no, session_date, time_slot_template_id, resource_id, teacher_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`

	for i := range sessions {
		session := &sessions[i]
		if session.Status == "" {
			session.Status = models.SessionStatusPlanned
		}
		session.CreatedAt = now
		session.UpdatedAt = now
		if err := target.QueryRowxContext(ctx, query,
			session.ClassID,
			session.SequenceNo,
			session.SessionDate.Format(sqlDateLayout),
			session.TimeSlotTemplateID,
			session.ResourceID,
			session.TeacherID,
			session.Status,
			now,
		).Scan(&session.ID); err != nil {
			return fmt.Errorf("insert class session %d: %w", session.SequenceNo, err)
		}
	}
	return nil
}

// UpdateResource binds a resource to a session.
func (r *ClassSessionRepository) UpdateResource(ctx context.Context, exec sqlx.ExtContext, sessionID, resourceID int64) error {
	const query = `UPDATE class_sessions SET resource_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, resourceID, time.Now().UTC(), sessionID); err != nil {
		return fmt.Errorf("update session resource: %w", err)
	}
	return nil
}

// UpdateTimeSlot binds a time slot template to a session.
func (r *ClassSessionRepository) UpdateTimeSlot(ctx context.Context, exec sqlx.ExtContext, sessionID, templateID int64) error {
	const query = `UPDATE class_sessions SET time_slot_template_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, templateID, time.Now().UTC(), sessionID); err != nil {
		return fmt.Errorf("update session time slot: %w", err)
	}
	return nil
}
