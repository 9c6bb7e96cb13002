package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

const classColumns = "id, code, name, branch_id, subject_id, max_capacity, start_date, planned_end_date, status, created_at, updated_at"

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns a class by id. sql.ErrNoRows is returned untouched.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// LockByID takes a row lock on the class for the rest of exec's transaction, serialising
// generators of the same class. sql.ErrNoRows is returned untouched.
func (r *ClassRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	const query = `SELECT id FROM classes WHERE id = $1 FOR UPDATE`
	var locked int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &locked, query, id); err != nil {
		return err
	}
	return nil
}

// UpdatePlannedEndDate stores the date of the last generated session.
func (r *ClassRepository) UpdatePlannedEndDate(ctx context.Context, exec sqlx.ExtContext, id int64, endDate time.Time) error {
	const query = `UPDATE classes SET planned_end_date = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, endDate.Format(sqlDateLayout), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update class planned end date: %w", err)
	}
	return nil
}
