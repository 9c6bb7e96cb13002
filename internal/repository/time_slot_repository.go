package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/training-center-api/internal/models"
)

const timeSlotColumns = "id, name, start_time::text AS start_time, end_time::text AS end_time, status, created_at, updated_at"

// TimeSlotTemplateRepository reads time slot templates.
type TimeSlotTemplateRepository struct {
	db *sqlx.DB
}

// NewTimeSlotTemplateRepository constructs the repository.
func NewTimeSlotTemplateRepository(db *sqlx.DB) *TimeSlotTemplateRepository {
	return &TimeSlotTemplateRepository{db: db}
}

func (r *TimeSlotTemplateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByIDs returns the templates that exist among ids.
func (r *TimeSlotTemplateRepository) FindByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.TimeSlotTemplate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM time_slot_templates WHERE id = ANY($1) ORDER BY id ASC", timeSlotColumns)
	var templates []models.TimeSlotTemplate
	if err := sqlx.SelectContext(ctx, r.exec(exec), &templates, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find time slot templates: %w", err)
	}
	return templates, nil
}
