package models

import "time"

// ClassStatus tracks the lifecycle of a class offering.
type ClassStatus string

const (
	ClassStatusDraft     ClassStatus = "DRAFT"
	ClassStatusScheduled ClassStatus = "SCHEDULED"
	ClassStatusOngoing   ClassStatus = "ONGOING"
	ClassStatusCompleted ClassStatus = "COMPLETED"
	ClassStatusCancelled ClassStatus = "CANCELLED"
)

// Class is a scheduled offering of a subject at a branch. It owns its sessions.
type Class struct {
	ID             int64       `db:"id" json:"id"`
	Code           string      `db:"code" json:"code"`
	Name           string      `db:"name" json:"name"`
	BranchID       int64       `db:"branch_id" json:"branchId"`
	SubjectID      int64       `db:"subject_id" json:"subjectId"`
	MaxCapacity    int         `db:"max_capacity" json:"maxCapacity"`
	StartDate      time.Time   `db:"start_date" json:"startDate"`
	PlannedEndDate *time.Time  `db:"planned_end_date" json:"plannedEndDate,omitempty"`
	Status         ClassStatus `db:"status" json:"status"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}
