package models

import "time"

// TimeSlotStatus marks whether a template may be assigned.
type TimeSlotStatus string

const (
	TimeSlotStatusActive   TimeSlotStatus = "ACTIVE"
	TimeSlotStatusInactive TimeSlotStatus = "INACTIVE"
)

// TimeSlotTemplate is a named wall-clock interval reused across classes.
// StartTime and EndTime are "HH:MM" or "HH:MM:SS".
type TimeSlotTemplate struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	StartTime string         `db:"start_time" json:"startTime"`
	EndTime   string         `db:"end_time" json:"endTime"`
	Status    TimeSlotStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}
