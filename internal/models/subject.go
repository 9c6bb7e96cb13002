package models

import "time"

// Subject is a curriculum item; TotalSessions drives session generation.
type Subject struct {
	ID            int64     `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	TotalSessions int       `db:"total_sessions" json:"totalSessions"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}
