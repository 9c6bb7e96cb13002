package models

import "time"

// SessionStatus is the lifecycle state of a class session.
type SessionStatus string

const (
	SessionStatusPlanned   SessionStatus = "PLANNED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// ClassSession is one dated meeting of a class. SequenceNo is fixed at generation time.
type ClassSession struct {
	ID                 int64         `db:"id" json:"id"`
	ClassID            int64         `db:"class_id" json:"classId"`
	SequenceNo         int           `db:"sequence_no" json:"sequenceNo"`
	SessionDate        time.Time     `db:"session_date" json:"date"`
	TimeSlotTemplateID *int64        `db:"time_slot_template_id" json:"timeSlotTemplateId,omitempty"`
	ResourceID         *int64        `db:"resource_id" json:"resourceId,omitempty"`
	TeacherID          *int64        `db:"teacher_id" json:"teacherId,omitempty"`
	Status             SessionStatus `db:"status" json:"status"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updatedAt"`
}

// DayOfWeek returns 0 (Sunday) through 6 (Saturday).
func (s ClassSession) DayOfWeek() int {
	return int(s.SessionDate.Weekday())
}

// ClassSessionDetail joins a session with its time slot template, when one is set.
type ClassSessionDetail struct {
	ClassSession
	TimeSlotName  *string `db:"time_slot_name" json:"timeSlotName,omitempty"`
	TimeSlotStart *string `db:"time_slot_start" json:"timeSlotStart,omitempty"`
	TimeSlotEnd   *string `db:"time_slot_end" json:"timeSlotEnd,omitempty"`
}
