package dto

import "time"

// TimeSlotPatternEntry binds one weekday (0=Sunday) to a time slot template.
type TimeSlotPatternEntry struct {
	DayOfWeek          int   `json:"dayOfWeek" validate:"min=0,max=6"`
	TimeSlotTemplateID int64 `json:"timeSlotTemplateId" validate:"gt=0"`
}

// AssignTimeSlotsRequest applies time slot templates per weekday.
type AssignTimeSlotsRequest struct {
	Assignments []TimeSlotPatternEntry `json:"assignments" validate:"required,min=1,max=7,dive"`
}

// TimeSlotAssignmentDetail reports the outcome of one weekday entry.
type TimeSlotAssignmentDetail struct {
	DayOfWeek          int     `json:"dayOfWeek"`
	DayName            string  `json:"dayName"`
	TimeSlotTemplateID int64   `json:"timeSlotTemplateId"`
	TimeSlotName       string  `json:"timeSlotName"`
	StartTime          string  `json:"startTime"`
	EndTime            string  `json:"endTime"`
	SessionsAffected   int     `json:"sessionsAffected"`
	Successful         bool    `json:"successful"`
	ErrorMessage       *string `json:"errorMessage"`
}

// AssignTimeSlotsResponse summarises a time slot assignment run.
type AssignTimeSlotsResponse struct {
	Success           bool                       `json:"success"`
	Message           string                     `json:"message"`
	ClassID           int64                      `json:"classId"`
	ClassCode         string                     `json:"classCode"`
	TotalSessions     int                        `json:"totalSessions"`
	SessionsUpdated   int                        `json:"sessionsUpdated"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
	AssignmentDetails []TimeSlotAssignmentDetail `json:"assignmentDetails"`
}
