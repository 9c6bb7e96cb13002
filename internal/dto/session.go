package dto

// GenerateSessionsRequest expands a weekday pattern into dated sessions.
// StartDate defaults to the class start date and TotalSessions to the subject curriculum count.
type GenerateSessionsRequest struct {
	StartDate     string                 `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	DaysOfWeek    []int                  `json:"daysOfWeek" validate:"required,min=1,max=7,dive,min=0,max=6"`
	TotalSessions int                    `json:"totalSessions" validate:"omitempty,min=1,max=500"`
	TimeSlots     []TimeSlotPatternEntry `json:"timeSlots" validate:"omitempty,max=7,dive"`
}

// GeneratedSession is one expanded occurrence.
type GeneratedSession struct {
	SessionID          int64  `json:"sessionId,omitempty"`
	SessionNumber      int    `json:"sessionNumber"`
	Date               string `json:"date"`
	DayOfWeek          int    `json:"dayOfWeek"`
	TimeSlotTemplateID *int64 `json:"timeSlotTemplateId,omitempty"`
}

// GenerateSessionsResponse lists expanded sessions. Persisted is false for previews.
type GenerateSessionsResponse struct {
	ClassID        int64              `json:"classId"`
	TotalSessions  int                `json:"totalSessions"`
	StartDate      string             `json:"startDate"`
	PlannedEndDate string             `json:"plannedEndDate"`
	Persisted      bool               `json:"persisted"`
	Sessions       []GeneratedSession `json:"sessions"`
}

// SessionListQuery filters class sessions.
type SessionListQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=PLANNED COMPLETED CANCELLED"`
}
