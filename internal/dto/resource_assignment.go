package dto

// ConflictType is the closed set of reasons a resource cannot be bound to a session.
type ConflictType string

const (
	ConflictClassBooking         ConflictType = "CLASS_BOOKING"
	ConflictMaintenance          ConflictType = "MAINTENANCE"
	ConflictInsufficientCapacity ConflictType = "INSUFFICIENT_CAPACITY"
	ConflictUnavailable          ConflictType = "UNAVAILABLE"
	ConflictResourceNotFound     ConflictType = "RESOURCE_NOT_FOUND"
)

// Suggestable reports whether alternatives are worth ranking for the conflict.
func (t ConflictType) Suggestable() bool {
	switch t {
	case ConflictClassBooking, ConflictMaintenance, ConflictInsufficientCapacity:
		return true
	default:
		return false
	}
}

// ResourcePatternEntry binds one weekday (0=Sunday) to a resource.
type ResourcePatternEntry struct {
	DayOfWeek  int   `json:"dayOfWeek" validate:"min=0,max=6"`
	ResourceID int64 `json:"resourceId" validate:"gt=0"`
}

// AssignResourcesRequest applies a weekday pattern to every generated session of a class.
type AssignResourcesRequest struct {
	Pattern           []ResourcePatternEntry `json:"pattern" validate:"required,min=1,max=7,dive"`
	SkipConflictCheck bool                   `json:"skipConflictCheck"`
}

// ResourceSuggestion is an alternative resource ranked by availability.
type ResourceSuggestion struct {
	ResourceID       int64   `json:"resourceId"`
	ResourceCode     string  `json:"resourceCode"`
	ResourceName     string  `json:"resourceName"`
	ResourceType     string  `json:"resourceType"`
	Capacity         int     `json:"capacity"`
	ConflictCount    int     `json:"conflictCount"`
	AvailabilityRate float64 `json:"availabilityRate"`
	IsRecommended    bool    `json:"isRecommended"`
}

// ResourceConflictDetail explains why one session was left unbound.
type ResourceConflictDetail struct {
	SessionID             int64                `json:"sessionId"`
	SessionNumber         int                  `json:"sessionNumber"`
	Date                  string               `json:"date"`
	DayOfWeek             int                  `json:"dayOfWeek"`
	TimeSlotTemplateID    *int64               `json:"timeSlotTemplateId"`
	TimeSlotName          *string              `json:"timeSlotName"`
	TimeSlotStart         *string              `json:"timeSlotStart"`
	TimeSlotEnd           *string              `json:"timeSlotEnd"`
	RequestedResourceID   int64                `json:"requestedResourceId"`
	RequestedResourceName string               `json:"requestedResourceName"`
	ConflictType          ConflictType         `json:"conflictType"`
	ConflictReason        string               `json:"conflictReason"`
	ConflictingClassID    *int64               `json:"conflictingClassId"`
	ConflictingClassName  *string              `json:"conflictingClassName"`
	Suggestions           []ResourceSuggestion `json:"suggestions"`
}

// AssignResourcesResponse summarises a resource assignment run.
type AssignResourcesResponse struct {
	ClassID          int64                    `json:"classId"`
	TotalSessions    int                      `json:"totalSessions"`
	SuccessCount     int                      `json:"successCount"`
	ConflictCount    int                      `json:"conflictCount"`
	Conflicts        []ResourceConflictDetail `json:"conflicts"`
	ProcessingTimeMs int64                    `json:"processingTimeMs"`
}

// ExportFormat selects the renderer for a conflict preview export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ConflictExportQuery carries the export format from the query string.
type ConflictExportQuery struct {
	Format ExportFormat `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// SuggestionQuery selects the class whose sessions drive the availability rate.
type SuggestionQuery struct {
	ClassID int64 `form:"classId" validate:"required,gt=0"`
}
