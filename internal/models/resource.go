package models

import "time"

// ResourceType distinguishes physical rooms from virtual meeting rooms.
type ResourceType string

const (
	ResourceTypeRoom    ResourceType = "ROOM"
	ResourceTypeVirtual ResourceType = "VIRTUAL"
)

// ResourceStatus marks whether a resource may be booked.
type ResourceStatus string

const (
	ResourceStatusActive   ResourceStatus = "ACTIVE"
	ResourceStatusInactive ResourceStatus = "INACTIVE"
)

// Resource is a bookable room or virtual room owned by a branch.
type Resource struct {
	ID               int64          `db:"id" json:"id"`
	BranchID         int64          `db:"branch_id" json:"branchId"`
	Code             string         `db:"code" json:"code"`
	Name             string         `db:"name" json:"name"`
	Type             ResourceType   `db:"resource_type" json:"resourceType"`
	Capacity         int            `db:"capacity" json:"capacity"`
	CapacityOverride *int           `db:"capacity_override" json:"capacityOverride,omitempty"`
	Status           ResourceStatus `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// EffectiveCapacity prefers the override when one is configured.
func (r Resource) EffectiveCapacity() int {
	if r.CapacityOverride != nil {
		return *r.CapacityOverride
	}
	return r.Capacity
}

// IsActive reports whether the resource can be booked.
func (r Resource) IsActive() bool {
	return r.Status == ResourceStatusActive
}

// DisplayName is "code - name", used in messages and as the suggestion tie-break.
func (r Resource) DisplayName() string {
	if r.Code == "" {
		return r.Name
	}
	return r.Code + " - " + r.Name
}

// MaintenanceWindow blocks a resource for [StartsAt, EndsAt) regardless of bookings.
type MaintenanceWindow struct {
	ID         int64     `db:"id" json:"id"`
	ResourceID int64     `db:"resource_id" json:"resourceId"`
	StartsAt   time.Time `db:"starts_at" json:"startsAt"`
	EndsAt     time.Time `db:"ends_at" json:"endsAt"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
}

// ResourceBooking is a session of some class bound to a resource, as seen by conflict detection.
type ResourceBooking struct {
	SessionID   int64     `db:"session_id" json:"sessionId"`
	ClassID     int64     `db:"class_id" json:"classId"`
	ClassCode   string    `db:"class_code" json:"classCode"`
	ClassName   string    `db:"class_name" json:"className"`
	ResourceID  int64     `db:"resource_id" json:"resourceId"`
	SessionDate time.Time `db:"session_date" json:"date"`
	StartTime   *string   `db:"start_time" json:"startTime,omitempty"`
	EndTime     *string   `db:"end_time" json:"endTime,omitempty"`
}
