package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	"github.com/noah-isme/training-center-api/internal/repository"
)

const (
	dayStartClock = "00:00"
	dayEndClock   = "24:00"
)

type bookingIndex interface {
	FindOverlappingBookings(ctx context.Context, exec sqlx.ExtContext, q repository.BookingQuery) ([]models.ResourceBooking, error)
	FindMaintenanceWindows(ctx context.Context, exec sqlx.ExtContext, resourceID int64, from, to time.Time) ([]models.MaintenanceWindow, error)
}

// ResourceConflict describes why a resource cannot be bound to a session.
type ResourceConflict struct {
	Type                 dto.ConflictType
	Reason               string
	ConflictingClassID   *int64
	ConflictingClassName *string
}

// ConflictDetector checks one (session, resource) pair against the booking index.
// Checks run in a fixed order and the first hit wins: not found, unavailable,
// maintenance, capacity, then double booking.
type ConflictDetector struct {
	bookings bookingIndex
	location *time.Location
}

// NewConflictDetector constructs a detector evaluating wall clock times in location.
func NewConflictDetector(bookings bookingIndex, location *time.Location) *ConflictDetector {
	if location == nil {
		location = time.UTC
	}
	return &ConflictDetector{bookings: bookings, location: location}
}

// Detect returns nil when resource can host session for class. resource is nil when the
// requested id did not resolve.
func (d *ConflictDetector) Detect(ctx context.Context, exec sqlx.ExtContext, session models.ClassSessionDetail, resourceID int64, resource *models.Resource, class *models.Class) (*ResourceConflict, error) {
	if conflict := availabilityConflict(resourceID, resource); conflict != nil {
		return conflict, nil
	}

	start, end, err := sessionWindow(session.SessionDate, session.TimeSlotStart, session.TimeSlotEnd, d.location)
	if err != nil {
		return nil, fmt.Errorf("session %d time window: %w", session.ID, err)
	}

	dayStart, dayEnd, _ := sessionWindow(session.SessionDate, nil, nil, d.location)
	windows, err := d.bookings.FindMaintenanceWindows(ctx, exec, resource.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if conflict := maintenanceConflict(resource, start, end, windows); conflict != nil {
		return conflict, nil
	}

	if conflict := capacityConflict(resource, class); conflict != nil {
		return conflict, nil
	}

	bookings, err := d.bookings.FindOverlappingBookings(ctx, exec, repository.BookingQuery{
		ResourceID:     resource.ID,
		Date:           dayStart,
		StartTime:      clockOrDefault(session.TimeSlotStart, dayStartClock),
		EndTime:        clockOrDefault(session.TimeSlotEnd, dayEndClock),
		ExcludeClassID: class.ID,
	})
	if err != nil {
		return nil, err
	}
	return bookingConflict(resource, class.ID, start, end, bookings, d.location)
}

func availabilityConflict(resourceID int64, resource *models.Resource) *ResourceConflict {
	if resource == nil {
		return &ResourceConflict{
			Type:   dto.ConflictResourceNotFound,
			Reason: fmt.Sprintf("resource %d does not exist", resourceID),
		}
	}
	if !resource.IsActive() {
		return &ResourceConflict{
			Type:   dto.ConflictUnavailable,
			Reason: fmt.Sprintf("resource %s is inactive", resource.DisplayName()),
		}
	}
	return nil
}

func maintenanceConflict(resource *models.Resource, start, end time.Time, windows []models.MaintenanceWindow) *ResourceConflict {
	for _, window := range windows {
		if window.ResourceID != resource.ID || !overlaps(start, end, window.StartsAt, window.EndsAt) {
			continue
		}
		reason := fmt.Sprintf("resource %s is under maintenance from %s to %s",
			resource.DisplayName(),
			window.StartsAt.In(start.Location()).Format("2006-01-02 15:04"),
			window.EndsAt.In(start.Location()).Format("2006-01-02 15:04"),
		)
		if window.Reason != nil && *window.Reason != "" {
			reason += ": " + *window.Reason
		}
		return &ResourceConflict{Type: dto.ConflictMaintenance, Reason: reason}
	}
	return nil
}

func capacityConflict(resource *models.Resource, class *models.Class) *ResourceConflict {
	capacity := resource.EffectiveCapacity()
	if capacity >= class.MaxCapacity {
		return nil
	}
	return &ResourceConflict{
		Type:   dto.ConflictInsufficientCapacity,
		Reason: fmt.Sprintf("resource %s holds %d but the class needs %d", resource.DisplayName(), capacity, class.MaxCapacity),
	}
}

// bookingConflict re-checks candidate bookings in memory so callers holding a wider
// booking list get the same half-open overlap rule as the database query.
func bookingConflict(resource *models.Resource, classID int64, start, end time.Time, bookings []models.ResourceBooking, loc *time.Location) (*ResourceConflict, error) {
	for _, booking := range bookings {
		if booking.ResourceID != resource.ID || booking.ClassID == classID {
			continue
		}
		bookedStart, bookedEnd, err := sessionWindow(booking.SessionDate, booking.StartTime, booking.EndTime, loc)
		if err != nil {
			return nil, fmt.Errorf("booking %d time window: %w", booking.SessionID, err)
		}
		if !overlaps(start, end, bookedStart, bookedEnd) {
			continue
		}
		conflictingID := booking.ClassID
		className := classDisplayName(booking.ClassCode, booking.ClassName)
		return &ResourceConflict{
			Type: dto.ConflictClassBooking,
			Reason: fmt.Sprintf("resource %s is already booked by %s on %s %s-%s",
				resource.DisplayName(),
				className,
				bookedStart.Format(dateLayout),
				bookedStart.Format("15:04"),
				formatEndClock(bookedStart, bookedEnd),
			),
			ConflictingClassID:   &conflictingID,
			ConflictingClassName: &className,
		}, nil
	}
	return nil, nil
}

func classDisplayName(code, name string) string {
	if code == "" {
		return name
	}
	return code + " - " + name
}

func formatEndClock(start, end time.Time) string {
	if end.Sub(start) >= 24*time.Hour || end.Day() != start.Day() {
		return dayEndClock
	}
	return end.Format("15:04")
}
