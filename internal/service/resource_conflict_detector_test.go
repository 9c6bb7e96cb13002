package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
)

func detectorWorld() (*schedulingWorld, *models.ClassSessionDetail) {
	world := newSchedulingWorld()
	world.addClass(1, "A", 1, 12)
	world.addClass(2, "B", 1, 12)
	world.addResource(101, "R101", 1, 20)
	slot := world.addTemplate(1, "Morning", "09:00", "11:00")
	session := world.addSession(2, 1, "2025-03-03", slot, nil)
	return world, session
}

func TestConflictDetectorPrecedence(t *testing.T) {
	reason := "projector repair"
	tests := []struct {
		name    string
		arrange func(w *schedulingWorld)
		id      int64
		want    dto.ConflictType
	}{
		{
			name:    "free room",
			arrange: func(w *schedulingWorld) {},
			id:      101,
		},
		{
			name:    "unknown resource",
			arrange: func(w *schedulingWorld) {},
			id:      999,
			want:    dto.ConflictResourceNotFound,
		},
		{
			name: "inactive wins over maintenance",
			arrange: func(w *schedulingWorld) {
				w.resources[101].Status = models.ResourceStatusInactive
				w.windows = append(w.windows, models.MaintenanceWindow{ResourceID: 101, StartsAt: at("2025-03-03", "08:00"), EndsAt: at("2025-03-03", "12:00")})
			},
			id:   101,
			want: dto.ConflictUnavailable,
		},
		{
			name: "maintenance wins over capacity",
			arrange: func(w *schedulingWorld) {
				w.resources[101].Capacity = 5
				w.windows = append(w.windows, models.MaintenanceWindow{ResourceID: 101, StartsAt: at("2025-03-03", "10:30"), EndsAt: at("2025-03-03", "13:00"), Reason: &reason})
			},
			id:   101,
			want: dto.ConflictMaintenance,
		},
		{
			name: "maintenance ending at session start is clear",
			arrange: func(w *schedulingWorld) {
				w.windows = append(w.windows, models.MaintenanceWindow{ResourceID: 101, StartsAt: at("2025-03-03", "07:00"), EndsAt: at("2025-03-03", "09:00")})
			},
			id: 101,
		},
		{
			name: "capacity wins over booking",
			arrange: func(w *schedulingWorld) {
				w.resources[101].Capacity = 5
				w.addSession(1, 1, "2025-03-03", w.templates[1], int64Ptr(101))
			},
			id:   101,
			want: dto.ConflictInsufficientCapacity,
		},
		{
			name: "double booking",
			arrange: func(w *schedulingWorld) {
				w.addSession(1, 1, "2025-03-03", w.templates[1], int64Ptr(101))
			},
			id:   101,
			want: dto.ConflictClassBooking,
		},
		{
			name: "cancelled booking is ignored",
			arrange: func(w *schedulingWorld) {
				booked := w.addSession(1, 1, "2025-03-03", w.templates[1], int64Ptr(101))
				booked.Status = models.SessionStatusCancelled
			},
			id: 101,
		},
		{
			name: "same class booking is ignored",
			arrange: func(w *schedulingWorld) {
				w.addSession(2, 2, "2025-03-03", w.templates[1], int64Ptr(101))
			},
			id: 101,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			world, session := detectorWorld()
			tc.arrange(world)
			detector := NewConflictDetector(worldBookings{w: world}, time.UTC)

			var resource *models.Resource
			if r, ok := world.resources[tc.id]; ok {
				resource = r
			}
			conflict, err := detector.Detect(context.Background(), nil, *session, tc.id, resource, world.classes[2])
			require.NoError(t, err)
			if tc.want == "" {
				assert.Nil(t, conflict)
				return
			}
			require.NotNil(t, conflict)
			assert.Equal(t, tc.want, conflict.Type)
			assert.NotEmpty(t, conflict.Reason)
		})
	}
}

func TestConflictDetectorMaintenanceReason(t *testing.T) {
	world, session := detectorWorld()
	reason := "floor polishing"
	world.windows = append(world.windows, models.MaintenanceWindow{ResourceID: 101, StartsAt: at("2025-03-03", "10:00"), EndsAt: at("2025-03-03", "14:00"), Reason: &reason})
	detector := NewConflictDetector(worldBookings{w: world}, time.UTC)

	conflict, err := detector.Detect(context.Background(), nil, *session, 101, world.resources[101], world.classes[2])
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "resource R101 - Room R101 is under maintenance from 2025-03-03 10:00 to 2025-03-03 14:00: floor polishing", conflict.Reason)
	assert.Nil(t, conflict.ConflictingClassID)
}

func TestConflictDetectorRejectsMalformedSlot(t *testing.T) {
	world, session := detectorWorld()
	bad := "9am"
	session.TimeSlotStart = &bad
	detector := NewConflictDetector(worldBookings{w: world}, time.UTC)

	_, err := detector.Detect(context.Background(), nil, *session, 101, world.resources[101], world.classes[2])
	require.Error(t, err)
}

func TestCapacityConflictBoundary(t *testing.T) {
	resource := &models.Resource{ID: 1, Code: "R1", Name: "One", Capacity: 15}
	assert.Nil(t, capacityConflict(resource, &models.Class{MaxCapacity: 15}))
	require.NotNil(t, capacityConflict(resource, &models.Class{MaxCapacity: 16}))
}
