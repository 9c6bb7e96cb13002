package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
)

const defaultRecommendedRate = 90.0

type rankerResourceDirectory interface {
	ListActiveByBranchAndType(ctx context.Context, branchID int64, resourceType models.ResourceType) ([]models.Resource, error)
}

type rankerBookingIndex interface {
	ListBookings(ctx context.Context, resourceIDs []int64, from, to time.Time, excludeClassID int64) ([]models.ResourceBooking, error)
	ListMaintenanceWindows(ctx context.Context, resourceIDs []int64, from, to time.Time) ([]models.MaintenanceWindow, error)
}

type policyReader interface {
	LookupFloat(ctx context.Context, key string, fallback float64) float64
	LookupInt(ctx context.Context, key string, fallback int) int
}

type resourceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SuggestionRankerConfig tunes the ranker.
type SuggestionRankerConfig struct {
	CacheTTL time.Duration
	Location *time.Location
}

// SuggestionRanker proposes alternative resources of the same branch and type, scored by how many
// of the class's sessions each could host without conflict. It never writes.
type SuggestionRanker struct {
	resources rankerResourceDirectory
	bookings  rankerBookingIndex
	policies  policyReader
	cache     resourceCache
	metrics   *MetricsService
	logger    *zap.Logger
	cacheTTL  time.Duration
	location  *time.Location
}

// NewSuggestionRanker wires the ranker. policies, cache and metrics are optional.
func NewSuggestionRanker(resources rankerResourceDirectory, bookings rankerBookingIndex, policies policyReader, cache resourceCache, metrics *MetricsService, logger *zap.Logger, cfg SuggestionRankerConfig) *SuggestionRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &SuggestionRanker{
		resources: resources,
		bookings:  bookings,
		policies:  policies,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cacheTTL:  cfg.CacheTTL,
		location:  cfg.Location,
	}
}

type sessionSpan struct {
	start time.Time
	end   time.Time
}

// Rank scores every other active resource sharing requested's branch and type against sessions.
// Recommended entries come first, then higher availability, then display name.
func (r *SuggestionRanker) Rank(ctx context.Context, class *models.Class, sessions []models.ClassSessionDetail, requested models.Resource) ([]dto.ResourceSuggestion, error) {
	started := time.Now()
	defer func() { r.metrics.ObserveSuggestion(time.Since(started)) }()

	all, err := r.candidates(ctx, requested.BranchID, requested.Type)
	if err != nil {
		return nil, err
	}
	candidates := make([]models.Resource, 0, len(all))
	ids := make([]int64, 0, len(all))
	for _, resource := range all {
		if resource.ID == requested.ID || !resource.IsActive() {
			continue
		}
		candidates = append(candidates, resource)
		ids = append(ids, resource.ID)
	}
	if len(candidates) == 0 {
		return []dto.ResourceSuggestion{}, nil
	}

	threshold := defaultRecommendedRate
	limit := 0
	if r.policies != nil {
		threshold = r.policies.LookupFloat(ctx, PolicySuggestionRecommendedRate, defaultRecommendedRate)
		limit = r.policies.LookupInt(ctx, PolicySuggestionLimit, 0)
	}

	conflicts, err := r.countConflicts(ctx, class, sessions, candidates, ids)
	if err != nil {
		return nil, err
	}

	total := len(sessions)
	suggestions := make([]dto.ResourceSuggestion, 0, len(candidates))
	names := make(map[int64]string, len(candidates))
	for _, resource := range candidates {
		count := conflicts[resource.ID]
		rate := availabilityRate(total, count)
		names[resource.ID] = resource.DisplayName()
		suggestions = append(suggestions, dto.ResourceSuggestion{
			ResourceID:       resource.ID,
			ResourceCode:     resource.Code,
			ResourceName:     resource.Name,
			ResourceType:     string(resource.Type),
			Capacity:         resource.EffectiveCapacity(),
			ConflictCount:    count,
			AvailabilityRate: rate,
			IsRecommended:    count == 0 && rate >= threshold,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.IsRecommended != b.IsRecommended {
			return a.IsRecommended
		}
		if a.AvailabilityRate != b.AvailabilityRate {
			return a.AvailabilityRate > b.AvailabilityRate
		}
		if names[a.ResourceID] != names[b.ResourceID] {
			return names[a.ResourceID] < names[b.ResourceID]
		}
		return a.ResourceID < b.ResourceID
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (r *SuggestionRanker) countConflicts(ctx context.Context, class *models.Class, sessions []models.ClassSessionDetail, candidates []models.Resource, ids []int64) (map[int64]int, error) {
	conflicts := make(map[int64]int, len(candidates))
	if len(sessions) == 0 {
		return conflicts, nil
	}

	spans := make([]sessionSpan, len(sessions))
	var firstDay, lastDay time.Time
	for i, session := range sessions {
		start, end, err := sessionWindow(session.SessionDate, session.TimeSlotStart, session.TimeSlotEnd, r.location)
		if err != nil {
			return nil, fmt.Errorf("session %d time window: %w", session.ID, err)
		}
		spans[i] = sessionSpan{start: start, end: end}
		day, _, _ := sessionWindow(session.SessionDate, nil, nil, r.location)
		if firstDay.IsZero() || day.Before(firstDay) {
			firstDay = day
		}
		if day.After(lastDay) {
			lastDay = day
		}
	}

	bookings, err := r.bookings.ListBookings(ctx, ids, firstDay, lastDay, class.ID)
	if err != nil {
		return nil, err
	}
	windows, err := r.bookings.ListMaintenanceWindows(ctx, ids, firstDay, lastDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	bookingsByResource := make(map[int64][]models.ResourceBooking)
	for _, booking := range bookings {
		bookingsByResource[booking.ResourceID] = append(bookingsByResource[booking.ResourceID], booking)
	}
	windowsByResource := make(map[int64][]models.MaintenanceWindow)
	for _, window := range windows {
		windowsByResource[window.ResourceID] = append(windowsByResource[window.ResourceID], window)
	}

	for i := range candidates {
		resource := &candidates[i]
		if capacityConflict(resource, class) != nil {
			conflicts[resource.ID] = len(sessions)
			continue
		}
		count := 0
		for _, span := range spans {
			if maintenanceConflict(resource, span.start, span.end, windowsByResource[resource.ID]) != nil {
				count++
				continue
			}
			hit, err := bookingConflict(resource, class.ID, span.start, span.end, bookingsByResource[resource.ID], r.location)
			if err != nil {
				return nil, err
			}
			if hit != nil {
				count++
			}
		}
		conflicts[resource.ID] = count
	}
	return conflicts, nil
}

func (r *SuggestionRanker) candidates(ctx context.Context, branchID int64, resourceType models.ResourceType) ([]models.Resource, error) {
	key := ActiveResourcesKey(branchID, resourceType)
	if r.cache != nil {
		var cached []models.Resource
		hit, err := r.cache.Get(ctx, key, &cached)
		if err != nil {
			r.logger.Debug("candidate cache unavailable", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	resources, err := r.resources.ListActiveByBranchAndType(ctx, branchID, resourceType)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, key, resources, r.cacheTTL)
	}
	return resources, nil
}

// availabilityRate is the share of sessions free of conflict, rounded to two decimals.
// A class without sessions is fully available.
func availabilityRate(total, conflicting int) float64 {
	if total == 0 {
		return 100
	}
	rate := float64(total-conflicting) / float64(total) * 100
	return math.Round(rate*100) / 100
}
