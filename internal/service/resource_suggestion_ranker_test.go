package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/models"
)

type countingDirectory struct {
	worldResources
	calls int
}

func (d *countingDirectory) ListActiveByBranchAndType(ctx context.Context, branchID int64, resourceType models.ResourceType) ([]models.Resource, error) {
	d.calls++
	return d.worldResources.ListActiveByBranchAndType(ctx, branchID, resourceType)
}

// rankerWorld gives class 1 four Monday sessions and a mix of alternative rooms.
func rankerWorld(t *testing.T) *schedulingWorld {
	world := newSchedulingWorld()
	world.addClass(1, "C1", 1, 10)
	world.addClass(2, "OTHER", 1, 10)
	slot := world.addTemplate(1, "Morning", "09:00", "11:00")
	world.expand(t, 1, "2025-01-06", 4, []int{1}, slot)

	world.addResource(100, "REQ", 1, 20)
	world.addResource(101, "B-ROOM", 1, 20)
	world.addResource(102, "A-ROOM", 1, 20)
	world.addResource(103, "C-ROOM", 1, 20)
	world.addResource(104, "TINY", 1, 5)
	world.addResource(105, "D-ROOM", 1, 20).Status = models.ResourceStatusInactive
	world.addResource(201, "FAR", 2, 50)
	world.addResource(106, "ONLINE", 1, 100).Type = models.ResourceTypeVirtual

	// C-ROOM is taken for one of the four Mondays
	world.addSession(2, 1, "2025-01-13", slot, int64Ptr(103))
	return world
}

func TestSuggestionRankerOrdering(t *testing.T) {
	world := rankerWorld(t)
	ranker := NewSuggestionRanker(worldResources{w: world}, worldBookings{w: world}, policyStub{}, nil, nil, zap.NewNop(), SuggestionRankerConfig{})

	suggestions, err := ranker.Rank(context.Background(), world.classes[1], world.classSessions(1), *world.resources[100])
	require.NoError(t, err)

	ids := make([]int64, len(suggestions))
	for i, s := range suggestions {
		ids[i] = s.ResourceID
	}
	assert.Equal(t, []int64{102, 101, 103, 104}, ids)

	assert.True(t, suggestions[0].IsRecommended)
	assert.True(t, suggestions[1].IsRecommended)
	assert.Equal(t, 100.0, suggestions[0].AvailabilityRate)

	assert.Equal(t, 1, suggestions[2].ConflictCount)
	assert.Equal(t, 75.0, suggestions[2].AvailabilityRate)
	assert.False(t, suggestions[2].IsRecommended)

	assert.Equal(t, 4, suggestions[3].ConflictCount)
	assert.Equal(t, 0.0, suggestions[3].AvailabilityRate)
}

func TestSuggestionRankerHonoursPolicies(t *testing.T) {
	world := rankerWorld(t)

	strict := NewSuggestionRanker(worldResources{w: world}, worldBookings{w: world}, policyStub{rate: 100.5}, nil, nil, nil, SuggestionRankerConfig{})
	suggestions, err := strict.Rank(context.Background(), world.classes[1], world.classSessions(1), *world.resources[100])
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.False(t, s.IsRecommended, "resource %d", s.ResourceID)
	}

	limited := NewSuggestionRanker(worldResources{w: world}, worldBookings{w: world}, policyStub{limit: 2}, nil, nil, nil, SuggestionRankerConfig{})
	suggestions, err = limited.Rank(context.Background(), world.classes[1], world.classSessions(1), *world.resources[100])
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, int64(102), suggestions[0].ResourceID)
}

func TestSuggestionRankerCachesCandidates(t *testing.T) {
	world := rankerWorld(t)
	directory := &countingDirectory{worldResources: worldResources{w: world}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, 0, zap.NewNop(), true)
	ranker := NewSuggestionRanker(directory, worldBookings{w: world}, nil, cache, nil, nil, SuggestionRankerConfig{})

	first, err := ranker.Rank(context.Background(), world.classes[1], world.classSessions(1), *world.resources[100])
	require.NoError(t, err)
	second, err := ranker.Rank(context.Background(), world.classes[1], world.classSessions(1), *world.resources[100])
	require.NoError(t, err)

	assert.Equal(t, 1, directory.calls)
	assert.Equal(t, first, second)
}

func TestSuggestionRankerWithoutSessions(t *testing.T) {
	world := rankerWorld(t)
	ranker := NewSuggestionRanker(worldResources{w: world}, worldBookings{w: world}, nil, nil, nil, nil, SuggestionRankerConfig{})

	suggestions, err := ranker.Rank(context.Background(), world.classes[1], nil, *world.resources[100])
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		assert.Equal(t, 100.0, s.AvailabilityRate)
	}
}

func TestAvailabilityRateRounding(t *testing.T) {
	assert.Equal(t, 100.0, availabilityRate(0, 0))
	assert.Equal(t, 66.67, availabilityRate(3, 1))
	assert.Equal(t, 0.0, availabilityRate(3, 3))
}
