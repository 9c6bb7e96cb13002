package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

type policyRepoStub struct {
	values  map[string]string
	getErr  error
	upserts []*models.Configuration
}

func (s *policyRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error) {
	var out []models.Configuration
	for _, key := range keys {
		if value, ok := s.values[key]; ok {
			out = append(out, models.Configuration{Key: key, Value: value, Type: models.ConfigurationTypeNumber})
		}
	}
	return out, nil
}

func (s *policyRepoStub) Get(ctx context.Context, key string) (*models.Configuration, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	value, ok := s.values[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Configuration{Key: key, Value: value}, nil
}

func (s *policyRepoStub) Upsert(ctx context.Context, cfg *models.Configuration) error {
	s.upserts = append(s.upserts, cfg)
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[cfg.Key] = cfg.Value
	return nil
}

func TestPolicyServiceLookupFallbacks(t *testing.T) {
	repo := &policyRepoStub{values: map[string]string{
		PolicySuggestionRecommendedRate: "85.5",
		PolicySuggestionLimit:           "three",
	}}
	svc := NewPolicyService(repo, nil, nil, nil)
	ctx := context.Background()

	assert.Equal(t, 85.5, svc.LookupFloat(ctx, PolicySuggestionRecommendedRate, 90))
	assert.Equal(t, 5, svc.LookupInt(ctx, PolicySuggestionLimit, 5))
	assert.Equal(t, "fallback", svc.Lookup(ctx, "missing.key", "fallback"))

	repo.getErr = errors.New("connection reset")
	assert.Equal(t, 90.0, svc.LookupFloat(ctx, PolicySuggestionRecommendedRate, 90))

	var nilSvc *PolicyService
	assert.Equal(t, 7, nilSvc.LookupInt(ctx, PolicySuggestionLimit, 7))
}

func TestPolicyServiceList(t *testing.T) {
	repo := &policyRepoStub{values: map[string]string{PolicySuggestionLimit: "3"}}
	svc := NewPolicyService(repo, nil, nil, nil)

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	byKey := map[string]dto.PolicyItem{}
	for _, item := range items {
		byKey[item.Key] = item
	}
	assert.Equal(t, "3", byKey[PolicySuggestionLimit].Value)
	assert.False(t, byKey[PolicySuggestionLimit].IsDefault)
	assert.Equal(t, "90", byKey[PolicySuggestionRecommendedRate].Value)
	assert.True(t, byKey[PolicySuggestionRecommendedRate].IsDefault)
}

func TestPolicyServiceUpdate(t *testing.T) {
	repo := &policyRepoStub{}
	audit := &auditRecorderStub{}
	svc := NewPolicyService(repo, audit, nil, nil)
	actor := &models.Actor{UserID: "admin-1"}

	item, err := svc.Update(context.Background(), dto.UpdatePolicyRequest{Key: PolicySuggestionRecommendedRate, Value: " 80 "}, actor)
	require.NoError(t, err)
	assert.Equal(t, "80", item.Value)
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "admin-1", *repo.upserts[0].UpdatedBy)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPolicyUpdate, audit.logs[0].Action)
	assert.JSONEq(t, `{"value":"90"}`, string(audit.logs[0].OldValues))
	assert.JSONEq(t, `{"value":"80"}`, string(audit.logs[0].NewValues))
}

func TestPolicyServiceUpdateRejectsBadValues(t *testing.T) {
	svc := NewPolicyService(&policyRepoStub{}, nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.UpdatePolicyRequest
		code string
	}{
		{name: "missing value", req: dto.UpdatePolicyRequest{Key: PolicySuggestionLimit}, code: appErrors.ErrValidation.Code},
		{name: "unknown key", req: dto.UpdatePolicyRequest{Key: "nope", Value: "1"}, code: appErrors.ErrNotFound.Code},
		{name: "not numeric", req: dto.UpdatePolicyRequest{Key: PolicySuggestionRecommendedRate, Value: "high"}, code: appErrors.ErrValidation.Code},
		{name: "out of range", req: dto.UpdatePolicyRequest{Key: PolicySuggestionRecommendedRate, Value: "101"}, code: appErrors.ErrValidation.Code},
		{name: "fractional limit", req: dto.UpdatePolicyRequest{Key: PolicySuggestionLimit, Value: "2.5"}, code: appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tc.req, nil)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}
