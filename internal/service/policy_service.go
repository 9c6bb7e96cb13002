package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-center-api/internal/dto"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

// Policy keys consulted by the scheduling engine.
const (
	PolicySuggestionRecommendedRate = "scheduling.suggestion.recommended_rate"
	PolicySuggestionLimit           = "scheduling.suggestion.limit"
)

type policyRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	Get(ctx context.Context, key string) (*models.Configuration, error)
	Upsert(ctx context.Context, cfg *models.Configuration) error
}

type policyDefinition struct {
	Key         string
	Type        models.ConfigurationType
	Default     string
	Description string
	Min         float64
	Max         float64
	Integer     bool
}

var policyKeys = []string{
	PolicySuggestionLimit,
	PolicySuggestionRecommendedRate,
}

var policyDefinitions = map[string]policyDefinition{
	PolicySuggestionRecommendedRate: {
		Key:         PolicySuggestionRecommendedRate,
		Type:        models.ConfigurationTypeNumber,
		Default:     "90",
		Description: "Minimum availability rate (percent) for a conflict-free alternative to be recommended",
		Min:         0,
		Max:         100,
	},
	PolicySuggestionLimit: {
		Key:         PolicySuggestionLimit,
		Type:        models.ConfigurationTypeNumber,
		Default:     "0",
		Description: "Maximum alternatives returned per conflict; 0 returns all",
		Min:         0,
		Max:         100,
		Integer:     true,
	},
}

// PolicyService reads system policy values with caller supplied fallbacks and lets admins override them.
type PolicyService struct {
	repo      policyRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPolicyService constructs a PolicyService.
func NewPolicyService(repo policyRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *PolicyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Lookup returns the stored value for key, or fallback when it is unset or unreadable.
func (s *PolicyService) Lookup(ctx context.Context, key, fallback string) string {
	if s == nil || s.repo == nil {
		return fallback
	}
	cfg, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("policy lookup failed", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	value := strings.TrimSpace(cfg.Value)
	if value == "" {
		return fallback
	}
	return value
}

// LookupFloat parses the policy as a number, falling back on absent or malformed values.
func (s *PolicyService) LookupFloat(ctx context.Context, key string, fallback float64) float64 {
	raw := s.Lookup(ctx, key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.logger.Warn("policy value is not numeric", zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return value
}

// LookupInt parses the policy as an integer, falling back on absent or malformed values.
func (s *PolicyService) LookupInt(ctx context.Context, key string, fallback int) int {
	raw := s.Lookup(ctx, key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("policy value is not an integer", zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return value
}

// List returns every known policy with its effective value.
func (s *PolicyService) List(ctx context.Context) ([]dto.PolicyItem, error) {
	rows, err := s.repo.ListByKeys(ctx, policyKeys)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list policies")
	}
	stored := make(map[string]models.Configuration, len(rows))
	for _, row := range rows {
		stored[row.Key] = row
	}

	items := make([]dto.PolicyItem, 0, len(policyKeys))
	for _, key := range policyKeys {
		def := policyDefinitions[key]
		item := dto.PolicyItem{
			Key:         key,
			Value:       def.Default,
			Type:        string(def.Type),
			Description: def.Description,
			IsDefault:   true,
		}
		if row, ok := stored[key]; ok {
			item.Value = row.Value
			item.IsDefault = false
		}
		items = append(items, item)
	}
	return items, nil
}

// Update overrides a policy value.
func (s *PolicyService) Update(ctx context.Context, req dto.UpdatePolicyRequest, actor *models.Actor) (*dto.PolicyItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid policy payload")
	}
	def, ok := policyDefinitions[req.Key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "policy not found")
	}
	value := strings.TrimSpace(req.Value)
	if def.Type == models.ConfigurationTypeNumber {
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "policy value must be numeric")
		}
		if def.Integer && number != float64(int64(number)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "policy value must be a whole number")
		}
		if number < def.Min || number > def.Max {
			return nil, appErrors.Clone(appErrors.ErrValidation, "policy value out of range")
		}
	}

	previous := s.Lookup(ctx, req.Key, def.Default)
	description := def.Description
	cfg := &models.Configuration{
		Key:         req.Key,
		Value:       value,
		Type:        def.Type,
		Description: &description,
	}
	if actor != nil && actor.UserID != "" {
		cfg.UpdatedBy = &actor.UserID
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update policy")
	}

	if s.audit != nil {
		s.audit.Record(ctx, newAuditLog(actor, models.AuditActionPolicyUpdate, models.AuditResourcePolicy, req.Key,
			map[string]string{"value": previous}, map[string]string{"value": value}))
	}

	return &dto.PolicyItem{
		Key:         req.Key,
		Value:       value,
		Type:        string(def.Type),
		Description: def.Description,
	}, nil
}
