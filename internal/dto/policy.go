package dto

// PolicyItem is a scheduling policy entry with its effective value.
type PolicyItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
	IsDefault   bool   `json:"isDefault"`
}

// UpdatePolicyRequest overrides a single policy value.
type UpdatePolicyRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}
