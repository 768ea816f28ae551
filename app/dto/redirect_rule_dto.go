package dto

import (
	"github.com/amirphl/Yata-no-Kagami/models"
)

// CreateRedirectRuleRequest defines input for creating a redirect rule.
// Conditions must carry exactly the variant matching RuleType.
type CreateRedirectRuleRequest struct {
	CodeUID       string                `json:"code_uid" validate:"required"`
	RuleName      string                `json:"rule_name" validate:"required,min=1,max=255"`
	RuleType      string                `json:"rule_type" validate:"required,oneof=geographic device time custom"`
	Conditions    models.RuleConditions `json:"conditions" validate:"required"`
	TargetVersion string                `json:"target_version" validate:"required,uuid4"`
	Priority      *int                  `json:"priority,omitempty" validate:"omitempty,gte=1"`
	IsEnabled     *bool                 `json:"is_enabled,omitempty"`
}

// UpdateRedirectRuleRequest defines the patchable fields of a rule
type UpdateRedirectRuleRequest struct {
	RuleName      *string                `json:"rule_name,omitempty" validate:"omitempty,min=1,max=255"`
	Conditions    *models.RuleConditions `json:"conditions,omitempty"`
	TargetVersion *string                `json:"target_version,omitempty" validate:"omitempty,uuid4"`
	Priority      *int                   `json:"priority,omitempty" validate:"omitempty,gte=1"`
	IsEnabled     *bool                  `json:"is_enabled,omitempty"`
}

// RedirectRuleResponse is the public representation of a redirect rule
type RedirectRuleResponse struct {
	UUID          string                `json:"uuid"`
	CodeUID       string                `json:"code_uid"`
	RuleName      string                `json:"rule_name"`
	RuleType      string                `json:"rule_type"`
	Conditions    models.RuleConditions `json:"conditions"`
	TargetVersion string                `json:"target_version"`
	Priority      int                   `json:"priority"`
	IsEnabled     bool                  `json:"is_enabled"`
	CreatedAt     string                `json:"created_at"`
}
