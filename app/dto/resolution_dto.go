package dto

import "encoding/json"

// Resolution sources, in cascade priority order
const (
	ResolutionSourceABTest   = "ab_test"
	ResolutionSourceRule     = "redirect_rule"
	ResolutionSourceSchedule = "schedule"
	ResolutionSourceDefault  = "active_version"
)

// ResolveRequest carries the optional visitor context of a scan. Everything
// the client omits is inferred from the HTTP request where possible.
type ResolveRequest struct {
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Country   string `json:"country,omitempty" validate:"omitempty,max=64"`
	Region    string `json:"region,omitempty" validate:"omitempty,max=64"`
	City      string `json:"city,omitempty" validate:"omitempty,max=64"`
}

// ResolutionResponse is the outcome of one cascade walk
type ResolutionResponse struct {
	CodeUID     string          `json:"code_uid"`
	Version     string          `json:"version"`
	RedirectURL string          `json:"redirect_url"`
	Content     json.RawMessage `json:"content,omitempty"`
	Source      string          `json:"source"`
	Variant     *string         `json:"variant,omitempty"`
}
