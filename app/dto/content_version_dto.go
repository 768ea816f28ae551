package dto

import (
	"encoding/json"
	"time"
)

// CreateContentVersionRequest defines input for creating a content version.
// Content is the opaque payload the version resolves to; when IsActive is
// true every other version of the code is deactivated first.
type CreateContentVersionRequest struct {
	CodeUID     string          `json:"code_uid" validate:"required"`
	Content     json.RawMessage `json:"content" validate:"required"`
	RedirectURL *string         `json:"redirect_url,omitempty" validate:"omitempty,url"`
	IsActive    *bool           `json:"is_active,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
}

// ContentVersionResponse is the public representation of a content version
type ContentVersionResponse struct {
	UUID        string          `json:"uuid"`
	CodeUID     string          `json:"code_uid"`
	Content     json.RawMessage `json:"content"`
	RedirectURL *string         `json:"redirect_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// ListContentVersionsResponse wraps the versions of one code
type ListContentVersionsResponse struct {
	Items []ContentVersionResponse `json:"items"`
	Total int                      `json:"total"`
}
