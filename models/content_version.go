package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentPayload is the opaque structured content of a version, persisted as
// JSONB. It may be a plain JSON string, an object, or any other JSON value;
// the resolution flow only ever inspects it to derive a redirect target.
type ContentPayload json.RawMessage

// Value implements the driver.Valuer interface for ContentPayload
func (p ContentPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	if !json.Valid(p) {
		return nil, fmt.Errorf("content payload is not valid JSON")
	}
	return []byte(p), nil
}

// Scan implements the sql.Scanner interface for ContentPayload
func (p *ContentPayload) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*p = append((*p)[:0], v...)
	case string:
		*p = ContentPayload(v)
	default:
		return fmt.Errorf("cannot scan %T into ContentPayload", value)
	}
	return nil
}

// MarshalJSON renders the raw payload as-is
func (p ContentPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON stores the raw payload as-is
func (p *ContentPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// IsEmpty reports whether the payload carries no content at all
func (p ContentPayload) IsEmpty() bool {
	if len(p) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(p, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// AsString returns the payload as a plain string when it is a JSON string
func (p ContentPayload) AsString() (string, bool) {
	var s string
	if err := json.Unmarshal(p, &s); err != nil {
		return "", false
	}
	return s, true
}

// StringField returns a top-level string field of an object payload
func (p ContentPayload) StringField(name string) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(p, &obj); err != nil {
		return "", false
	}
	raw, ok := obj[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// ContentVersion is one candidate payload/redirect a code can resolve to.
// Invariant: for a given CodeID at most one version has IsActive = true at any
// observable instant; the flow layer enforces it inside a transaction.
type ContentVersion struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_content_versions_uuid" json:"uuid"`
	CodeID      uint           `gorm:"not null;index:idx_content_versions_code_id" json:"code_id"`
	Content     ContentPayload `gorm:"type:jsonb;not null" json:"content"`
	RedirectURL *string        `gorm:"type:text" json:"redirect_url,omitempty"`
	IsActive    *bool          `gorm:"not null;default:false;index:idx_content_versions_is_active" json:"is_active"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_content_versions_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Code *QRCode `gorm:"foreignKey:CodeID;references:ID" json:"code,omitempty"`
}

// TableName returns the table name for ContentVersion
func (ContentVersion) TableName() string { return "content_versions" }

// BeforeCreate is called before creating a new record
func (v *ContentVersion) BeforeCreate(tx *gorm.DB) error {
	if v.UUID == uuid.Nil {
		v.UUID = uuid.New()
	}
	if v.IsActive == nil {
		v.IsActive = utils.ToPtr(false)
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (v *ContentVersion) BeforeUpdate(tx *gorm.DB) error {
	v.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// DefaultRedirect derives a redirect target from the version itself:
// the explicit RedirectURL wins, then a plain-string payload, then the
// payload's "url" field, then its "redirect_url" field, then the fallback.
func (v *ContentVersion) DefaultRedirect(fallback string) string {
	if v.RedirectURL != nil && *v.RedirectURL != "" {
		return *v.RedirectURL
	}
	if s, ok := v.Content.AsString(); ok && s != "" {
		return s
	}
	if s, ok := v.Content.StringField("url"); ok && s != "" {
		return s
	}
	if s, ok := v.Content.StringField("redirect_url"); ok && s != "" {
		return s
	}
	if s, ok := v.Content.StringField("redirectUrl"); ok && s != "" {
		return s
	}
	return fallback
}

// ContentVersionFilter provides filter fields for repository queries
type ContentVersionFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CodeID        *uint
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
