// Package businessflow contains the business logic for dynamic content resolution.
package businessflow

import (
	"time"

	"github.com/amirphl/Yata-no-Kagami/models"
)

type requestContextKey string

// RequestIDKey carries the inbound X-Request-ID through request contexts
const RequestIDKey requestContextKey = "X-Request-ID"

// ResolutionContext carries everything known about the visitor at scan time.
// All fields are optional; an empty context still resolves through the
// default-version step of the cascade.
type ResolutionContext struct {
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Country   string    `json:"country,omitempty"`
	Region    string    `json:"region,omitempty"`
	City      string    `json:"city,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// At returns the context timestamp, falling back to asOf when unset
func (c *ResolutionContext) At(asOf time.Time) time.Time {
	if c == nil || c.Timestamp.IsZero() {
		return asOf
	}
	return c.Timestamp
}

// SessionKey is the identifier used for session-stable variant assignment:
// the session ID when present, else the IP address, else a fixed key.
func (c *ResolutionContext) SessionKey() string {
	if c == nil {
		return "default"
	}
	if c.SessionID != "" {
		return c.SessionID
	}
	if c.IPAddress != "" {
		return c.IPAddress
	}
	return "default"
}

// DeviceInfo is the parsed shape of a user agent
type DeviceInfo struct {
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
}

// UserAgentParser is the injected user-agent-parsing capability. Rule
// matching and analytics depend on this interface only, so both stay pure
// and unit-testable without a real parser.
type UserAgentParser interface {
	Parse(userAgent string) DeviceInfo
}

func versionIsActive(v *models.ContentVersion) bool {
	return v.IsActive != nil && *v.IsActive
}
