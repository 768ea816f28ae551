package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ABTestStatus represents the status of an A/B test
type ABTestStatus string

const (
	ABTestStatusDraft     ABTestStatus = "draft"
	ABTestStatusRunning   ABTestStatus = "running"
	ABTestStatusPaused    ABTestStatus = "paused"
	ABTestStatusCompleted ABTestStatus = "completed"
)

// String returns the string representation of the status
func (s ABTestStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ABTestStatus) Valid() bool {
	switch s {
	case ABTestStatusDraft, ABTestStatusRunning, ABTestStatusPaused, ABTestStatusCompleted:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ABTestStatus
func (s *ABTestStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = ABTestStatus(v)
	case []byte:
		*s = ABTestStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ABTestStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for ABTestStatus
func (s ABTestStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ABTestStatus: %s", s)
	}
	return string(s), nil
}

// A/B test variant labels
const (
	ABTestVariantA = "A"
	ABTestVariantB = "B"
)

// DefaultTrafficSplit is the percentage routed to variant A when unspecified
const DefaultTrafficSplit = 50

// ABTest splits the traffic of a code between two content versions.
// TrafficSplit is the percentage assigned to variant A and is immutable while
// the test is running. VariantAID and VariantBID must belong to CodeID and be
// distinct; the flow layer validates both at creation time.
type ABTest struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_ab_tests_uuid" json:"uuid"`
	CodeID        uint         `gorm:"not null;index:idx_ab_tests_code_id" json:"code_id"`
	TestName      string       `gorm:"size:255;not null" json:"test_name"`
	VariantAID    uint         `gorm:"not null" json:"variant_a_id"`
	VariantBID    uint         `gorm:"not null" json:"variant_b_id"`
	TrafficSplit  int          `gorm:"not null;default:50" json:"traffic_split"`
	Status        ABTestStatus `gorm:"type:ab_test_status;not null;default:'draft';index:idx_ab_tests_status" json:"status"`
	WinnerVariant *string      `gorm:"size:1" json:"winner_variant,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_ab_tests_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Code     *QRCode         `gorm:"foreignKey:CodeID;references:ID" json:"code,omitempty"`
	VariantA *ContentVersion `gorm:"foreignKey:VariantAID;references:ID" json:"variant_a,omitempty"`
	VariantB *ContentVersion `gorm:"foreignKey:VariantBID;references:ID" json:"variant_b,omitempty"`
}

// TableName returns the table name for ABTest
func (ABTest) TableName() string { return "ab_tests" }

// BeforeCreate is called before creating a new record
func (t *ABTest) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.Status == "" {
		t.Status = ABTestStatusDraft
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (t *ABTest) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// IsRunning reports whether the test is currently splitting traffic
func (t *ABTest) IsRunning() bool {
	return t.Status == ABTestStatusRunning
}

// IsDeletable checks if the test can be deleted
func (t *ABTest) IsDeletable() bool {
	return t.Status != ABTestStatusRunning
}

// References reports whether the test uses the given version as a variant
func (t *ABTest) References(versionID uint) bool {
	return t.VariantAID == versionID || t.VariantBID == versionID
}

// CanTransitionTo checks if the test can transition to the given status
func (t *ABTest) CanTransitionTo(newStatus ABTestStatus) bool {
	switch t.Status {
	case ABTestStatusDraft:
		return newStatus == ABTestStatusRunning
	case ABTestStatusRunning:
		return newStatus == ABTestStatusPaused || newStatus == ABTestStatusCompleted
	case ABTestStatusPaused:
		return newStatus == ABTestStatusRunning || newStatus == ABTestStatusCompleted
	default:
		return false
	}
}

// ABTestFilter represents filter criteria for A/B tests
type ABTestFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CodeID        *uint
	Status        *ABTestStatus
	VariantID     *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
