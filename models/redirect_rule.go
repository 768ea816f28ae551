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

// RuleType represents the kind of condition a redirect rule evaluates
type RuleType string

const (
	RuleTypeGeographic RuleType = "geographic"
	RuleTypeDevice     RuleType = "device"
	RuleTypeTime       RuleType = "time"
	RuleTypeCustom     RuleType = "custom"
)

// String returns the string representation of the rule type
func (t RuleType) String() string {
	return string(t)
}

// Valid checks if the rule type is valid
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeGeographic, RuleTypeDevice, RuleTypeTime, RuleTypeCustom:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RuleType
func (t *RuleType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = RuleType(v)
	case []byte:
		*t = RuleType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RuleType", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for RuleType
func (t RuleType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid RuleType: %s", t)
	}
	return string(t), nil
}

// GeographicConditions matches against the visitor's resolved location.
// Country is checked before region, region before city.
type GeographicConditions struct {
	Countries []string `json:"countries,omitempty"`
	Regions   []string `json:"regions,omitempty"`
	Cities    []string `json:"cities,omitempty"`
}

// DeviceConditions matches against the parsed user agent. Absent lists are
// wildcards; present lists must all match.
type DeviceConditions struct {
	DeviceTypes      []string `json:"device_types,omitempty"`
	Browsers         []string `json:"browsers,omitempty"`
	OperatingSystems []string `json:"operating_systems,omitempty"`
}

// TimeRange is a daily window in "HH:MM" 24h notation, inclusive on both ends
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeConditions matches against the visit timestamp. Ranges are checked
// before weekdays, weekdays before hours.
type TimeConditions struct {
	TimeRanges []TimeRange `json:"time_ranges,omitempty"`
	DaysOfWeek []int       `json:"days_of_week,omitempty"`
	HoursOfDay []int       `json:"hours_of_day,omitempty"`
}

// CustomConditions is a reserved extension point. Rules of this type never
// match; the variant exists so authored payloads round-trip unchanged.
type CustomConditions struct {
	Expression *string `json:"expression,omitempty"`
}

// RuleConditions is the tagged union of per-type condition schemas, persisted
// as JSONB. Exactly one variant must be set and it must agree with the rule's
// RuleType; Validate enforces both at creation time.
type RuleConditions struct {
	Geographic *GeographicConditions `json:"geographic,omitempty"`
	Device     *DeviceConditions     `json:"device,omitempty"`
	Time       *TimeConditions       `json:"time,omitempty"`
	Custom     *CustomConditions     `json:"custom,omitempty"`
}

// Value implements the driver.Valuer interface for RuleConditions
func (c RuleConditions) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for RuleConditions
func (c *RuleConditions) Scan(value any) error {
	if value == nil {
		*c = RuleConditions{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleConditions", value)
	}
	return json.Unmarshal(bytes, c)
}

// Validate checks that exactly one variant is set, that it matches the rule
// type, and that it can ever match at evaluation time.
func (c RuleConditions) Validate(ruleType RuleType) error {
	set := 0
	if c.Geographic != nil {
		set++
	}
	if c.Device != nil {
		set++
	}
	if c.Time != nil {
		set++
	}
	if c.Custom != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("conditions must carry exactly one variant, got %d", set)
	}

	switch ruleType {
	case RuleTypeGeographic:
		if c.Geographic == nil {
			return fmt.Errorf("geographic rule requires geographic conditions")
		}
		if len(c.Geographic.Countries) == 0 && len(c.Geographic.Regions) == 0 && len(c.Geographic.Cities) == 0 {
			return fmt.Errorf("geographic conditions require at least one of countries, regions, cities")
		}
	case RuleTypeDevice:
		if c.Device == nil {
			return fmt.Errorf("device rule requires device conditions")
		}
		if len(c.Device.DeviceTypes) == 0 && len(c.Device.Browsers) == 0 && len(c.Device.OperatingSystems) == 0 {
			return fmt.Errorf("device conditions require at least one of device_types, browsers, operating_systems")
		}
	case RuleTypeTime:
		if c.Time == nil {
			return fmt.Errorf("time rule requires time conditions")
		}
		if len(c.Time.TimeRanges) == 0 && len(c.Time.DaysOfWeek) == 0 && len(c.Time.HoursOfDay) == 0 {
			return fmt.Errorf("time conditions require at least one of time_ranges, days_of_week, hours_of_day")
		}
		for _, r := range c.Time.TimeRanges {
			if _, err := time.Parse("15:04", r.Start); err != nil {
				return fmt.Errorf("invalid time range start %q", r.Start)
			}
			if _, err := time.Parse("15:04", r.End); err != nil {
				return fmt.Errorf("invalid time range end %q", r.End)
			}
		}
		for _, d := range c.Time.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("day of week %d out of range 0-6", d)
			}
		}
		for _, h := range c.Time.HoursOfDay {
			if h < 0 || h > 23 {
				return fmt.Errorf("hour of day %d out of range 0-23", h)
			}
		}
	case RuleTypeCustom:
		if c.Custom == nil {
			return fmt.Errorf("custom rule requires custom conditions")
		}
	default:
		return fmt.Errorf("invalid rule type %q", ruleType)
	}
	return nil
}

// RedirectRule is a priority-ordered, condition-based override selecting a
// target version for a code. Lower priority evaluates first.
type RedirectRule struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_redirect_rules_uuid" json:"uuid"`
	CodeID          uint           `gorm:"not null;index:idx_redirect_rules_code_id" json:"code_id"`
	RuleName        string         `gorm:"size:255;not null" json:"rule_name"`
	RuleType        RuleType       `gorm:"type:redirect_rule_type;not null" json:"rule_type"`
	Conditions      RuleConditions `gorm:"type:jsonb;not null" json:"conditions"`
	TargetVersionID uint           `gorm:"not null" json:"target_version_id"`
	Priority        int            `gorm:"not null;default:1;index:idx_redirect_rules_priority" json:"priority"`
	IsEnabled       *bool          `gorm:"not null;default:true" json:"is_enabled"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Code          *QRCode         `gorm:"foreignKey:CodeID;references:ID" json:"code,omitempty"`
	TargetVersion *ContentVersion `gorm:"foreignKey:TargetVersionID;references:ID" json:"target_version,omitempty"`
}

// TableName returns the table name for RedirectRule
func (RedirectRule) TableName() string { return "redirect_rules" }

// BeforeCreate is called before creating a new record
func (r *RedirectRule) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Priority == 0 {
		r.Priority = 1
	}
	if r.IsEnabled == nil {
		r.IsEnabled = utils.ToPtr(true)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *RedirectRule) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// RedirectRuleFilter represents filter criteria for redirect rules
type RedirectRuleFilter struct {
	ID        *uint
	UUID      *uuid.UUID
	CodeID    *uint
	RuleType  *RuleType
	IsEnabled *bool
	Priority  *int
}
