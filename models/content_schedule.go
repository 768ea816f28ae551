package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepeatPattern represents the recurrence of a content schedule
type RepeatPattern string

const (
	RepeatPatternNone    RepeatPattern = "none"
	RepeatPatternDaily   RepeatPattern = "daily"
	RepeatPatternWeekly  RepeatPattern = "weekly"
	RepeatPatternMonthly RepeatPattern = "monthly"
)

// String returns the string representation of the pattern
func (p RepeatPattern) String() string {
	return string(p)
}

// Valid checks if the pattern is valid
func (p RepeatPattern) Valid() bool {
	switch p {
	case RepeatPatternNone, RepeatPatternDaily, RepeatPatternWeekly, RepeatPatternMonthly:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RepeatPattern
func (p *RepeatPattern) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*p = RepeatPattern(v)
	case []byte:
		*p = RepeatPattern(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RepeatPattern", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for RepeatPattern
func (p RepeatPattern) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid RepeatPattern: %s", p)
	}
	return string(p), nil
}

// WeekdaySet holds the weekday numbers (0 = Sunday) a recurring schedule
// applies to, persisted as a JSONB array.
type WeekdaySet []int

// Value implements the driver.Valuer interface for WeekdaySet
func (s WeekdaySet) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]int{})
	}
	return json.Marshal([]int(s))
}

// Scan implements the sql.Scanner interface for WeekdaySet
func (s *WeekdaySet) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into WeekdaySet", value)
	}
	return json.Unmarshal(bytes, (*[]int)(s))
}

// Contains reports whether the set holds the given weekday
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return slices.Contains(s, int(d))
}

// ContentSchedule activates a specific version of a code inside a time window,
// optionally recurring on selected weekdays. Times are evaluated in the
// schedule's own timezone.
type ContentSchedule struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_content_schedules_uuid" json:"uuid"`
	CodeID        uint          `gorm:"not null;index:idx_content_schedules_code_id" json:"code_id"`
	VersionID     uint          `gorm:"not null" json:"version_id"`
	ScheduleName  string        `gorm:"size:255;not null" json:"schedule_name"`
	StartTime     time.Time     `gorm:"not null;index:idx_content_schedules_start_time" json:"start_time"`
	EndTime       *time.Time    `json:"end_time,omitempty"`
	RepeatPattern RepeatPattern `gorm:"type:repeat_pattern;not null;default:'none'" json:"repeat_pattern"`
	RepeatDays    WeekdaySet    `gorm:"type:jsonb" json:"repeat_days,omitempty"`
	Timezone      string        `gorm:"size:64;not null;default:'UTC'" json:"timezone"`
	IsActive      *bool         `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_content_schedules_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Code    *QRCode         `gorm:"foreignKey:CodeID;references:ID" json:"code,omitempty"`
	Version *ContentVersion `gorm:"foreignKey:VersionID;references:ID" json:"version,omitempty"`
}

// TableName returns the table name for ContentSchedule
func (ContentSchedule) TableName() string { return "content_schedules" }

// BeforeCreate is called before creating a new record
func (s *ContentSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.RepeatPattern == "" {
		s.RepeatPattern = RepeatPatternNone
	}
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *ContentSchedule) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// ActiveAt reports whether the schedule window covers the given instant:
// asOf must not precede StartTime, must not exceed EndTime when one is set,
// and for recurring schedules the local weekday must be in RepeatDays.
func (s *ContentSchedule) ActiveAt(asOf time.Time) bool {
	if !utils.IsTrue(s.IsActive) {
		return false
	}
	local := utils.InTimezone(asOf, s.Timezone)
	if local.Before(utils.InTimezone(s.StartTime, s.Timezone)) {
		return false
	}
	if s.EndTime != nil && local.After(utils.InTimezone(*s.EndTime, s.Timezone)) {
		return false
	}
	// An unset pattern means a one-off window, same as "none".
	if s.RepeatPattern == "" || s.RepeatPattern == RepeatPatternNone {
		return true
	}
	return s.RepeatDays.Contains(local.Weekday())
}

// ContentScheduleFilter represents filter criteria for content schedules
type ContentScheduleFilter struct {
	ID          *uint
	UUID        *uuid.UUID
	CodeID      *uint
	VersionID   *uint
	IsActive    *bool
	StartBefore *time.Time
	StartAfter  *time.Time
}
