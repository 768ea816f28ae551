package models

import (
	"time"

	"github.com/amirphl/Yata-no-Kagami/utils"
	"gorm.io/gorm"
)

// DynamicAnalyticsRecord is a single resolved scan, written append-only after
// the redirect has been decided. The resolution path never reads this table.
type DynamicAnalyticsRecord struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	CodeID         uint    `gorm:"not null;index:idx_dynamic_analytics_code_id" json:"code_id"`
	VersionID      uint    `gorm:"not null;index:idx_dynamic_analytics_version_id" json:"version_id"`
	ABTestID       *uint   `gorm:"index:idx_dynamic_analytics_ab_test_id" json:"ab_test_id,omitempty"`
	Variant        *string `gorm:"size:1" json:"variant,omitempty"`
	RedirectRuleID *uint   `json:"redirect_rule_id,omitempty"`

	DeviceType *string `gorm:"size:32" json:"device_type,omitempty"`
	Browser    *string `gorm:"size:64" json:"browser,omitempty"`
	OS         *string `gorm:"size:64" json:"os,omitempty"`

	IPAddress *string `gorm:"size:64" json:"ip_address,omitempty"`
	Country   *string `gorm:"size:64;index:idx_dynamic_analytics_country" json:"country,omitempty"`
	Region    *string `gorm:"size:64" json:"region,omitempty"`
	City      *string `gorm:"size:64" json:"city,omitempty"`
	Referrer  *string `gorm:"type:text" json:"referrer,omitempty"`
	SessionID *string `gorm:"size:128" json:"session_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_dynamic_analytics_created_at" json:"created_at"`
}

// TableName returns the table name for DynamicAnalyticsRecord
func (DynamicAnalyticsRecord) TableName() string { return "dynamic_analytics_records" }

// BeforeCreate is called before creating a new record
func (r *DynamicAnalyticsRecord) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// DynamicAnalyticsFilter provides filter fields for repository queries
type DynamicAnalyticsFilter struct {
	CodeID        *uint
	VersionID     *uint
	ABTestID      *uint
	Country       *string
	DeviceType    *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// VersionScanCount is one row of the per-version aggregation
type VersionScanCount struct {
	VersionID uint  `json:"version_id"`
	Scans     int64 `json:"scans"`
}

// VariantScanCount is one row of the per-variant aggregation
type VariantScanCount struct {
	Variant string `json:"variant"`
	Scans   int64  `json:"scans"`
}

// LabelScanCount is one row of a label/count aggregation (device, country)
type LabelScanCount struct {
	Label string `json:"label"`
	Scans int64  `json:"scans"`
}

// CodeStats aggregates the analytics of one code for reporting
type CodeStats struct {
	TotalScans int64              `json:"total_scans"`
	ByVersion  []VersionScanCount `json:"by_version"`
	ByVariant  []VariantScanCount `json:"by_variant"`
	ByDevice   []LabelScanCount   `json:"by_device"`
	ByCountry  []LabelScanCount   `json:"by_country"`
	FirstScan  *time.Time         `json:"first_scan,omitempty"`
	LastScan   *time.Time         `json:"last_scan,omitempty"`
}
