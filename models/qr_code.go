package models

import (
	"time"

	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRCode is the logical code identity every resolution request targets.
// UID is the short scan token embedded in the printed code.
// All content versions, tests, rules, schedules and analytics rows hang off
// CodeID and are removed together with the code.
type QRCode struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_qr_codes_uuid" json:"uuid"`
	UID  string    `gorm:"size:64;not null;uniqueIndex:uk_qr_codes_uid" json:"uid"`
	Name *string   `gorm:"size:255" json:"name,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_qr_codes_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	ContentVersions []ContentVersion `gorm:"foreignKey:CodeID;constraint:OnDelete:CASCADE" json:"content_versions,omitempty"`
}

// TableName returns the table name for QRCode
func (QRCode) TableName() string { return "qr_codes" }

// BeforeCreate is called before creating a new record
func (q *QRCode) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (q *QRCode) BeforeUpdate(tx *gorm.DB) error {
	q.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// QRCodeFilter provides filter fields for repository queries
type QRCodeFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	UID           *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
