// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// QRCodeRepository defines operations for QR codes
type QRCodeRepository interface {
	Repository[models.QRCode, models.QRCodeFilter]
	ByUID(ctx context.Context, uid string) (*models.QRCode, error)
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.QRCode, error)
}

// ContentVersionRepository defines operations for content versions
type ContentVersionRepository interface {
	Repository[models.ContentVersion, models.ContentVersionFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.ContentVersion, error)
	GetActiveByCode(ctx context.Context, codeID uint) (*models.ContentVersion, error)
	DeactivateAllByCode(ctx context.Context, codeID uint) error
	SetActive(ctx context.Context, versionID uint, active bool) error
	ListByCode(ctx context.Context, codeID uint) ([]*models.ContentVersion, error)
}

// ABTestRepository defines operations for A/B tests
type ABTestRepository interface {
	Repository[models.ABTest, models.ABTestFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.ABTest, error)
	FindRunningByCode(ctx context.Context, codeID uint) (*models.ABTest, error)
	CountRunningByCode(ctx context.Context, codeID uint) (int64, error)
	ExistsRunningWithVariant(ctx context.Context, versionID uint) (bool, error)
}

// RedirectRuleRepository defines operations for redirect rules
type RedirectRuleRepository interface {
	Repository[models.RedirectRule, models.RedirectRuleFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.RedirectRule, error)
	ListEnabledByCode(ctx context.Context, codeID uint) ([]*models.RedirectRule, error)
}

// ContentScheduleRepository defines operations for content schedules
type ContentScheduleRepository interface {
	Repository[models.ContentSchedule, models.ContentScheduleFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.ContentSchedule, error)
	ListActiveByCode(ctx context.Context, codeID uint, asOf time.Time) ([]*models.ContentSchedule, error)
}

// AnalyticsRepository defines operations for dynamic analytics records
type AnalyticsRepository interface {
	Save(ctx context.Context, record *models.DynamicAnalyticsRecord) error
	ByFilter(ctx context.Context, filter models.DynamicAnalyticsFilter, orderBy string, limit, offset int) ([]*models.DynamicAnalyticsRecord, error)
	Count(ctx context.Context, filter models.DynamicAnalyticsFilter) (int64, error)
	StatsByCode(ctx context.Context, codeID uint) (*models.CodeStats, error)
}
