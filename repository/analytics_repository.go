package repository

import (
	"context"
	"time"

	"github.com/amirphl/Yata-no-Kagami/models"
	"gorm.io/gorm"
)

// AnalyticsRepositoryImpl implements AnalyticsRepository. Records are
// append-only; there is no update or delete path.
type AnalyticsRepositoryImpl struct {
	*BaseRepository[models.DynamicAnalyticsRecord, models.DynamicAnalyticsFilter]
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &AnalyticsRepositoryImpl{BaseRepository: NewBaseRepository[models.DynamicAnalyticsRecord, models.DynamicAnalyticsFilter](db)}
}

func (r *AnalyticsRepositoryImpl) applyFilter(db *gorm.DB, f models.DynamicAnalyticsFilter) *gorm.DB {
	if f.CodeID != nil {
		db = db.Where("code_id = ?", *f.CodeID)
	}
	if f.VersionID != nil {
		db = db.Where("version_id = ?", *f.VersionID)
	}
	if f.ABTestID != nil {
		db = db.Where("ab_test_id = ?", *f.ABTestID)
	}
	if f.Country != nil {
		db = db.Where("country = ?", *f.Country)
	}
	if f.DeviceType != nil {
		db = db.Where("device_type = ?", *f.DeviceType)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *AnalyticsRepositoryImpl) ByFilter(ctx context.Context, filter models.DynamicAnalyticsFilter, orderBy string, limit, offset int) ([]*models.DynamicAnalyticsRecord, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DynamicAnalyticsRecord{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.DynamicAnalyticsRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnalyticsRepositoryImpl) Count(ctx context.Context, filter models.DynamicAnalyticsFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.DynamicAnalyticsRecord{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// StatsByCode aggregates the analytics of one code: total scans, breakdowns by
// version, variant, device type and country, and the first/last scan times.
func (r *AnalyticsRepositoryImpl) StatsByCode(ctx context.Context, codeID uint) (*models.CodeStats, error) {
	db := r.getDB(ctx)
	stats := &models.CodeStats{}

	base := func() *gorm.DB {
		return db.Model(&models.DynamicAnalyticsRecord{}).Where("code_id = ?", codeID)
	}

	if err := base().Count(&stats.TotalScans).Error; err != nil {
		return nil, err
	}

	if err := base().
		Select("version_id, COUNT(*) AS scans").
		Group("version_id").
		Order("scans DESC").
		Scan(&stats.ByVersion).Error; err != nil {
		return nil, err
	}

	if err := base().
		Select("variant, COUNT(*) AS scans").
		Where("variant IS NOT NULL").
		Group("variant").
		Order("variant ASC").
		Scan(&stats.ByVariant).Error; err != nil {
		return nil, err
	}

	if err := base().
		Select("COALESCE(device_type, 'unknown') AS label, COUNT(*) AS scans").
		Group("label").
		Order("scans DESC").
		Scan(&stats.ByDevice).Error; err != nil {
		return nil, err
	}

	if err := base().
		Select("COALESCE(country, 'unknown') AS label, COUNT(*) AS scans").
		Group("label").
		Order("scans DESC").
		Scan(&stats.ByCountry).Error; err != nil {
		return nil, err
	}

	var bounds struct {
		First *time.Time
		Last  *time.Time
	}
	if err := base().
		Select("MIN(created_at) AS first, MAX(created_at) AS last").
		Scan(&bounds).Error; err != nil {
		return nil, err
	}
	stats.FirstScan = bounds.First
	stats.LastScan = bounds.Last

	return stats, nil
}
