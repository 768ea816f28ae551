package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ABTestRepositoryImpl implements ABTestRepository
type ABTestRepositoryImpl struct {
	*BaseRepository[models.ABTest, models.ABTestFilter]
}

func NewABTestRepository(db *gorm.DB) ABTestRepository {
	return &ABTestRepositoryImpl{BaseRepository: NewBaseRepository[models.ABTest, models.ABTestFilter](db)}
}

func (r *ABTestRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.ABTest, error) {
	db := r.getDB(ctx)
	var row models.ABTest
	if err := db.Where("uuid = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindRunningByCode returns the oldest running test of a code. Start enforces
// at most one running test per code, so ordering only matters for rows
// predating that invariant.
func (r *ABTestRepositoryImpl) FindRunningByCode(ctx context.Context, codeID uint) (*models.ABTest, error) {
	db := r.getDB(ctx)
	var row models.ABTest
	err := db.Where("code_id = ? AND status = ?", codeID, models.ABTestStatusRunning).
		Order("created_at ASC, id ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ABTestRepositoryImpl) CountRunningByCode(ctx context.Context, codeID uint) (int64, error) {
	status := models.ABTestStatusRunning
	return r.Count(ctx, models.ABTestFilter{CodeID: &codeID, Status: &status})
}

func (r *ABTestRepositoryImpl) ExistsRunningWithVariant(ctx context.Context, versionID uint) (bool, error) {
	status := models.ABTestStatusRunning
	return r.Exists(ctx, models.ABTestFilter{Status: &status, VariantID: &versionID})
}

func (r *ABTestRepositoryImpl) applyFilter(db *gorm.DB, f models.ABTestFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CodeID != nil {
		db = db.Where("code_id = ?", *f.CodeID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.VariantID != nil {
		db = db.Where("variant_a_id = ? OR variant_b_id = ?", *f.VariantID, *f.VariantID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ABTestRepositoryImpl) ByFilter(ctx context.Context, filter models.ABTestFilter, orderBy string, limit, offset int) ([]*models.ABTest, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ABTest{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ABTest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ABTestRepositoryImpl) Count(ctx context.Context, filter models.ABTestFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ABTest{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ABTestRepositoryImpl) Exists(ctx context.Context, filter models.ABTestFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
