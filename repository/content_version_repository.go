package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentVersionRepositoryImpl implements ContentVersionRepository
type ContentVersionRepositoryImpl struct {
	*BaseRepository[models.ContentVersion, models.ContentVersionFilter]
}

func NewContentVersionRepository(db *gorm.DB) ContentVersionRepository {
	return &ContentVersionRepositoryImpl{BaseRepository: NewBaseRepository[models.ContentVersion, models.ContentVersionFilter](db)}
}

func (r *ContentVersionRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.ContentVersion, error) {
	db := r.getDB(ctx)
	var row models.ContentVersion
	if err := db.Where("uuid = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetActiveByCode returns the single active version of a code, if any.
// More than one active row can only exist after an interrupted activation;
// the most recently updated row wins in that case.
func (r *ContentVersionRepositoryImpl) GetActiveByCode(ctx context.Context, codeID uint) (*models.ContentVersion, error) {
	db := r.getDB(ctx)
	var row models.ContentVersion
	err := db.Where("code_id = ? AND is_active = ?", codeID, true).
		Order("updated_at DESC NULLS LAST, id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// DeactivateAllByCode clears the active flag of every version of a code in a
// single UPDATE scoped by code_id. Callers run it inside a transaction
// together with SetActive to keep the single-active invariant.
func (r *ContentVersionRepositoryImpl) DeactivateAllByCode(ctx context.Context, codeID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}
	err = db.Model(&models.ContentVersion{}).
		Where("code_id = ? AND is_active = ?", codeID, true).
		Updates(map[string]any{"is_active": false, "updated_at": utils.UTCNow()}).Error
	return err
}

func (r *ContentVersionRepositoryImpl) SetActive(ctx context.Context, versionID uint, active bool) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}
	err = db.Model(&models.ContentVersion{}).
		Where("id = ?", versionID).
		Updates(map[string]any{"is_active": active, "updated_at": utils.UTCNow()}).Error
	return err
}

func (r *ContentVersionRepositoryImpl) ListByCode(ctx context.Context, codeID uint) ([]*models.ContentVersion, error) {
	return r.ByFilter(ctx, models.ContentVersionFilter{CodeID: &codeID}, "created_at DESC, id DESC", 0, 0)
}

func (r *ContentVersionRepositoryImpl) applyFilter(db *gorm.DB, f models.ContentVersionFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CodeID != nil {
		db = db.Where("code_id = ?", *f.CodeID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ContentVersionRepositoryImpl) ByFilter(ctx context.Context, filter models.ContentVersionFilter, orderBy string, limit, offset int) ([]*models.ContentVersion, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContentVersion{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ContentVersion
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContentVersionRepositoryImpl) Count(ctx context.Context, filter models.ContentVersionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContentVersion{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContentVersionRepositoryImpl) Exists(ctx context.Context, filter models.ContentVersionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
