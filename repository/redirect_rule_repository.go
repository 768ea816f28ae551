package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedirectRuleRepositoryImpl implements RedirectRuleRepository
type RedirectRuleRepositoryImpl struct {
	*BaseRepository[models.RedirectRule, models.RedirectRuleFilter]
}

func NewRedirectRuleRepository(db *gorm.DB) RedirectRuleRepository {
	return &RedirectRuleRepositoryImpl{BaseRepository: NewBaseRepository[models.RedirectRule, models.RedirectRuleFilter](db)}
}

func (r *RedirectRuleRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.RedirectRule, error) {
	db := r.getDB(ctx)
	var row models.RedirectRule
	if err := db.Where("uuid = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListEnabledByCode returns the enabled rules of a code in evaluation order:
// priority ascending, creation order breaking ties.
func (r *RedirectRuleRepositoryImpl) ListEnabledByCode(ctx context.Context, codeID uint) ([]*models.RedirectRule, error) {
	enabled := true
	return r.ByFilter(ctx,
		models.RedirectRuleFilter{CodeID: &codeID, IsEnabled: &enabled},
		"priority ASC, created_at ASC, id ASC", 0, 0)
}

func (r *RedirectRuleRepositoryImpl) applyFilter(db *gorm.DB, f models.RedirectRuleFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CodeID != nil {
		db = db.Where("code_id = ?", *f.CodeID)
	}
	if f.RuleType != nil {
		db = db.Where("rule_type = ?", *f.RuleType)
	}
	if f.IsEnabled != nil {
		db = db.Where("is_enabled = ?", *f.IsEnabled)
	}
	if f.Priority != nil {
		db = db.Where("priority = ?", *f.Priority)
	}
	return db
}

func (r *RedirectRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.RedirectRuleFilter, orderBy string, limit, offset int) ([]*models.RedirectRule, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.RedirectRule{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.RedirectRule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RedirectRuleRepositoryImpl) Count(ctx context.Context, filter models.RedirectRuleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.RedirectRule{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RedirectRuleRepositoryImpl) Exists(ctx context.Context, filter models.RedirectRuleFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
