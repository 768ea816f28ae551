package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentScheduleRepositoryImpl implements ContentScheduleRepository
type ContentScheduleRepositoryImpl struct {
	*BaseRepository[models.ContentSchedule, models.ContentScheduleFilter]
}

func NewContentScheduleRepository(db *gorm.DB) ContentScheduleRepository {
	return &ContentScheduleRepositoryImpl{BaseRepository: NewBaseRepository[models.ContentSchedule, models.ContentScheduleFilter](db)}
}

func (r *ContentScheduleRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.ContentSchedule, error) {
	db := r.getDB(ctx)
	var row models.ContentSchedule
	if err := db.Where("uuid = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListActiveByCode returns the enabled schedules of a code whose window could
// cover asOf, newest creation first. Recurrence and timezone checks happen in
// the flow layer via ContentSchedule.ActiveAt; the query only prunes rows that
// cannot match (not started yet, already ended, disabled).
func (r *ContentScheduleRepositoryImpl) ListActiveByCode(ctx context.Context, codeID uint, asOf time.Time) ([]*models.ContentSchedule, error) {
	db := r.getDB(ctx)
	var rows []*models.ContentSchedule
	err := db.Model(&models.ContentSchedule{}).
		Where("code_id = ? AND is_active = ?", codeID, true).
		Where("start_time <= ?", asOf).
		Where("end_time IS NULL OR end_time >= ?", asOf).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContentScheduleRepositoryImpl) applyFilter(db *gorm.DB, f models.ContentScheduleFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CodeID != nil {
		db = db.Where("code_id = ?", *f.CodeID)
	}
	if f.VersionID != nil {
		db = db.Where("version_id = ?", *f.VersionID)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.StartBefore != nil {
		db = db.Where("start_time <= ?", *f.StartBefore)
	}
	if f.StartAfter != nil {
		db = db.Where("start_time >= ?", *f.StartAfter)
	}
	return db
}

func (r *ContentScheduleRepositoryImpl) ByFilter(ctx context.Context, filter models.ContentScheduleFilter, orderBy string, limit, offset int) ([]*models.ContentSchedule, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContentSchedule{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ContentSchedule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContentScheduleRepositoryImpl) Count(ctx context.Context, filter models.ContentScheduleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ContentSchedule{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContentScheduleRepositoryImpl) Exists(ctx context.Context, filter models.ContentScheduleFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
