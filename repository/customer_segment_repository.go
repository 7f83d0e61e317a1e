package repository

import (
	"context"
	"errors"

	"github.com/printsetu/printsetu/models"
	"gorm.io/gorm"
)

// CustomerSegmentRepositoryImpl implements CustomerSegmentRepository
type CustomerSegmentRepositoryImpl struct {
	*BaseRepository[models.CustomerSegment, models.CustomerSegmentFilter]
}

// NewCustomerSegmentRepository creates a new repository for customer segments
func NewCustomerSegmentRepository(db *gorm.DB) CustomerSegmentRepository {
	return &CustomerSegmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CustomerSegment, models.CustomerSegmentFilter](db),
	}
}

// ByCode returns the segment with the given code, or nil.
func (r *CustomerSegmentRepositoryImpl) ByCode(ctx context.Context, code string) (*models.CustomerSegment, error) {
	db := r.getDB(ctx)

	var segment models.CustomerSegment
	err := db.Where("code = ?", code).First(&segment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &segment, nil
}

// DefaultSegment returns the single active default segment, or nil when none is configured.
func (r *CustomerSegmentRepositoryImpl) DefaultSegment(ctx context.Context) (*models.CustomerSegment, error) {
	db := r.getDB(ctx)

	var segment models.CustomerSegment
	err := db.Where("is_default = ? AND is_active = ?", true, true).
		Order("updated_at DESC").
		First(&segment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &segment, nil
}

// ClearDefault unsets the default flag on every segment except the given one.
func (r *CustomerSegmentRepositoryImpl) ClearDefault(ctx context.Context, exceptID uint) error {
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

	err = db.Model(&models.CustomerSegment{}).
		Where("id <> ? AND is_default = ?", exceptID, true).
		Update("is_default", false).Error
	return err
}

// applyFilter applies filter conditions to the GORM query
func (r *CustomerSegmentRepositoryImpl) applyFilter(db *gorm.DB, filter models.CustomerSegmentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		db = db.Where("code = ?", *filter.Code)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.IsDefault != nil {
		db = db.Where("is_default = ?", *filter.IsDefault)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves segments based on filter criteria.
func (r *CustomerSegmentRepositoryImpl) ByFilter(ctx context.Context, filter models.CustomerSegmentFilter, orderBy string, limit, offset int) ([]*models.CustomerSegment, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CustomerSegment{}), filter)

	if orderBy == "" {
		orderBy = "pricing_tier ASC, id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.CustomerSegment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of segments matching the filter.
func (r *CustomerSegmentRepositoryImpl) Count(ctx context.Context, filter models.CustomerSegmentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CustomerSegment{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any segment matching the filter exists.
func (r *CustomerSegmentRepositoryImpl) Exists(ctx context.Context, filter models.CustomerSegmentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
