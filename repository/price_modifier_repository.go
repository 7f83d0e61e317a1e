package repository

import (
	"context"
	"time"

	"github.com/printsetu/printsetu/models"
	"gorm.io/gorm"
)

// PriceModifierRepositoryImpl implements PriceModifierRepository
type PriceModifierRepositoryImpl struct {
	*BaseRepository[models.PriceModifier, models.PriceModifierFilter]
}

// NewPriceModifierRepository creates a new repository for price modifiers
func NewPriceModifierRepository(db *gorm.DB) PriceModifierRepository {
	return &PriceModifierRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceModifier, models.PriceModifierFilter](db),
	}
}

// ListActiveForProduct returns active modifiers targeting the product or
// global ones, with the active window pre-filtered in SQL. Ordered by
// priority then id so application order is deterministic.
func (r *PriceModifierRepositoryImpl) ListActiveForProduct(ctx context.Context, productID uint, now time.Time) ([]*models.PriceModifier, error) {
	db := r.getDB(ctx)

	var rows []*models.PriceModifier
	err := db.Where("(product_id = ? OR product_id IS NULL) AND is_active = ?", productID, true).
		Where("(active_from IS NULL OR active_from <= ?)", now).
		Where("(active_until IS NULL OR active_until >= ?)", now).
		Order("priority ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// SetActive toggles a modifier without touching its definition.
func (r *PriceModifierRepositoryImpl) SetActive(ctx context.Context, modifierID uint, isActive bool) error {
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

	err = db.Model(&models.PriceModifier{}).
		Where("id = ?", modifierID).
		Update("is_active", isActive).Error
	return err
}

// applyFilter applies filter conditions to the GORM query
func (r *PriceModifierRepositoryImpl) applyFilter(db *gorm.DB, filter models.PriceModifierFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Kind != nil {
		db = db.Where("kind = ?", *filter.Kind)
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves modifiers based on filter criteria.
func (r *PriceModifierRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceModifierFilter, orderBy string, limit, offset int) ([]*models.PriceModifier, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceModifier{}), filter)

	if orderBy == "" {
		orderBy = "priority ASC, id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.PriceModifier
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of modifiers matching the filter.
func (r *PriceModifierRepositoryImpl) Count(ctx context.Context, filter models.PriceModifierFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceModifier{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any modifier matching the filter exists.
func (r *PriceModifierRepositoryImpl) Exists(ctx context.Context, filter models.PriceModifierFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
