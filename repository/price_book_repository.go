package repository

import (
	"context"
	"errors"

	"github.com/printsetu/printsetu/models"
	"gorm.io/gorm"
)

// PriceBookRepositoryImpl implements PriceBookRepository
type PriceBookRepositoryImpl struct {
	*BaseRepository[models.PriceBookEntry, models.PriceBookEntryFilter]
}

// NewPriceBookRepository creates a new repository for price book entries
func NewPriceBookRepository(db *gorm.DB) PriceBookRepository {
	return &PriceBookRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceBookEntry, models.PriceBookEntryFilter](db),
	}
}

// MasterByProduct returns the latest active MASTER entry for the product
// and currency, or nil when pricing is not configured.
func (r *PriceBookRepositoryImpl) MasterByProduct(ctx context.Context, productID uint, currency string) (*models.PriceBookEntry, error) {
	db := r.getDB(ctx)

	var entry models.PriceBookEntry
	err := db.Where("product_id = ? AND scope_type = ? AND currency = ? AND is_active = ?",
		productID, models.PriceScopeMaster, currency, true).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}

// ZoneOverrides returns at most one active ZONE entry per zone id for the
// product, latest wins per zone. The caller walks its zone chain in
// specificity order against the returned map.
func (r *PriceBookRepositoryImpl) ZoneOverrides(ctx context.Context, productID uint, zoneIDs []uint) (map[uint]*models.PriceBookEntry, error) {
	out := make(map[uint]*models.PriceBookEntry)
	if len(zoneIDs) == 0 {
		return out, nil
	}

	db := r.getDB(ctx)

	var rows []*models.PriceBookEntry
	err := db.Raw(`
		SELECT DISTINCT ON (scope_key) id, product_id, scope_type, scope_key, unit_price, compare_at_price, currency, is_active, created_at, updated_at
		FROM price_book_entries
		WHERE product_id = ? AND scope_type = ? AND scope_key IN ? AND is_active = TRUE
		ORDER BY scope_key, created_at DESC
	`, productID, models.PriceScopeZone, zoneIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.ScopeKey != nil {
			out[*row.ScopeKey] = row
		}
	}

	return out, nil
}

// SegmentOverride returns the latest active SEGMENT entry for the product
// and segment, or nil.
func (r *PriceBookRepositoryImpl) SegmentOverride(ctx context.Context, productID, segmentID uint) (*models.PriceBookEntry, error) {
	db := r.getDB(ctx)

	var entry models.PriceBookEntry
	err := db.Where("product_id = ? AND scope_type = ? AND scope_key = ? AND is_active = ?",
		productID, models.PriceScopeSegment, segmentID, true).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}

// DeactivateScope retires previous active entries for the same product/scope.
func (r *PriceBookRepositoryImpl) DeactivateScope(ctx context.Context, productID uint, scopeType string, scopeKey *uint) error {
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

	query := db.Model(&models.PriceBookEntry{}).
		Where("product_id = ? AND scope_type = ? AND is_active = ?", productID, scopeType, true)
	if scopeKey != nil {
		query = query.Where("scope_key = ?", *scopeKey)
	} else {
		query = query.Where("scope_key IS NULL")
	}

	err = query.Update("is_active", false).Error
	return err
}

// applyFilter applies filter conditions to the GORM query
func (r *PriceBookRepositoryImpl) applyFilter(db *gorm.DB, filter models.PriceBookEntryFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ScopeType != nil {
		db = db.Where("scope_type = ?", *filter.ScopeType)
	}
	if filter.ScopeKey != nil {
		db = db.Where("scope_key = ?", *filter.ScopeKey)
	}
	if filter.Currency != nil {
		db = db.Where("currency = ?", *filter.Currency)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves price book entries based on filter criteria.
func (r *PriceBookRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceBookEntryFilter, orderBy string, limit, offset int) ([]*models.PriceBookEntry, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceBookEntry{}), filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.PriceBookEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of price book entries matching the filter.
func (r *PriceBookRepositoryImpl) Count(ctx context.Context, filter models.PriceBookEntryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceBookEntry{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any price book entry matching the filter exists.
func (r *PriceBookRepositoryImpl) Exists(ctx context.Context, filter models.PriceBookEntryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
