package repository

import (
	"context"

	"github.com/printsetu/printsetu/models"
	"gorm.io/gorm"
)

// AttributeChargeRepositoryImpl implements AttributeChargeRepository
type AttributeChargeRepositoryImpl struct {
	*BaseRepository[models.AttributeCharge, models.AttributeChargeFilter]
}

// NewAttributeChargeRepository creates a new repository for attribute surcharges
func NewAttributeChargeRepository(db *gorm.DB) AttributeChargeRepository {
	return &AttributeChargeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AttributeCharge, models.AttributeChargeFilter](db),
	}
}

// ForSelections returns active charges matching the selected type/value
// pairs for the product. Unknown selections simply match nothing.
func (r *AttributeChargeRepositoryImpl) ForSelections(ctx context.Context, productID uint, selections []models.AttributeSelection) ([]*models.AttributeCharge, error) {
	if len(selections) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	pairs := make([][]any, 0, len(selections))
	for _, sel := range selections {
		pairs = append(pairs, []any{sel.Type, sel.Value})
	}

	var rows []*models.AttributeCharge
	err := db.Where("product_id = ? AND is_active = ?", productID, true).
		Where("(attribute_type, attribute_value) IN ?", pairs).
		Order("attribute_type ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *AttributeChargeRepositoryImpl) applyFilter(db *gorm.DB, filter models.AttributeChargeFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.AttributeType != nil {
		db = db.Where("attribute_type = ?", *filter.AttributeType)
	}
	if filter.AttributeValue != nil {
		db = db.Where("attribute_value = ?", *filter.AttributeValue)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves attribute charges based on filter criteria.
func (r *AttributeChargeRepositoryImpl) ByFilter(ctx context.Context, filter models.AttributeChargeFilter, orderBy string, limit, offset int) ([]*models.AttributeCharge, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AttributeCharge{}), filter)

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

	var rows []*models.AttributeCharge
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of attribute charges matching the filter.
func (r *AttributeChargeRepositoryImpl) Count(ctx context.Context, filter models.AttributeChargeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AttributeCharge{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any attribute charge matching the filter exists.
func (r *AttributeChargeRepositoryImpl) Exists(ctx context.Context, filter models.AttributeChargeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
