package repository

import (
	"context"
	"errors"

	"github.com/printsetu/printsetu/models"
	"gorm.io/gorm"
)

// AvailabilityRuleRepositoryImpl implements AvailabilityRuleRepository
type AvailabilityRuleRepositoryImpl struct {
	*BaseRepository[models.AvailabilityRule, models.AvailabilityRuleFilter]
}

// NewAvailabilityRuleRepository creates a new repository for availability rules
func NewAvailabilityRuleRepository(db *gorm.DB) AvailabilityRuleRepository {
	return &AvailabilityRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AvailabilityRule, models.AvailabilityRuleFilter](db),
	}
}

// BlockingRule returns the most specific active rule blocking the product
// in any zone of the chain, or nil when the product is available. zoneIDs
// must be ordered specific→general; the first matching zone wins.
func (r *AvailabilityRuleRepositoryImpl) BlockingRule(ctx context.Context, productID uint, zoneIDs []uint) (*models.AvailabilityRule, error) {
	if len(zoneIDs) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var rules []*models.AvailabilityRule
	err := db.Preload("Zone").
		Where("product_id = ? AND zone_id IN ? AND is_active = ?", productID, zoneIDs, true).
		Find(&rules).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	byZone := make(map[uint]*models.AvailabilityRule, len(rules))
	for _, rule := range rules {
		if _, ok := byZone[rule.ZoneID]; !ok {
			byZone[rule.ZoneID] = rule
		}
	}
	for _, zoneID := range zoneIDs {
		if rule, ok := byZone[zoneID]; ok {
			return rule, nil
		}
	}

	return nil, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *AvailabilityRuleRepositoryImpl) applyFilter(db *gorm.DB, filter models.AvailabilityRuleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ZoneID != nil {
		db = db.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves availability rules based on filter criteria.
func (r *AvailabilityRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.AvailabilityRuleFilter, orderBy string, limit, offset int) ([]*models.AvailabilityRule, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AvailabilityRule{}), filter)

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

	var rows []*models.AvailabilityRule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of availability rules matching the filter.
func (r *AvailabilityRuleRepositoryImpl) Count(ctx context.Context, filter models.AvailabilityRuleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AvailabilityRule{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any availability rule matching the filter exists.
func (r *AvailabilityRuleRepositoryImpl) Exists(ctx context.Context, filter models.AvailabilityRuleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
