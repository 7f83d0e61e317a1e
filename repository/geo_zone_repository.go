package repository

import (
	"context"
	"errors"

	"github.com/printsetu/printsetu/models"
	"gorm.io/gorm"
)

// GeoZoneRepositoryImpl implements GeoZoneRepository
type GeoZoneRepositoryImpl struct {
	*BaseRepository[models.GeoZone, models.GeoZoneFilter]
}

// NewGeoZoneRepository creates a new repository for geographic zones
func NewGeoZoneRepository(db *gorm.DB) GeoZoneRepository {
	return &GeoZoneRepositoryImpl{
		BaseRepository: NewBaseRepository[models.GeoZone, models.GeoZoneFilter](db),
	}
}

// ByPincode returns the active pincode-level zone matching the code, or nil when unmapped.
func (r *GeoZoneRepositoryImpl) ByPincode(ctx context.Context, pincode string) (*models.GeoZone, error) {
	db := r.getDB(ctx)

	var zone models.GeoZone
	err := db.Where("level = ? AND code = ? AND is_active = ?", models.ZoneLevelPincode, pincode, true).
		Order("created_at DESC").
		First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &zone, nil
}

// AncestorChain returns the zone and its ancestors ordered specific→general.
// The tree is shallow (pincode→city→state→country) so one recursive query
// resolves the whole chain.
func (r *GeoZoneRepositoryImpl) AncestorChain(ctx context.Context, zoneID uint) (models.ZoneChain, error) {
	db := r.getDB(ctx)

	var rows []models.GeoZone
	err := db.Raw(`
		WITH RECURSIVE chain AS (
			SELECT id, name, level, code, parent_id, is_active, created_at, updated_at, 0 AS depth
			FROM geo_zones
			WHERE id = ? AND is_active = TRUE
			UNION ALL
			SELECT z.id, z.name, z.level, z.code, z.parent_id, z.is_active, z.created_at, z.updated_at, chain.depth + 1
			FROM geo_zones z
			JOIN chain ON z.id = chain.parent_id
			WHERE z.is_active = TRUE
		)
		SELECT id, name, level, code, parent_id, is_active, created_at, updated_at
		FROM chain
		ORDER BY depth ASC
	`, zoneID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return models.ZoneChain(rows), nil
}

// applyFilter applies filter conditions to the GORM query
func (r *GeoZoneRepositoryImpl) applyFilter(db *gorm.DB, filter models.GeoZoneFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	if filter.Level != nil {
		db = db.Where("level = ?", *filter.Level)
	}
	if filter.Code != nil {
		db = db.Where("code = ?", *filter.Code)
	}
	if filter.ParentID != nil {
		db = db.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves zones based on filter criteria.
func (r *GeoZoneRepositoryImpl) ByFilter(ctx context.Context, filter models.GeoZoneFilter, orderBy string, limit, offset int) ([]*models.GeoZone, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.GeoZone{}), filter)

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

	var rows []*models.GeoZone
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of zones matching the filter.
func (r *GeoZoneRepositoryImpl) Count(ctx context.Context, filter models.GeoZoneFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.GeoZone{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any zone matching the filter exists.
func (r *GeoZoneRepositoryImpl) Exists(ctx context.Context, filter models.GeoZoneFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
