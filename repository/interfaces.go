// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/printsetu/printsetu/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// GeoZoneRepository defines operations for the geographic zone tree
type GeoZoneRepository interface {
	Repository[models.GeoZone, models.GeoZoneFilter]
	// ByPincode returns the active leaf zone whose code equals the
	// pincode, or nil when the pincode is unmapped.
	ByPincode(ctx context.Context, pincode string) (*models.GeoZone, error)
	// AncestorChain returns the zone and its ancestors ordered from
	// most specific to least specific.
	AncestorChain(ctx context.Context, zoneID uint) (models.ZoneChain, error)
}

// CustomerSegmentRepository defines operations for customer segments
type CustomerSegmentRepository interface {
	Repository[models.CustomerSegment, models.CustomerSegmentFilter]
	ByCode(ctx context.Context, code string) (*models.CustomerSegment, error)
	// DefaultSegment returns the single active default segment, or nil
	// when none is configured.
	DefaultSegment(ctx context.Context) (*models.CustomerSegment, error)
	// ClearDefault unsets the default flag on every segment except the
	// given one. Callers run it inside the same transaction that sets
	// the new default.
	ClearDefault(ctx context.Context, exceptID uint) error
}

// ProductRepository defines operations for catalog products
type ProductRepository interface {
	Repository[models.Product, models.ProductFilter]
	BySlug(ctx context.Context, slug string) (*models.Product, error)
}

// PriceBookRepository defines operations for layered price book entries
type PriceBookRepository interface {
	Repository[models.PriceBookEntry, models.PriceBookEntryFilter]
	// MasterByProduct returns the latest active MASTER entry for the
	// product and currency, or nil when pricing is not configured.
	MasterByProduct(ctx context.Context, productID uint, currency string) (*models.PriceBookEntry, error)
	// ZoneOverrides returns at most one active ZONE entry per zone id
	// (latest wins per zone), keyed by zone id.
	ZoneOverrides(ctx context.Context, productID uint, zoneIDs []uint) (map[uint]*models.PriceBookEntry, error)
	// SegmentOverride returns the latest active SEGMENT entry for the
	// product and segment, or nil.
	SegmentOverride(ctx context.Context, productID, segmentID uint) (*models.PriceBookEntry, error)
	// DeactivateScope retires previous active entries for the same
	// product/scope before an upsert writes a replacement.
	DeactivateScope(ctx context.Context, productID uint, scopeType string, scopeKey *uint) error
}

// PriceModifierRepository defines operations for price modifiers
type PriceModifierRepository interface {
	Repository[models.PriceModifier, models.PriceModifierFilter]
	// ListActiveForProduct returns active modifiers that target the
	// product or are global, ordered by priority then id.
	ListActiveForProduct(ctx context.Context, productID uint, now time.Time) ([]*models.PriceModifier, error)
	SetActive(ctx context.Context, modifierID uint, isActive bool) error
}

// AttributeChargeRepository defines operations for attribute surcharges
type AttributeChargeRepository interface {
	Repository[models.AttributeCharge, models.AttributeChargeFilter]
	// ForSelections returns the active charges matching the selected
	// attribute type/value pairs for the product.
	ForSelections(ctx context.Context, productID uint, selections []models.AttributeSelection) ([]*models.AttributeCharge, error)
}

// AvailabilityRuleRepository defines operations for region availability rules
type AvailabilityRuleRepository interface {
	Repository[models.AvailabilityRule, models.AvailabilityRuleFilter]
	// BlockingRule returns the most specific active rule blocking the
	// product in any zone of the chain, or nil when available.
	BlockingRule(ctx context.Context, productID uint, zoneIDs []uint) (*models.AvailabilityRule, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
