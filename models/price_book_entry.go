package models

import "time"

// Price book scope types, from least to most specific in the override
// order: MASTER is mandatory per product, ZONE and SEGMENT are
// optional overrides keyed by ScopeKey.
const (
	PriceScopeMaster  = "MASTER"
	PriceScopeZone    = "ZONE"
	PriceScopeSegment = "SEGMENT"
)

// PriceBookEntry is one layer of the price book for a product. At most
// one MASTER entry exists per product and currency; ZONE and SEGMENT
// entries override it when their ScopeKey matches the resolved zone
// chain or customer segment.
// Table: price_book_entries
type PriceBookEntry struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProductID uint     `gorm:"not null;index:idx_price_book_product_id" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`

	ScopeType string `gorm:"type:price_scope_enum;not null;index:idx_price_book_scope" json:"scope_type"`
	// ScopeKey is the zone id for ZONE entries and the segment id for
	// SEGMENT entries; nil for MASTER.
	ScopeKey *uint `gorm:"index:idx_price_book_scope_key" json:"scope_key,omitempty"`

	UnitPrice      float64  `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	CompareAtPrice *float64 `gorm:"type:numeric(12,2)" json:"compare_at_price,omitempty"`
	Currency       string   `gorm:"size:3;not null;default:'INR'" json:"currency"`
	IsActive       *bool    `gorm:"default:true;index:idx_price_book_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_price_book_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (PriceBookEntry) TableName() string {
	return "price_book_entries"
}

// PriceBookEntryFilter represents filter criteria for price book queries
type PriceBookEntryFilter struct {
	ID        *uint
	ProductID *uint
	ScopeType *string
	ScopeKey  *uint
	Currency  *string
	IsActive  *bool
}

func (e *PriceBookEntry) IsMaster() bool {
	return e.ScopeType == PriceScopeMaster
}
