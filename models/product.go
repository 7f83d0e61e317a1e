package models

import "time"

// Product is a priceable catalog item. Pricing lives in the price
// book, not here; the product only carries tax and currency defaults.
// Table: products
type Product struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Slug          string  `gorm:"size:255;not null;uniqueIndex:uk_products_slug" json:"slug"`
	Name          string  `gorm:"size:255;not null" json:"name"`
	Description   *string `gorm:"type:text" json:"description,omitempty"`
	GSTPercentage float64 `gorm:"type:numeric(5,2);not null;default:18" json:"gst_percentage"`
	Currency      string  `gorm:"size:3;not null;default:'INR'" json:"currency"`
	IsActive      *bool   `gorm:"default:true;index:idx_products_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductFilter represents filter criteria for product queries
type ProductFilter struct {
	ID       *uint
	Slug     *string
	Name     *string
	IsActive *bool
}
