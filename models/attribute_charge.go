package models

import "time"

// Attribute charge modes. FLAT adds Amount once per quote; PER_UNIT
// multiplies Amount by quantity and design count.
const (
	ChargeModeFlat    = "FLAT"
	ChargeModePerUnit = "PER_UNIT"
)

// AttributeCharge is a surcharge for a selected dynamic product
// attribute (paper weight, lamination, ...). The quote engine, not the
// client, is the source of truth for these amounts.
// Table: attribute_charges
type AttributeCharge struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProductID uint     `gorm:"not null;index:idx_attribute_charges_product_id" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`

	AttributeType  string  `gorm:"size:100;not null;index:idx_attribute_charges_type" json:"attribute_type"`
	AttributeValue string  `gorm:"size:255;not null" json:"attribute_value"`
	Amount         float64 `gorm:"type:numeric(12,2);not null" json:"amount"`
	Mode           string  `gorm:"type:charge_mode_enum;not null;default:'FLAT'" json:"mode"`

	IsActive  *bool     `gorm:"default:true;index:idx_attribute_charges_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (AttributeCharge) TableName() string {
	return "attribute_charges"
}

// AttributeChargeFilter represents filter criteria for charge queries
type AttributeChargeFilter struct {
	ID             *uint
	ProductID      *uint
	AttributeType  *string
	AttributeValue *string
	IsActive       *bool
}

// AttributeSelection is a client-chosen attribute on a quote request.
type AttributeSelection struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
