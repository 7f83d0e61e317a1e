package models

import "time"

// AvailabilityRule blocks a product for a zone (and every pincode
// under it). A matching rule short-circuits quoting before any price
// resolution happens.
// Table: availability_rules
type AvailabilityRule struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProductID uint     `gorm:"not null;index:idx_availability_rules_product_id" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	ZoneID    uint     `gorm:"not null;index:idx_availability_rules_zone_id" json:"zone_id"`
	Zone      *GeoZone `gorm:"foreignKey:ZoneID;references:ID" json:"zone,omitempty"`

	Reason   *string `gorm:"type:text" json:"reason,omitempty"`
	IsActive *bool   `gorm:"default:true;index:idx_availability_rules_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (AvailabilityRule) TableName() string {
	return "availability_rules"
}

// AvailabilityRuleFilter represents filter criteria for rule queries
type AvailabilityRuleFilter struct {
	ID        *uint
	ProductID *uint
	ZoneID    *uint
	IsActive  *bool
}
