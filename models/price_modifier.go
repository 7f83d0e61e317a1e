package models

import "time"

// Modifier kinds. PERCENT kinds multiply the running unit price by
// (1 ± value/100); FLAT kinds add or subtract value directly.
const (
	ModifierPercentInc = "PERCENT_INC"
	ModifierPercentDec = "PERCENT_DEC"
	ModifierFlatInc    = "FLAT_INC"
	ModifierFlatDec    = "FLAT_DEC"
)

// PriceModifier is an independently toggled price adjustment applied
// after the override waterfall, in ascending Priority order. A nil
// ProductID makes the modifier global. ActiveFrom/ActiveUntil bound
// the eligibility window; ZoneID restricts it to quotes whose resolved
// zone chain contains that zone.
// Table: price_modifiers
type PriceModifier struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"size:255;not null" json:"name"`
	ProductID *uint    `gorm:"index:idx_price_modifiers_product_id" json:"product_id,omitempty"`
	Product   *Product `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`

	Kind     string  `gorm:"type:modifier_kind_enum;not null" json:"kind"`
	Value    float64 `gorm:"type:numeric(12,2);not null" json:"value"`
	Priority int     `gorm:"not null;index:idx_price_modifiers_priority" json:"priority"`

	ActiveFrom  *time.Time `json:"active_from,omitempty"`
	ActiveUntil *time.Time `json:"active_until,omitempty"`
	ZoneID      *uint      `gorm:"index:idx_price_modifiers_zone_id" json:"zone_id,omitempty"`
	Zone        *GeoZone   `gorm:"foreignKey:ZoneID;references:ID" json:"zone,omitempty"`

	IsActive  *bool     `gorm:"default:true;index:idx_price_modifiers_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (PriceModifier) TableName() string {
	return "price_modifiers"
}

// PriceModifierFilter represents filter criteria for modifier queries
type PriceModifierFilter struct {
	ID        *uint
	ProductID *uint
	Kind      *string
	ZoneID    *uint
	IsActive  *bool
}

// WindowContains reports whether now falls inside the modifier's
// active window. A nil bound is open-ended.
func (m *PriceModifier) WindowContains(now time.Time) bool {
	if m.ActiveFrom != nil && now.Before(*m.ActiveFrom) {
		return false
	}
	if m.ActiveUntil != nil && now.After(*m.ActiveUntil) {
		return false
	}
	return true
}

// AppliesToZone reports whether the modifier's zone restriction, if
// any, is satisfied by the resolved chain.
func (m *PriceModifier) AppliesToZone(chain ZoneChain) bool {
	if m.ZoneID == nil {
		return true
	}
	return chain.Contains(*m.ZoneID)
}
