package dto

// Admin DTOs keep the snake_case keys of the internal API surface.

// UpsertPriceEntryRequest creates or replaces one price book layer for
// a product. scope_key is required for ZONE and SEGMENT scopes.
type UpsertPriceEntryRequest struct {
	ProductID      uint     `json:"product_id" validate:"required"`
	ScopeType      string   `json:"scope_type" validate:"required,oneof=MASTER ZONE SEGMENT"`
	ScopeKey       *uint    `json:"scope_key" validate:"omitempty"`
	UnitPrice      float64  `json:"unit_price" validate:"required,gt=0"`
	CompareAtPrice *float64 `json:"compare_at_price" validate:"omitempty,gt=0"`
	Currency       string   `json:"currency" validate:"omitempty,len=3"`
}

// CreateModifierRequest defines a new price modifier
type CreateModifierRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	ProductID   *uint   `json:"product_id" validate:"omitempty"`
	Kind        string  `json:"kind" validate:"required,oneof=PERCENT_INC PERCENT_DEC FLAT_INC FLAT_DEC"`
	Value       float64 `json:"value" validate:"required,gt=0"`
	Priority    int     `json:"priority" validate:"omitempty"`
	ActiveFrom  *string `json:"active_from" validate:"omitempty"`
	ActiveUntil *string `json:"active_until" validate:"omitempty"`
	ZoneID      *uint   `json:"zone_id" validate:"omitempty"`
}

// SetModifierActiveRequest toggles a modifier
type SetModifierActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// CreateSegmentRequest defines a new customer segment
type CreateSegmentRequest struct {
	Code        string  `json:"code" validate:"required,max=50"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty"`
	PricingTier int     `json:"pricing_tier" validate:"omitempty"`
	IsDefault   bool    `json:"is_default"`
}

// CreateZoneRequest defines a new geographic zone
type CreateZoneRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Level    string  `json:"level" validate:"required,oneof=PINCODE CITY STATE COUNTRY"`
	Code     *string `json:"code" validate:"omitempty,max=20"`
	ParentID *uint   `json:"parent_id" validate:"omitempty"`
}

// UpsertAvailabilityRuleRequest blocks or unblocks a product in a zone
type UpsertAvailabilityRuleRequest struct {
	ProductID uint    `json:"product_id" validate:"required"`
	ZoneID    uint    `json:"zone_id" validate:"required"`
	Reason    *string `json:"reason" validate:"omitempty"`
	IsActive  bool    `json:"is_active"`
}
