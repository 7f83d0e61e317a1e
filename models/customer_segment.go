package models

import "time"

// CustomerSegment classifies customers for pricing (retail, corporate,
// VIP, ...). Exactly one active segment is flagged default; guests and
// customers without an assignment fall back to it.
// Table: customer_segments
type CustomerSegment struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Code        string  `gorm:"size:50;not null;uniqueIndex:uk_customer_segments_code" json:"code"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	PricingTier int     `gorm:"not null;default:0" json:"pricing_tier"`
	IsDefault   *bool   `gorm:"default:false;index:idx_customer_segments_is_default" json:"is_default"`
	IsActive    *bool   `gorm:"default:true;index:idx_customer_segments_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CustomerSegment) TableName() string {
	return "customer_segments"
}

// CustomerSegmentFilter represents filter criteria for segment queries
type CustomerSegmentFilter struct {
	ID        *uint
	Code      *string
	Name      *string
	IsDefault *bool
	IsActive  *bool
}

func (s *CustomerSegment) Active() bool {
	return s.IsActive != nil && *s.IsActive
}

func (s *CustomerSegment) Default() bool {
	return s.IsDefault != nil && *s.IsDefault
}
