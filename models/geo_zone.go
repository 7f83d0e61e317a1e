package models

import "time"

// Zone levels, most specific first.
const (
	ZoneLevelPincode = "PINCODE"
	ZoneLevelCity    = "CITY"
	ZoneLevelState   = "STATE"
	ZoneLevelCountry = "COUNTRY"
)

// GeoZone is one node of the geographic zone tree used to key price
// overrides and availability rules. A pincode maps to exactly one leaf
// zone; ParentID links each zone to the next less specific level.
// Table: geo_zones
type GeoZone struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Name     string   `gorm:"size:255;not null" json:"name"`
	Level    string   `gorm:"type:zone_level_enum;not null;index:idx_geo_zones_level" json:"level"`
	Code     *string  `gorm:"size:20;index:idx_geo_zones_code" json:"code,omitempty"`
	ParentID *uint    `gorm:"index:idx_geo_zones_parent_id" json:"parent_id,omitempty"`
	Parent   *GeoZone `gorm:"foreignKey:ParentID;references:ID" json:"parent,omitempty"`

	IsActive  *bool     `gorm:"default:true;index:idx_geo_zones_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (GeoZone) TableName() string {
	return "geo_zones"
}

// GeoZoneFilter represents filter criteria for zone queries
type GeoZoneFilter struct {
	ID       *uint
	Name     *string
	Level    *string
	Code     *string
	ParentID *uint
	IsActive *bool
}

func (z *GeoZone) IsLeaf() bool {
	return z.Level == ZoneLevelPincode
}

// ZoneChain is a resolved zone plus its ancestors, ordered from most
// specific (leaf) to least specific (country).
type ZoneChain []GeoZone

func (c ZoneChain) Leaf() *GeoZone {
	if len(c) == 0 {
		return nil
	}
	return &c[0]
}

func (c ZoneChain) IDs() []uint {
	ids := make([]uint, 0, len(c))
	for _, z := range c {
		ids = append(ids, z.ID)
	}
	return ids
}

func (c ZoneChain) Contains(zoneID uint) bool {
	for _, z := range c {
		if z.ID == zoneID {
			return true
		}
	}
	return false
}

// Names returns the chain names specific→general, for display.
func (c ZoneChain) Names() []string {
	names := make([]string, 0, len(c))
	for _, z := range c {
		names = append(names, z.Name)
	}
	return names
}
