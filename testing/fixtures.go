// Package testing provides test utilities and database setup for testing the pricing service
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// ZoneTree holds one full branch of the zone hierarchy for tests.
type ZoneTree struct {
	Country *models.GeoZone
	State   *models.GeoZone
	City    *models.GeoZone
	Pincode *models.GeoZone
}

// CreateZoneTree creates a COUNTRY>STATE>CITY>PINCODE branch. The
// pincode code is random so repeated calls do not collide.
func (tf *TestFixtures) CreateZoneTree(state, city string) (*ZoneTree, error) {
	country := &models.GeoZone{Name: "India", Level: models.ZoneLevelCountry, IsActive: utils.ToPtr(true)}
	if err := tf.DB.DB.Create(country).Error; err != nil {
		return nil, fmt.Errorf("failed to create country zone: %w", err)
	}

	stateZone := &models.GeoZone{Name: state, Level: models.ZoneLevelState, ParentID: &country.ID, IsActive: utils.ToPtr(true)}
	if err := tf.DB.DB.Create(stateZone).Error; err != nil {
		return nil, fmt.Errorf("failed to create state zone: %w", err)
	}

	cityZone := &models.GeoZone{Name: city, Level: models.ZoneLevelCity, ParentID: &stateZone.ID, IsActive: utils.ToPtr(true)}
	if err := tf.DB.DB.Create(cityZone).Error; err != nil {
		return nil, fmt.Errorf("failed to create city zone: %w", err)
	}

	code := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	pincode := &models.GeoZone{
		Name:     fmt.Sprintf("%s %s", city, code),
		Level:    models.ZoneLevelPincode,
		Code:     &code,
		ParentID: &cityZone.ID,
		IsActive: utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(pincode).Error; err != nil {
		return nil, fmt.Errorf("failed to create pincode zone: %w", err)
	}

	return &ZoneTree{Country: country, State: stateZone, City: cityZone, Pincode: pincode}, nil
}

// CreateTestSegment creates a segment; pass isDefault true for the guest fallback segment.
func (tf *TestFixtures) CreateTestSegment(code, name string, tier int, isDefault bool) (*models.CustomerSegment, error) {
	segment := &models.CustomerSegment{
		Code:        code,
		Name:        name,
		PricingTier: tier,
		IsDefault:   utils.ToPtr(isDefault),
		IsActive:    utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(segment).Error; err != nil {
		return nil, fmt.Errorf("failed to create segment %s: %w", code, err)
	}
	return segment, nil
}

// CreateTestCustomer creates an active customer, optionally assigned to a segment.
func (tf *TestFixtures) CreateTestCustomer(segmentID *uint) (*models.Customer, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)
	customer := &models.Customer{
		UUID:         uuid.New(),
		FirstName:    "Asha",
		LastName:     "Mehta",
		Email:        fmt.Sprintf("asha.mehta.%s@example.com", randomDigits),
		PasswordHash: string(hashedPassword),
		SegmentID:    segmentID,
		IsActive:     utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

// CreateTestProduct creates an active catalog product.
func (tf *TestFixtures) CreateTestProduct(slug string, gstPct float64) (*models.Product, error) {
	product := &models.Product{
		Slug:          slug,
		Name:          slug,
		GSTPercentage: gstPct,
		Currency:      utils.INRCurrency,
		IsActive:      utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product %s: %w", slug, err)
	}
	return product, nil
}

// CreatePriceEntry creates one price book layer for a product.
// scopeKey is nil for MASTER entries.
func (tf *TestFixtures) CreatePriceEntry(productID uint, scopeType string, scopeKey *uint, unitPrice float64) (*models.PriceBookEntry, error) {
	entry := &models.PriceBookEntry{
		ProductID: productID,
		ScopeType: scopeType,
		ScopeKey:  scopeKey,
		UnitPrice: unitPrice,
		Currency:  utils.INRCurrency,
		IsActive:  utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s price entry: %w", scopeType, err)
	}
	return entry, nil
}

// CreateModifier creates an active price modifier with an open window.
func (tf *TestFixtures) CreateModifier(productID *uint, kind string, value float64, priority int) (*models.PriceModifier, error) {
	modifier := &models.PriceModifier{
		Name:      fmt.Sprintf("%s %v", kind, value),
		ProductID: productID,
		Kind:      kind,
		Value:     value,
		Priority:  priority,
		IsActive:  utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(modifier).Error; err != nil {
		return nil, fmt.Errorf("failed to create modifier: %w", err)
	}
	return modifier, nil
}

// CreateAttributeCharge creates an active surcharge for a product attribute.
func (tf *TestFixtures) CreateAttributeCharge(productID uint, attrType, attrValue string, amount float64, mode string) (*models.AttributeCharge, error) {
	charge := &models.AttributeCharge{
		ProductID:      productID,
		AttributeType:  attrType,
		AttributeValue: attrValue,
		Amount:         amount,
		Mode:           mode,
		IsActive:       utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(charge).Error; err != nil {
		return nil, fmt.Errorf("failed to create attribute charge: %w", err)
	}
	return charge, nil
}

// CreateAvailabilityRule blocks a product for a zone.
func (tf *TestFixtures) CreateAvailabilityRule(productID, zoneID uint, reason string) (*models.AvailabilityRule, error) {
	rule := &models.AvailabilityRule{
		ProductID: productID,
		ZoneID:    zoneID,
		Reason:    &reason,
		IsActive:  utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create availability rule: %w", err)
	}
	return rule, nil
}
