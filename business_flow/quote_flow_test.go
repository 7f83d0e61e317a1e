package businessflow

import (
	"context"
	"testing"

	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/app/services"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteFixture struct {
	products     *fakeProductRepo
	zones        *fakeZoneRepo
	segments     *fakeSegmentRepo
	customers    *fakeCustomerRepo
	priceBook    *fakePriceBookRepo
	modifiers    *fakeModifierRepo
	charges      *fakeChargeRepo
	availability *fakeAvailabilityRepo
	audit        *fakeAuditRepo
	cache        *memoryLocationCache
	geoLookup    *services.MockGeoLookupService
}

// newQuoteFixture seeds a card product priced 100 at master, 90 in
// Mumbai, 80 for the WHOLESALE segment, reachable via pincode 400001.
func newQuoteFixture() *quoteFixture {
	chain := testChain()

	f := &quoteFixture{
		products: &fakeProductRepo{
			bySlug: map[string]*models.Product{
				"business-cards": {ID: 1, Slug: "business-cards", Name: "Business Cards", GSTPercentage: 18, Currency: utils.INRCurrency, IsActive: utils.ToPtr(true)},
			},
			byID: map[uint]*models.Product{},
		},
		zones: &fakeZoneRepo{
			byPincode: map[string]*models.GeoZone{"400001": &chain[0]},
			chains:    map[uint]models.ZoneChain{4: chain},
		},
		segments: &fakeSegmentRepo{
			byCode: map[string]*models.CustomerSegment{
				"WHOLESALE": {ID: 2, Code: "WHOLESALE", Name: "Wholesale", IsActive: utils.ToPtr(true)},
			},
			byID:       map[uint]*models.CustomerSegment{},
			defaultSeg: &models.CustomerSegment{ID: 1, Code: "RETAIL", Name: "Retail", IsDefault: utils.ToPtr(true), IsActive: utils.ToPtr(true)},
		},
		customers: &fakeCustomerRepo{byID: map[uint]*models.Customer{}},
		priceBook: &fakePriceBookRepo{
			master: &models.PriceBookEntry{ID: 1, ProductID: 1, ScopeType: models.PriceScopeMaster, UnitPrice: 100, Currency: utils.INRCurrency},
			zoneOverrides: map[uint]*models.PriceBookEntry{
				3: {ID: 2, ProductID: 1, ScopeType: models.PriceScopeZone, UnitPrice: 90, Currency: utils.INRCurrency},
			},
			segmentOverride: map[uint]*models.PriceBookEntry{
				2: {ID: 3, ProductID: 1, ScopeType: models.PriceScopeSegment, UnitPrice: 80, Currency: utils.INRCurrency},
			},
		},
		modifiers:    &fakeModifierRepo{},
		charges:      &fakeChargeRepo{},
		availability: &fakeAvailabilityRepo{},
		audit:        &fakeAuditRepo{},
		cache:        newMemoryLocationCache(),
		geoLookup:    services.NewMockGeoLookupService(),
	}
	return f
}

func (f *quoteFixture) flow() QuoteFlow {
	locationFlow := NewLocationFlow(f.cache, f.geoLookup, f.zones, f.audit, utils.LocationCacheTTL, utils.GPSTimeout, utils.GeoLookupTimeout)
	return NewQuoteFlow(f.products, f.zones, f.segments, f.customers, f.priceBook, f.modifiers, f.charges, f.availability, f.audit, locationFlow)
}

func guestIdentity() QuoteIdentity {
	return QuoteIdentity{IsGuest: true}
}

func TestGetQuoteGuestDefaultSegment(t *testing.T) {
	f := newQuoteFixture()

	resp, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  5,
		Pincode:   "400001",
	}, guestIdentity(), "sess-1", nil)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Meta.IsGuest)
	assert.Equal(t, "RETAIL", resp.Meta.UserSegment)
	assert.Equal(t, "Mumbai 400001", resp.Meta.GeoZone)
	assert.Equal(t, []string{"Mumbai 400001", "Mumbai", "Maharashtra", "India"}, resp.Meta.GeoZoneHierarchy)

	// No RETAIL segment override exists, so the Mumbai zone price wins.
	require.NotNil(t, resp.Pricing)
	assert.Equal(t, 90.0, resp.Pricing.UnitPrice)
	assert.Equal(t, 450.00, resp.Pricing.Subtotal)
	assert.Equal(t, 81.00, resp.Pricing.GSTAmount)
	assert.Equal(t, 531.00, resp.Pricing.TotalPayable)
}

func TestGetQuoteSegmentOverrideWins(t *testing.T) {
	f := newQuoteFixture()

	resp, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  5,
		Pincode:   "400001",
	}, QuoteIdentity{SegmentCode: "WHOLESALE"}, "sess-1", nil)
	require.NoError(t, err)
	require.True(t, resp.Success)

	// master 100 -> zone 90 -> segment 80; 5 units at 18% GST.
	assert.Equal(t, 80.0, resp.Pricing.UnitPrice)
	assert.Equal(t, 400.00, resp.Pricing.Subtotal)
	assert.Equal(t, 72.00, resp.Pricing.GSTAmount)
	assert.Equal(t, 472.00, resp.Pricing.TotalPayable)
	require.Len(t, resp.Pricing.OverrideSteps, 3)
	assert.Equal(t, "WHOLESALE", resp.Meta.UserSegment)
}

func TestGetQuoteAvailabilityBlock(t *testing.T) {
	f := newQuoteFixture()
	f.availability.rule = &models.AvailabilityRule{
		ID:        1,
		ProductID: 1,
		ZoneID:    2, // Maharashtra
		Zone:      &models.GeoZone{ID: 2, Name: "Maharashtra", Level: models.ZoneLevelState},
		IsActive:  utils.ToPtr(true),
	}

	resp, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  5,
		Pincode:   "400001",
	}, guestIdentity(), "sess-1", nil)
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.IsAvailable)
	assert.False(t, *resp.IsAvailable)
	assert.Equal(t, "PRODUCT_NOT_AVAILABLE", resp.ErrorCode)
	assert.Contains(t, resp.DisplayMessage, "Maharashtra")
	assert.Nil(t, resp.Pricing)

	require.Len(t, f.audit.saved, 1)
	assert.Equal(t, models.AuditActionQuoteBlocked, f.audit.saved[0].Action)
}

func TestGetQuoteNoMasterPrice(t *testing.T) {
	f := newQuoteFixture()
	f.priceBook.master = nil

	_, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  5,
		Pincode:   "400001",
	}, guestIdentity(), "sess-1", nil)
	require.Error(t, err)
	assert.True(t, IsNoMasterPrice(err))
}

func TestGetQuoteValidation(t *testing.T) {
	f := newQuoteFixture()

	_, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  0,
		Pincode:   "400001",
	}, guestIdentity(), "sess-1", nil)
	assert.True(t, IsQuantityInvalid(err))

	_, err = f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "no-such-product",
		Quantity:  1,
	}, guestIdentity(), "sess-1", nil)
	assert.True(t, IsProductNotFound(err))
}

func TestGetQuoteUnmappedPincodeDegrades(t *testing.T) {
	f := newQuoteFixture()

	resp, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  2,
		Pincode:   "999999",
	}, guestIdentity(), "sess-1", nil)
	require.NoError(t, err)
	require.True(t, resp.Success)

	// Unknown geography prices without zone overrides.
	assert.Equal(t, 100.0, resp.Pricing.UnitPrice)
	assert.Empty(t, resp.Meta.GeoZone)
	assert.Equal(t, "999999", resp.Meta.Pincode)
}

func TestGetQuoteIPFallback(t *testing.T) {
	f := newQuoteFixture()
	f.geoLookup.IPResults["203.0.113.10"] = &services.GeoLookupResult{
		Pincode: "400001", City: "Mumbai", State: "Maharashtra", Country: "India",
	}

	resp, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  5,
	}, guestIdentity(), "sess-1", &ClientMetadata{IPAddress: "203.0.113.10"})
	require.NoError(t, err)
	require.True(t, resp.Success)

	assert.Equal(t, models.LocationSourceIP, resp.Meta.DetectedBy)
	assert.Equal(t, "400001", resp.Meta.Pincode)
	assert.Equal(t, 90.0, resp.Pricing.UnitPrice)
}

func TestGetQuoteCustomerSegmentFromProfile(t *testing.T) {
	f := newQuoteFixture()
	segID := uint(2)
	f.segments.byID[2] = f.segments.byCode["WHOLESALE"]
	f.customers.byID[7] = &models.Customer{ID: 7, SegmentID: &segID, IsActive: utils.ToPtr(true)}
	custID := uint(7)

	resp, err := f.flow().GetQuote(context.Background(), &dto.QuoteRequest{
		ProductID: "business-cards",
		Quantity:  1,
		Pincode:   "400001",
	}, QuoteIdentity{CustomerID: &custID}, "sess-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "WHOLESALE", resp.Meta.UserSegment)
	assert.Equal(t, 80.0, resp.Pricing.UnitPrice)
}
