package businessflow

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type adminFixture struct {
	products  *fakeProductRepo
	zones     *fakeZoneRepo
	segments  *fakeSegmentRepo
	priceBook *fakePriceBookRepo
	modifiers *fakeModifierRepo
	rules     *fakeAvailabilityRepo
	audit     *fakeAuditRepo
}

func newAdminFixture() *adminFixture {
	return &adminFixture{
		products: &fakeProductRepo{
			byID:   map[uint]*models.Product{1: {ID: 1, Slug: "business-cards", Currency: utils.INRCurrency, IsActive: utils.ToPtr(true)}},
			bySlug: map[string]*models.Product{},
		},
		zones: &fakeZoneRepo{byPincode: map[string]*models.GeoZone{}},
		segments: &fakeSegmentRepo{
			byCode: map[string]*models.CustomerSegment{
				"RETAIL": {ID: 1, Code: "RETAIL", Name: "Retail", IsActive: utils.ToPtr(true)},
			},
			byID: map[uint]*models.CustomerSegment{},
		},
		priceBook: &fakePriceBookRepo{},
		modifiers: &fakeModifierRepo{},
		rules:     &fakeAvailabilityRepo{},
		audit:     &fakeAuditRepo{},
	}
}

func (f *adminFixture) flow() PricingAdminFlow {
	return NewPricingAdminFlow(nil, f.products, f.zones, f.segments, f.priceBook, f.modifiers, f.rules, f.audit)
}

func TestUpsertPriceEntryScopeValidation(t *testing.T) {
	f := newAdminFixture()
	key := uint(4)

	tests := []struct {
		name      string
		scopeType string
		scopeKey  *uint
	}{
		{"master with a scope key", models.PriceScopeMaster, &key},
		{"zone without a scope key", models.PriceScopeZone, nil},
		{"segment without a scope key", models.PriceScopeSegment, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.flow().UpsertPriceEntry(context.Background(), &dto.UpsertPriceEntryRequest{
				ProductID: 1,
				ScopeType: tt.scopeType,
				ScopeKey:  tt.scopeKey,
				UnitPrice: 100,
			}, nil)
			require.Error(t, err)
			assert.True(t, IsScopeKeyRequired(err))
		})
	}

	t.Run("unknown scope type", func(t *testing.T) {
		_, err := f.flow().UpsertPriceEntry(context.Background(), &dto.UpsertPriceEntryRequest{
			ProductID: 1,
			ScopeType: "GALAXY",
			UnitPrice: 100,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsScopeTypeInvalid(err))
	})

	t.Run("zone scope requires an existing zone", func(t *testing.T) {
		missing := uint(99)
		_, err := f.flow().UpsertPriceEntry(context.Background(), &dto.UpsertPriceEntryRequest{
			ProductID: 1,
			ScopeType: models.PriceScopeZone,
			ScopeKey:  &missing,
			UnitPrice: 100,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsZoneNotFound(err))
	})
}

func TestCreateModifierValidation(t *testing.T) {
	f := newAdminFixture()

	t.Run("unknown kind", func(t *testing.T) {
		_, err := f.flow().CreateModifier(context.Background(), &dto.CreateModifierRequest{
			Name: "bad", Kind: "DOUBLE", Value: 10,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsModifierKindInvalid(err))
	})

	t.Run("malformed window bound", func(t *testing.T) {
		bad := "yesterday"
		_, err := f.flow().CreateModifier(context.Background(), &dto.CreateModifierRequest{
			Name: "sale", Kind: models.ModifierPercentDec, Value: 10, ActiveFrom: &bad,
		}, nil)
		require.Error(t, err)
		var be *BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "INVALID_WINDOW", be.Code)
	})

	t.Run("valid modifier with window", func(t *testing.T) {
		from := "2026-03-01T00:00:00Z"
		until := "2026-04-01T00:00:00Z"
		modifier, err := f.flow().CreateModifier(context.Background(), &dto.CreateModifierRequest{
			Name: "monsoon sale", Kind: models.ModifierPercentDec, Value: 10, Priority: 1,
			ActiveFrom: &from, ActiveUntil: &until,
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, modifier.ActiveFrom)
		require.NotNil(t, modifier.ActiveUntil)
		assert.True(t, modifier.ActiveUntil.After(*modifier.ActiveFrom))
		require.Len(t, f.audit.saved, 1)
		assert.Equal(t, models.AuditActionModifierChanged, f.audit.saved[0].Action)
	})
}

func TestCreateSegmentDuplicateCode(t *testing.T) {
	f := newAdminFixture()

	_, err := f.flow().CreateSegment(context.Background(), &dto.CreateSegmentRequest{
		Code: "RETAIL", Name: "Retail again",
	}, nil)
	require.Error(t, err)
	assert.True(t, IsSegmentCodeExists(err))
}

func TestCreateZoneValidation(t *testing.T) {
	f := newAdminFixture()

	t.Run("non-country zone requires a parent", func(t *testing.T) {
		_, err := f.flow().CreateZone(context.Background(), &dto.CreateZoneRequest{
			Name: "Maharashtra", Level: models.ZoneLevelState,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsParentZoneNotFound(err))
	})

	t.Run("pincode zone requires a valid code", func(t *testing.T) {
		f2 := newAdminFixture()
		f2.zones.byID = map[uint]*models.GeoZone{
			3: {ID: 3, Name: "Mumbai", Level: models.ZoneLevelCity},
		}
		parent := uint(3)
		bad := "12"
		_, err := f2.flow().CreateZone(context.Background(), &dto.CreateZoneRequest{
			Name: "Mumbai 12", Level: models.ZoneLevelPincode, Code: &bad, ParentID: &parent,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsPincodeInvalid(err))
	})

	t.Run("country zone needs no parent", func(t *testing.T) {
		zone, err := f.flow().CreateZone(context.Background(), &dto.CreateZoneRequest{
			Name: "India", Level: models.ZoneLevelCountry,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.ZoneLevelCountry, zone.Level)
		assert.Nil(t, zone.ParentID)
	})
}

func TestUpsertAvailabilityRuleUnknownRefs(t *testing.T) {
	f := newAdminFixture()

	_, err := f.flow().UpsertAvailabilityRule(context.Background(), &dto.UpsertAvailabilityRuleRequest{
		ProductID: 99, ZoneID: 1, IsActive: true,
	}, nil)
	require.Error(t, err)
	assert.True(t, IsProductNotFound(err))

	_, err = f.flow().UpsertAvailabilityRule(context.Background(), &dto.UpsertAvailabilityRuleRequest{
		ProductID: 1, ZoneID: 99, IsActive: true,
	}, nil)
	require.Error(t, err)
	assert.True(t, IsZoneNotFound(err))
}

func TestExportPriceBook(t *testing.T) {
	f := newAdminFixture()
	zoneKey := uint(3)
	f.priceBook.entries = []*models.PriceBookEntry{
		{ID: 1, ProductID: 1, ScopeType: models.PriceScopeMaster, UnitPrice: 100, Currency: utils.INRCurrency},
		{ID: 2, ProductID: 1, ScopeType: models.PriceScopeZone, ScopeKey: &zoneKey, UnitPrice: 90, Currency: utils.INRCurrency},
	}

	filename, data, err := f.flow().ExportPriceBook(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "price_book_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))
	require.NotEmpty(t, data)

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer xl.Close()

	assert.ElementsMatch(t, []string{"Master", "Zone", "Segment"}, xl.GetSheetList())

	masterCell, err := xl.GetCellValue("Master", "D2")
	require.NoError(t, err)
	assert.Equal(t, "100.00", masterCell)

	zoneKeyCell, err := xl.GetCellValue("Zone", "C2")
	require.NoError(t, err)
	assert.Equal(t, "3", zoneKeyCell)
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "Q1_2026", sanitizeSheetName("Q1/2026"))
	assert.Equal(t, "Sheet", sanitizeSheetName(""))
	long := strings.Repeat("x", 40)
	assert.Len(t, sanitizeSheetName(long), 31)
}
