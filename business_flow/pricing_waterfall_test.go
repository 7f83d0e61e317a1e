package businessflow

import (
	"testing"
	"time"

	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChain() models.ZoneChain {
	return models.ZoneChain{
		{ID: 4, Name: "Mumbai 400001", Level: models.ZoneLevelPincode},
		{ID: 3, Name: "Mumbai", Level: models.ZoneLevelCity},
		{ID: 2, Name: "Maharashtra", Level: models.ZoneLevelState},
		{ID: 1, Name: "India", Level: models.ZoneLevelCountry},
	}
}

func masterEntry(price float64) *models.PriceBookEntry {
	return &models.PriceBookEntry{
		ID:        1,
		ProductID: 1,
		ScopeType: models.PriceScopeMaster,
		UnitPrice: price,
		Currency:  utils.INRCurrency,
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 64.80, Round2(64.8))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 100.00, Round2(99.999))
	assert.Equal(t, -0.13, Round2(-0.125))
}

func TestResolveUnitPrice(t *testing.T) {
	chain := testChain()

	t.Run("missing master is a configuration gap", func(t *testing.T) {
		_, err := ResolveUnitPrice(nil, nil, chain, nil)
		require.Error(t, err)
		assert.True(t, IsNoMasterPrice(err))
	})

	t.Run("master only", func(t *testing.T) {
		resolved, err := ResolveUnitPrice(masterEntry(100), nil, chain, nil)
		require.NoError(t, err)
		assert.Equal(t, 100.0, resolved.UnitPrice)
		require.Len(t, resolved.Steps, 1)
		assert.Equal(t, OverrideStepMaster, resolved.Steps[0].Type)
	})

	t.Run("most specific zone wins and the walk stops", func(t *testing.T) {
		overrides := map[uint]*models.PriceBookEntry{
			3: {ScopeType: models.PriceScopeZone, UnitPrice: 90, Currency: utils.INRCurrency},  // city
			2: {ScopeType: models.PriceScopeZone, UnitPrice: 95, Currency: utils.INRCurrency},  // state
			1: {ScopeType: models.PriceScopeZone, UnitPrice: 105, Currency: utils.INRCurrency}, // country
		}
		resolved, err := ResolveUnitPrice(masterEntry(100), overrides, chain, nil)
		require.NoError(t, err)
		assert.Equal(t, 90.0, resolved.UnitPrice)
		require.NotNil(t, resolved.UsedZoneID)
		assert.Equal(t, uint(3), *resolved.UsedZoneID)
		require.Len(t, resolved.Steps, 2)
		assert.Equal(t, "Mumbai", resolved.Steps[1].Source)
	})

	t.Run("segment override wins over zone", func(t *testing.T) {
		overrides := map[uint]*models.PriceBookEntry{
			3: {ScopeType: models.PriceScopeZone, UnitPrice: 90, Currency: utils.INRCurrency},
		}
		segment := &models.PriceBookEntry{ScopeType: models.PriceScopeSegment, UnitPrice: 80, Currency: utils.INRCurrency}

		resolved, err := ResolveUnitPrice(masterEntry(100), overrides, chain, segment)
		require.NoError(t, err)
		assert.Equal(t, 80.0, resolved.UnitPrice)
		require.Len(t, resolved.Steps, 3)
		assert.Equal(t, OverrideStepMaster, resolved.Steps[0].Type)
		assert.Equal(t, OverrideStepZone, resolved.Steps[1].Type)
		assert.Equal(t, OverrideStepSegment, resolved.Steps[2].Type)
		assert.Equal(t, 90.0, resolved.Steps[2].BeforeAmount)
		assert.Equal(t, 80.0, resolved.Steps[2].AfterAmount)
	})

	t.Run("absent layers fall through silently", func(t *testing.T) {
		segment := &models.PriceBookEntry{ScopeType: models.PriceScopeSegment, UnitPrice: 85, Currency: utils.INRCurrency}
		resolved, err := ResolveUnitPrice(masterEntry(100), nil, chain, segment)
		require.NoError(t, err)
		assert.Equal(t, 85.0, resolved.UnitPrice)
		assert.Nil(t, resolved.UsedZoneID)
	})
}

func TestApplyModifiers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	chain := testChain()

	t.Run("ascending priority regardless of input order", func(t *testing.T) {
		modifiers := []*models.PriceModifier{
			{ID: 2, Name: "late", Kind: models.ModifierFlatInc, Value: 10, Priority: 5},
			{ID: 1, Name: "early", Kind: models.ModifierPercentDec, Value: 10, Priority: 1},
		}
		final, applied := ApplyModifiers(100, modifiers, chain, now)
		require.Len(t, applied, 2)
		assert.Equal(t, "early", applied[0].Name)
		assert.Equal(t, "late", applied[1].Name)
		// 100 * 0.9 = 90, then +10 = 100
		assert.Equal(t, 100.0, final)

		reversed := []*models.PriceModifier{modifiers[1], modifiers[0]}
		finalReversed, _ := ApplyModifiers(100, reversed, chain, now)
		assert.Equal(t, final, finalReversed)
	})

	t.Run("priority ties break by id", func(t *testing.T) {
		modifiers := []*models.PriceModifier{
			{ID: 9, Kind: models.ModifierFlatInc, Value: 10, Priority: 1},
			{ID: 3, Kind: models.ModifierPercentInc, Value: 50, Priority: 1},
		}
		_, applied := ApplyModifiers(100, modifiers, chain, now)
		require.Len(t, applied, 2)
		assert.Equal(t, uint(3), applied[0].ID)
		// 100 * 1.5 = 150, then +10
		assert.Equal(t, 160.0, applied[1].AfterAmount)
	})

	t.Run("window and zone eligibility", func(t *testing.T) {
		past := now.Add(-time.Hour)
		otherZone := uint(999)
		cityZone := uint(3)
		modifiers := []*models.PriceModifier{
			{ID: 1, Kind: models.ModifierFlatInc, Value: 5, Priority: 1, ActiveUntil: &past},
			{ID: 2, Kind: models.ModifierFlatInc, Value: 7, Priority: 2, ZoneID: &otherZone},
			{ID: 3, Kind: models.ModifierFlatInc, Value: 11, Priority: 3, ZoneID: &cityZone},
		}
		final, applied := ApplyModifiers(100, modifiers, chain, now)
		require.Len(t, applied, 1)
		assert.Equal(t, uint(3), applied[0].ID)
		assert.Equal(t, 111.0, final)
	})

	t.Run("each kind", func(t *testing.T) {
		tests := []struct {
			kind  string
			value float64
			want  float64
		}{
			{models.ModifierPercentInc, 10, 110},
			{models.ModifierPercentDec, 10, 90},
			{models.ModifierFlatInc, 15, 115},
			{models.ModifierFlatDec, 15, 85},
		}
		for _, tt := range tests {
			final, _ := ApplyModifiers(100, []*models.PriceModifier{
				{ID: 1, Kind: tt.kind, Value: tt.value, Priority: 1},
			}, chain, now)
			assert.InDelta(t, tt.want, final, 1e-9, tt.kind)
		}
	})
}

func TestBuildQuote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	chain := testChain()

	t.Run("full waterfall", func(t *testing.T) {
		// master 100 -> zone 90 -> segment 80, then PERCENT_DEC 10 = 72
		// per unit; 5 units at 18% GST.
		overrides := map[uint]*models.PriceBookEntry{
			3: {ScopeType: models.PriceScopeZone, UnitPrice: 90, Currency: utils.INRCurrency},
		}
		segment := &models.PriceBookEntry{ScopeType: models.PriceScopeSegment, UnitPrice: 80, Currency: utils.INRCurrency}
		resolved, err := ResolveUnitPrice(masterEntry(100), overrides, chain, segment)
		require.NoError(t, err)

		quote, err := BuildQuote(QuoteInput{
			Resolved: resolved,
			Modifiers: []*models.PriceModifier{
				{ID: 1, Name: "monsoon sale", Kind: models.ModifierPercentDec, Value: 10, Priority: 1},
			},
			Chain:           chain,
			Quantity:        5,
			NumberOfDesigns: 1,
			GSTPercentage:   18,
			Now:             now,
		})
		require.NoError(t, err)

		assert.Equal(t, 80.0, quote.BasePrice)
		assert.Equal(t, 72.0, quote.UnitPrice)
		assert.Equal(t, 360.00, quote.Subtotal)
		assert.Equal(t, 64.80, quote.GSTAmount)
		assert.Equal(t, 424.80, quote.TotalPayable)
		assert.Equal(t, utils.INRCurrency, quote.Currency)
		require.Len(t, quote.AppliedModifiers, 1)
		assert.Equal(t, 80.0, quote.AppliedModifiers[0].BeforeAmount)
		assert.Equal(t, 72.0, quote.AppliedModifiers[0].AfterAmount)
	})

	t.Run("quantity and designs validation", func(t *testing.T) {
		resolved, err := ResolveUnitPrice(masterEntry(100), nil, chain, nil)
		require.NoError(t, err)

		_, err = BuildQuote(QuoteInput{Resolved: resolved, Quantity: 0, NumberOfDesigns: 1, GSTPercentage: 18, Now: now})
		assert.True(t, IsQuantityInvalid(err))

		_, err = BuildQuote(QuoteInput{Resolved: resolved, Quantity: 1, NumberOfDesigns: 0, GSTPercentage: 18, Now: now})
		assert.True(t, IsDesignsInvalid(err))
	})

	t.Run("designs multiply units", func(t *testing.T) {
		resolved, err := ResolveUnitPrice(masterEntry(10), nil, chain, nil)
		require.NoError(t, err)

		quote, err := BuildQuote(QuoteInput{
			Resolved:        resolved,
			Quantity:        5,
			NumberOfDesigns: 3,
			GSTPercentage:   18,
			Now:             now,
		})
		require.NoError(t, err)
		assert.Equal(t, 150.00, quote.Subtotal)
	})

	t.Run("surcharges are rounded separately from the unit total", func(t *testing.T) {
		resolved, err := ResolveUnitPrice(masterEntry(99.995), nil, chain, nil)
		require.NoError(t, err)

		quote, err := BuildQuote(QuoteInput{
			Resolved: resolved,
			Charges: []*models.AttributeCharge{
				{AttributeType: "lamination", AttributeValue: "matte", Amount: 25.554, Mode: models.ChargeModeFlat},
				{AttributeType: "paper", AttributeValue: "300gsm", Amount: 2, Mode: models.ChargeModePerUnit},
			},
			Quantity:        2,
			NumberOfDesigns: 1,
			GSTPercentage:   18,
			Now:             now,
		})
		require.NoError(t, err)
		// Round2(99.995*2) + Round2(25.554 + 2*2) = 199.99 + 29.55
		assert.InDelta(t, 229.54, quote.Subtotal, 1e-9)
		require.Len(t, quote.Surcharges, 2)
		assert.Equal(t, 25.55, quote.Surcharges[0].Amount)
		assert.Equal(t, 4.0, quote.Surcharges[1].Amount)
	})

	t.Run("compare-at only when above total payable", func(t *testing.T) {
		tests := []struct {
			name      string
			compareAt float64
			expectSet bool
		}{
			{"above total", 1000, true},
			{"below total", 50, false},
			{"equal to total", 118, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				master := masterEntry(100)
				master.CompareAtPrice = &tt.compareAt
				resolved, err := ResolveUnitPrice(master, nil, chain, nil)
				require.NoError(t, err)

				quote, err := BuildQuote(QuoteInput{
					Resolved:        resolved,
					Quantity:        1,
					NumberOfDesigns: 1,
					GSTPercentage:   18,
					Now:             now,
				})
				require.NoError(t, err)
				// total = 100 + 18 GST = 118
				assert.Equal(t, 118.00, quote.TotalPayable)
				if tt.expectSet {
					require.NotNil(t, quote.CompareAtPrice)
					assert.Equal(t, tt.compareAt, *quote.CompareAtPrice)
				} else {
					assert.Nil(t, quote.CompareAtPrice)
				}
			})
		}
	})
}
