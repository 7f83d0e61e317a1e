// Package repository_test exercises the SQL-backed queries against a
// disposable postgres database. Tests skip when no database is reachable.
package repository_test

import (
	"testing"

	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/repository"
	testingutil "github.com/printsetu/printsetu/testing"
	"github.com/printsetu/printsetu/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *testingutil.TestDB {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("teardown failed: %v", err)
		}
	})
	return testDB
}

func TestGeoZoneRepository(t *testing.T) {
	testDB := setupDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewGeoZoneRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	tree, err := fixtures.CreateZoneTree("Maharashtra", "Mumbai")
	require.NoError(t, err)

	t.Run("ByPincode", func(t *testing.T) {
		zone, err := repo.ByPincode(ctx, *tree.Pincode.Code)
		require.NoError(t, err)
		require.NotNil(t, zone)
		assert.Equal(t, tree.Pincode.ID, zone.ID)
		assert.Equal(t, models.ZoneLevelPincode, zone.Level)
	})

	t.Run("ByPincodeUnmapped", func(t *testing.T) {
		zone, err := repo.ByPincode(ctx, "999999")
		require.NoError(t, err)
		assert.Nil(t, zone)
	})

	t.Run("AncestorChain", func(t *testing.T) {
		chain, err := repo.AncestorChain(ctx, tree.Pincode.ID)
		require.NoError(t, err)
		require.Len(t, chain, 4)

		// Ordered most specific to least specific
		assert.Equal(t, tree.Pincode.ID, chain[0].ID)
		assert.Equal(t, tree.City.ID, chain[1].ID)
		assert.Equal(t, tree.State.ID, chain[2].ID)
		assert.Equal(t, tree.Country.ID, chain[3].ID)
		assert.Equal(t, models.ZoneLevelCountry, chain[3].Level)
	})

	t.Run("AncestorChainFromInnerNode", func(t *testing.T) {
		chain, err := repo.AncestorChain(ctx, tree.City.ID)
		require.NoError(t, err)
		require.Len(t, chain, 3)
		assert.Equal(t, tree.City.ID, chain[0].ID)
	})

	t.Run("AncestorChainUnknownZone", func(t *testing.T) {
		chain, err := repo.AncestorChain(ctx, 99999)
		require.NoError(t, err)
		assert.Empty(t, chain)
	})
}

func TestPriceBookRepository(t *testing.T) {
	testDB := setupDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewPriceBookRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	tree, err := fixtures.CreateZoneTree("Karnataka", "Bengaluru")
	require.NoError(t, err)
	product, err := fixtures.CreateTestProduct("business-cards", 18)
	require.NoError(t, err)

	_, err = fixtures.CreatePriceEntry(product.ID, models.PriceScopeMaster, nil, 100)
	require.NoError(t, err)
	_, err = fixtures.CreatePriceEntry(product.ID, models.PriceScopeZone, &tree.City.ID, 90)
	require.NoError(t, err)

	t.Run("MasterByProduct", func(t *testing.T) {
		entry, err := repo.MasterByProduct(ctx, product.ID, utils.INRCurrency)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, 100.0, entry.UnitPrice)
	})

	t.Run("MasterByProductMissing", func(t *testing.T) {
		entry, err := repo.MasterByProduct(ctx, 99999, utils.INRCurrency)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("ZoneOverrides", func(t *testing.T) {
		overrides, err := repo.ZoneOverrides(ctx, product.ID,
			[]uint{tree.Pincode.ID, tree.City.ID, tree.State.ID, tree.Country.ID})
		require.NoError(t, err)
		require.Len(t, overrides, 1)
		require.Contains(t, overrides, tree.City.ID)
		assert.Equal(t, 90.0, overrides[tree.City.ID].UnitPrice)
	})

	t.Run("ZoneOverridesLatestWins", func(t *testing.T) {
		_, err := fixtures.CreatePriceEntry(product.ID, models.PriceScopeZone, &tree.City.ID, 85)
		require.NoError(t, err)

		overrides, err := repo.ZoneOverrides(ctx, product.ID, []uint{tree.City.ID})
		require.NoError(t, err)
		require.Contains(t, overrides, tree.City.ID)
		assert.Equal(t, 85.0, overrides[tree.City.ID].UnitPrice)
	})

	t.Run("ZoneOverridesEmptyInput", func(t *testing.T) {
		overrides, err := repo.ZoneOverrides(ctx, product.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, overrides)
	})

	t.Run("SegmentOverride", func(t *testing.T) {
		segment, err := fixtures.CreateTestSegment("WHOLESALE", "Wholesale", 1, false)
		require.NoError(t, err)
		_, err = fixtures.CreatePriceEntry(product.ID, models.PriceScopeSegment, &segment.ID, 80)
		require.NoError(t, err)

		entry, err := repo.SegmentOverride(ctx, product.ID, segment.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, 80.0, entry.UnitPrice)
	})

	t.Run("DeactivateScope", func(t *testing.T) {
		require.NoError(t, repo.DeactivateScope(ctx, product.ID, models.PriceScopeZone, &tree.City.ID))

		overrides, err := repo.ZoneOverrides(ctx, product.ID, []uint{tree.City.ID})
		require.NoError(t, err)
		assert.Empty(t, overrides)
	})
}

func TestCustomerSegmentRepository(t *testing.T) {
	testDB := setupDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewCustomerSegmentRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	retail, err := fixtures.CreateTestSegment("RETAIL", "Retail", 0, true)
	require.NoError(t, err)
	corporate, err := fixtures.CreateTestSegment("CORPORATE", "Corporate", 2, false)
	require.NoError(t, err)

	t.Run("ByCode", func(t *testing.T) {
		segment, err := repo.ByCode(ctx, "CORPORATE")
		require.NoError(t, err)
		require.NotNil(t, segment)
		assert.Equal(t, corporate.ID, segment.ID)
	})

	t.Run("ByCodeUnknown", func(t *testing.T) {
		segment, err := repo.ByCode(ctx, "GALAXY")
		require.NoError(t, err)
		assert.Nil(t, segment)
	})

	t.Run("DefaultSegment", func(t *testing.T) {
		segment, err := repo.DefaultSegment(ctx)
		require.NoError(t, err)
		require.NotNil(t, segment)
		assert.Equal(t, retail.ID, segment.ID)
	})

	t.Run("ClearDefaultKeepsOnlyOne", func(t *testing.T) {
		require.NoError(t, repo.ClearDefault(ctx, corporate.ID))

		segment, err := repo.ByCode(ctx, "RETAIL")
		require.NoError(t, err)
		require.NotNil(t, segment)
		assert.False(t, segment.Default())
	})
}
