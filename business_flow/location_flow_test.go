package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printsetu/printsetu/app/services"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocationFlow(cache *memoryLocationCache, lookup *services.MockGeoLookupService, zones *fakeZoneRepo) (LocationFlow, *fakeAuditRepo) {
	if zones == nil {
		zones = &fakeZoneRepo{byPincode: map[string]*models.GeoZone{}}
	}
	audit := &fakeAuditRepo{}
	flow := NewLocationFlow(cache, lookup, zones, audit, time.Hour, 6*time.Second, 3*time.Second)
	return flow, audit
}

func TestValidatePincode(t *testing.T) {
	assert.NoError(t, ValidatePincode("400001"))
	assert.Error(t, ValidatePincode("040001")) // leading zero
	assert.Error(t, ValidatePincode("40001"))
	assert.Error(t, ValidatePincode("4000011"))
	assert.Error(t, ValidatePincode("40000a"))
	assert.Error(t, ValidatePincode(""))
}

func TestResolveCacheCheck(t *testing.T) {
	t.Run("fresh cached signal wins immediately", func(t *testing.T) {
		cache := newMemoryLocationCache()
		cache.entries["sess-1"] = &models.LocationSignal{
			Pincode:    "400001",
			Source:     models.LocationSourceIP,
			ResolvedAt: utils.UTCNow().Add(-59 * time.Minute),
		}
		flow, _ := newTestLocationFlow(cache, services.NewMockGeoLookupService(), nil)

		res, err := flow.Resolve(context.Background(), "sess-1", "203.0.113.10", nil)
		require.NoError(t, err)
		assert.True(t, res.IsResolved())
		assert.Equal(t, models.LocationSourceCache, res.DetectedBy)
		assert.Equal(t, "400001", res.Signal.Pincode)
	})

	t.Run("stale cached signal is treated as absent", func(t *testing.T) {
		cache := newMemoryLocationCache()
		cache.entries["sess-1"] = &models.LocationSignal{
			Pincode:    "400001",
			Source:     models.LocationSourceIP,
			ResolvedAt: utils.UTCNow().Add(-61 * time.Minute),
		}
		flow, _ := newTestLocationFlow(cache, services.NewMockGeoLookupService(), nil)

		res, err := flow.Resolve(context.Background(), "sess-1", "127.0.0.1", nil)
		require.NoError(t, err)
		assert.False(t, res.IsResolved())
		assert.Equal(t, LocationStateManualWait, res.State)
	})
}

func TestResolveIPAttempt(t *testing.T) {
	t.Run("public IP resolves and is cached", func(t *testing.T) {
		cache := newMemoryLocationCache()
		lookup := services.NewMockGeoLookupService()
		lookup.IPResults["203.0.113.10"] = &services.GeoLookupResult{
			Pincode: "400001", City: "Mumbai", State: "Maharashtra", Country: "India",
		}
		flow, audit := newTestLocationFlow(cache, lookup, nil)

		res, err := flow.Resolve(context.Background(), "sess-1", "203.0.113.10", nil)
		require.NoError(t, err)
		require.True(t, res.IsResolved())
		assert.Equal(t, models.LocationSourceIP, res.DetectedBy)
		assert.Equal(t, "Mumbai", res.Signal.City)
		assert.NotNil(t, cache.entries["sess-1"])
		require.Len(t, audit.saved, 1)
		assert.Equal(t, models.AuditActionLocationResolved, audit.saved[0].Action)
	})

	t.Run("private and loopback addresses are a defined miss", func(t *testing.T) {
		for _, ip := range []string{"", "127.0.0.1", "10.0.0.5", "192.168.1.4", "::1", "not-an-ip"} {
			flow, _ := newTestLocationFlow(newMemoryLocationCache(), services.NewMockGeoLookupService(), nil)
			res, err := flow.Resolve(context.Background(), "sess-1", ip, nil)
			require.NoError(t, err, ip)
			assert.Equal(t, LocationStateManualWait, res.State, ip)
			assert.Nil(t, res.Signal, ip)
		}
	})

	t.Run("provider failure never fabricates geography", func(t *testing.T) {
		lookup := services.NewMockGeoLookupService()
		lookup.LookupErr = errors.New("provider down")
		flow, _ := newTestLocationFlow(newMemoryLocationCache(), lookup, nil)

		res, err := flow.Resolve(context.Background(), "sess-1", "203.0.113.10", nil)
		require.NoError(t, err)
		assert.Equal(t, LocationStateManualWait, res.State)
		assert.Nil(t, res.Signal)
	})

	t.Run("provider result with bad pincode is a miss", func(t *testing.T) {
		lookup := services.NewMockGeoLookupService()
		lookup.IPResults["203.0.113.10"] = &services.GeoLookupResult{Pincode: "00000"}
		flow, _ := newTestLocationFlow(newMemoryLocationCache(), lookup, nil)

		res, err := flow.Resolve(context.Background(), "sess-1", "203.0.113.10", nil)
		require.NoError(t, err)
		assert.Equal(t, LocationStateManualWait, res.State)
	})
}

func TestResolveGPS(t *testing.T) {
	t.Run("reverse geocode resolves", func(t *testing.T) {
		lookup := services.NewMockGeoLookupService()
		lookup.GPSResult = &services.GeoLookupResult{Pincode: "560001", City: "Bengaluru"}
		cache := newMemoryLocationCache()
		flow, _ := newTestLocationFlow(cache, lookup, nil)

		res, err := flow.ResolveGPS(context.Background(), "sess-1", 12.97, 77.59, nil)
		require.NoError(t, err)
		require.True(t, res.IsResolved())
		assert.Equal(t, models.LocationSourceGPS, res.DetectedBy)
		assert.Equal(t, "560001", res.Signal.Pincode)
		assert.NotNil(t, cache.entries["sess-1"])
	})

	t.Run("geocode failure falls through to manual wait", func(t *testing.T) {
		lookup := services.NewMockGeoLookupService()
		lookup.GeocodeErr = errors.New("timeout")
		flow, _ := newTestLocationFlow(newMemoryLocationCache(), lookup, nil)

		res, err := flow.ResolveGPS(context.Background(), "sess-1", 12.97, 77.59, nil)
		require.NoError(t, err)
		assert.Equal(t, LocationStateManualWait, res.State)
	})
}

func TestSubmitManualPincode(t *testing.T) {
	zones := &fakeZoneRepo{byPincode: map[string]*models.GeoZone{
		"400001": {ID: 4, Name: "Mumbai 400001", Level: models.ZoneLevelPincode},
	}}

	t.Run("malformed pincode is rejected", func(t *testing.T) {
		flow, _ := newTestLocationFlow(newMemoryLocationCache(), services.NewMockGeoLookupService(), zones)
		_, err := flow.SubmitManualPincode(context.Background(), "sess-1", "12ab", nil)
		require.Error(t, err)
		assert.True(t, IsPincodeInvalid(err))
	})

	t.Run("unmapped pincode is not serviceable", func(t *testing.T) {
		flow, _ := newTestLocationFlow(newMemoryLocationCache(), services.NewMockGeoLookupService(), zones)
		_, err := flow.SubmitManualPincode(context.Background(), "sess-1", "999999", nil)
		require.Error(t, err)
		assert.True(t, IsZoneNotFound(err))
	})

	t.Run("valid pincode completes the cascade", func(t *testing.T) {
		cache := newMemoryLocationCache()
		flow, _ := newTestLocationFlow(cache, services.NewMockGeoLookupService(), zones)

		res, err := flow.SubmitManualPincode(context.Background(), "sess-1", "400001", nil)
		require.NoError(t, err)
		require.True(t, res.IsResolved())
		assert.Equal(t, models.LocationSourceManual, res.DetectedBy)
		assert.NotNil(t, cache.entries["sess-1"])
	})
}

func TestForgetLocation(t *testing.T) {
	cache := newMemoryLocationCache()
	cache.entries["sess-1"] = &models.LocationSignal{
		Pincode:    "400001",
		Source:     models.LocationSourceManual,
		ResolvedAt: utils.UTCNow(),
	}
	flow, _ := newTestLocationFlow(cache, services.NewMockGeoLookupService(), nil)

	require.NoError(t, flow.ForgetLocation(context.Background(), "sess-1"))
	assert.Nil(t, cache.entries["sess-1"])

	res, err := flow.Resolve(context.Background(), "sess-1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, LocationStateManualWait, res.State)
}
