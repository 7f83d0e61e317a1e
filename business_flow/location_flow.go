package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/printsetu/printsetu/app/services"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/repository"
	"github.com/printsetu/printsetu/utils"
)

// Resolver states. The cascade never fabricates geography: when every
// automatic source misses, it parks in ManualWait until the user
// submits a pincode.
const (
	LocationStateCacheCheck = "CACHE_CHECK"
	LocationStateGPSAttempt = "GPS_ATTEMPT"
	LocationStateIPAttempt  = "IP_ATTEMPT"
	LocationStateManualWait = "MANUAL_WAIT"
	LocationStateResolved   = "RESOLVED"
)

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// LocationResolution is the typed outcome of one resolution pass.
// State is either Resolved (Signal set) or ManualWait (Signal nil).
type LocationResolution struct {
	State      string                 `json:"state"`
	Signal     *models.LocationSignal `json:"signal,omitempty"`
	DetectedBy string                 `json:"detected_by,omitempty"`
}

func (r *LocationResolution) IsResolved() bool {
	return r.State == LocationStateResolved && r.Signal != nil
}

// LocationFlow runs the cache → GPS → IP → manual cascade. The server
// drives only the cache and IP steps on its own; GPS coordinates and
// manual pincodes arrive as client-supplied inputs through their own
// methods, which share the same cache.
type LocationFlow interface {
	// Resolve is the server-side pass: cache check, then IP attempt,
	// then manual wait. ip may be empty or private; both are defined
	// misses, not errors.
	Resolve(ctx context.Context, sessionID, ip string, metadata *ClientMetadata) (*LocationResolution, error)
	// ResolveGPS reverse-geocodes client-supplied coordinates.
	ResolveGPS(ctx context.Context, sessionID string, lat, lng float64, metadata *ClientMetadata) (*LocationResolution, error)
	// SubmitManualPincode validates a user-entered pincode against the
	// zone index and completes the cascade.
	SubmitManualPincode(ctx context.Context, sessionID, pincode string, metadata *ClientMetadata) (*LocationResolution, error)
	// ForgetLocation drops the cached signal so the next pass re-resolves.
	ForgetLocation(ctx context.Context, sessionID string) error
}

// LocationFlowImpl implements LocationFlow
type LocationFlowImpl struct {
	cache         services.LocationCache
	geoLookup     services.GeoLookupService
	zoneRepo      repository.GeoZoneRepository
	auditRepo     repository.AuditLogRepository
	cacheTTL      time.Duration
	gpsTimeout    time.Duration
	lookupTimeout time.Duration
}

// NewLocationFlow creates a new location resolution flow
func NewLocationFlow(
	cache services.LocationCache,
	geoLookup services.GeoLookupService,
	zoneRepo repository.GeoZoneRepository,
	auditRepo repository.AuditLogRepository,
	cacheTTL time.Duration,
	gpsTimeout time.Duration,
	lookupTimeout time.Duration,
) LocationFlow {
	return &LocationFlowImpl{
		cache:         cache,
		geoLookup:     geoLookup,
		zoneRepo:      zoneRepo,
		auditRepo:     auditRepo,
		cacheTTL:      cacheTTL,
		gpsTimeout:    gpsTimeout,
		lookupTimeout: lookupTimeout,
	}
}

// ValidatePincode checks the 6-digit postal code format.
func ValidatePincode(pincode string) error {
	if !pincodePattern.MatchString(pincode) {
		return ErrPincodeInvalid
	}
	return nil
}

// Resolve runs the server-side cascade: a fresh cached signal wins
// immediately; otherwise the caller's IP is tried; otherwise the pass
// terminates in manual wait.
func (f *LocationFlowImpl) Resolve(ctx context.Context, sessionID, ip string, metadata *ClientMetadata) (*LocationResolution, error) {
	if cached := f.freshCached(ctx, sessionID); cached != nil {
		return &LocationResolution{
			State:      LocationStateResolved,
			Signal:     cached,
			DetectedBy: models.LocationSourceCache,
		}, nil
	}

	if signal := f.attemptIP(ctx, ip); signal != nil {
		f.store(ctx, sessionID, signal, metadata)
		return &LocationResolution{
			State:      LocationStateResolved,
			Signal:     signal,
			DetectedBy: models.LocationSourceIP,
		}, nil
	}

	return &LocationResolution{State: LocationStateManualWait}, nil
}

// ResolveGPS reverse-geocodes coordinates inside the GPS timeout. A
// provider miss or timeout is a defined failure; the caller falls
// through to the next cascade step.
func (f *LocationFlowImpl) ResolveGPS(ctx context.Context, sessionID string, lat, lng float64, metadata *ClientMetadata) (*LocationResolution, error) {
	if cached := f.freshCached(ctx, sessionID); cached != nil {
		return &LocationResolution{
			State:      LocationStateResolved,
			Signal:     cached,
			DetectedBy: models.LocationSourceCache,
		}, nil
	}

	geocodeCtx, cancel := context.WithTimeout(ctx, f.gpsTimeout)
	defer cancel()

	result, err := f.geoLookup.ReverseGeocode(geocodeCtx, lat, lng)
	if err != nil || result == nil {
		return &LocationResolution{State: LocationStateManualWait}, nil
	}
	if ValidatePincode(result.Pincode) != nil {
		return &LocationResolution{State: LocationStateManualWait}, nil
	}

	signal := &models.LocationSignal{
		Pincode:    result.Pincode,
		City:       result.City,
		State:      result.State,
		Country:    result.Country,
		Source:     models.LocationSourceGPS,
		ResolvedAt: utils.UTCNow(),
	}
	f.store(ctx, sessionID, signal, metadata)

	return &LocationResolution{
		State:      LocationStateResolved,
		Signal:     signal,
		DetectedBy: models.LocationSourceGPS,
	}, nil
}

// SubmitManualPincode completes the cascade from user input. The
// pincode must be syntactically valid; an unmapped one is rejected so
// the UI can re-prompt rather than quote against unknown geography.
func (f *LocationFlowImpl) SubmitManualPincode(ctx context.Context, sessionID, pincode string, metadata *ClientMetadata) (*LocationResolution, error) {
	if err := ValidatePincode(pincode); err != nil {
		return nil, NewBusinessError("INVALID_PINCODE", "pincode must be exactly 6 digits", err)
	}

	zone, err := f.zoneRepo.ByPincode(ctx, pincode)
	if err != nil {
		return nil, NewBusinessError("ZONE_LOOKUP_FAILED", "failed to look up pincode", err)
	}
	if zone == nil {
		return nil, NewBusinessError("ZONE_NOT_FOUND", "pincode is not serviceable", ErrZoneNotFound)
	}

	signal := &models.LocationSignal{
		Pincode:    pincode,
		City:       zone.Name,
		Source:     models.LocationSourceManual,
		ResolvedAt: utils.UTCNow(),
	}
	f.store(ctx, sessionID, signal, metadata)

	return &LocationResolution{
		State:      LocationStateResolved,
		Signal:     signal,
		DetectedBy: models.LocationSourceManual,
	}, nil
}

// ForgetLocation drops the cached signal for the session.
func (f *LocationFlowImpl) ForgetLocation(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return f.cache.Delete(ctx, sessionID)
}

// freshCached returns the cached signal when it is still inside the
// TTL; stale entries are treated as absent.
func (f *LocationFlowImpl) freshCached(ctx context.Context, sessionID string) *models.LocationSignal {
	if sessionID == "" {
		return nil
	}
	cached, err := f.cache.Get(ctx, sessionID)
	if err != nil || cached == nil {
		return nil
	}
	if !cached.IsFresh(utils.UTCNow(), f.cacheTTL) {
		return nil
	}
	return cached
}

// attemptIP derives a signal from the caller's address. Private and
// loopback addresses are a defined miss, as is any provider failure.
func (f *LocationFlowImpl) attemptIP(ctx context.Context, ip string) *models.LocationSignal {
	if ip == "" || isPrivateOrLoopback(ip) {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, f.lookupTimeout)
	defer cancel()

	result, err := f.geoLookup.LookupIP(lookupCtx, ip)
	if err != nil || result == nil {
		return nil
	}
	if ValidatePincode(result.Pincode) != nil {
		return nil
	}

	return &models.LocationSignal{
		Pincode:    result.Pincode,
		City:       result.City,
		State:      result.State,
		Country:    result.Country,
		Source:     models.LocationSourceIP,
		ResolvedAt: utils.UTCNow(),
	}
}

// store caches the signal and writes the audit row. Neither failure
// blocks resolution; the quote path can proceed without them.
func (f *LocationFlowImpl) store(ctx context.Context, sessionID string, signal *models.LocationSignal, metadata *ClientMetadata) {
	if sessionID != "" {
		_ = f.cache.Set(ctx, sessionID, signal)
	}

	if f.auditRepo == nil {
		return
	}
	meta, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"pincode":    signal.Pincode,
		"source":     signal.Source,
	})
	entry := &models.AuditLog{
		Action:      models.AuditActionLocationResolved,
		Description: utils.ToPtr(fmt.Sprintf("location resolved via %s", signal.Source)),
		Metadata:    meta,
		Success:     utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			entry.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	_ = f.auditRepo.Save(ctx, entry)
}

func isPrivateOrLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast()
}
