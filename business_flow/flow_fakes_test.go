package businessflow

import (
	"context"
	"time"

	"github.com/printsetu/printsetu/app/services"
	"github.com/printsetu/printsetu/models"
)

// stubRepo satisfies the generic repository surface with zero values so
// the fakes below only implement the methods a flow actually touches.
type stubRepo[T any, F any] struct{}

func (stubRepo[T, F]) ByID(ctx context.Context, id uint) (*T, error) { return nil, nil }
func (stubRepo[T, F]) ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error) {
	return nil, nil
}
func (stubRepo[T, F]) Save(ctx context.Context, entity *T) error          { return nil }
func (stubRepo[T, F]) SaveBatch(ctx context.Context, entities []*T) error { return nil }
func (stubRepo[T, F]) Count(ctx context.Context, filter F) (int64, error) { return 0, nil }
func (stubRepo[T, F]) Exists(ctx context.Context, filter F) (bool, error) { return false, nil }

type fakeZoneRepo struct {
	stubRepo[models.GeoZone, models.GeoZoneFilter]
	byPincode map[string]*models.GeoZone
	byID      map[uint]*models.GeoZone
	chains    map[uint]models.ZoneChain
}

func (r *fakeZoneRepo) ByID(ctx context.Context, id uint) (*models.GeoZone, error) {
	return r.byID[id], nil
}

func (r *fakeZoneRepo) ByPincode(ctx context.Context, pincode string) (*models.GeoZone, error) {
	return r.byPincode[pincode], nil
}

func (r *fakeZoneRepo) AncestorChain(ctx context.Context, zoneID uint) (models.ZoneChain, error) {
	return r.chains[zoneID], nil
}

type fakeSegmentRepo struct {
	stubRepo[models.CustomerSegment, models.CustomerSegmentFilter]
	byCode     map[string]*models.CustomerSegment
	byID       map[uint]*models.CustomerSegment
	defaultSeg *models.CustomerSegment
}

func (r *fakeSegmentRepo) ByID(ctx context.Context, id uint) (*models.CustomerSegment, error) {
	return r.byID[id], nil
}

func (r *fakeSegmentRepo) ByCode(ctx context.Context, code string) (*models.CustomerSegment, error) {
	return r.byCode[code], nil
}

func (r *fakeSegmentRepo) DefaultSegment(ctx context.Context) (*models.CustomerSegment, error) {
	return r.defaultSeg, nil
}

func (r *fakeSegmentRepo) ClearDefault(ctx context.Context, exceptID uint) error { return nil }

type fakeProductRepo struct {
	stubRepo[models.Product, models.ProductFilter]
	bySlug map[string]*models.Product
	byID   map[uint]*models.Product
}

func (r *fakeProductRepo) BySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.bySlug[slug], nil
}

func (r *fakeProductRepo) ByID(ctx context.Context, id uint) (*models.Product, error) {
	return r.byID[id], nil
}

type fakeCustomerRepo struct {
	stubRepo[models.Customer, models.CustomerFilter]
	byID    map[uint]*models.Customer
	byEmail map[string]*models.Customer
}

func (r *fakeCustomerRepo) ByID(ctx context.Context, id uint) (*models.Customer, error) {
	return r.byID[id], nil
}

func (r *fakeCustomerRepo) ByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.byEmail[email], nil
}

func (r *fakeCustomerRepo) ByUUID(ctx context.Context, uuid string) (*models.Customer, error) {
	return nil, nil
}

func (r *fakeCustomerRepo) UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error {
	return nil
}

type fakePriceBookRepo struct {
	stubRepo[models.PriceBookEntry, models.PriceBookEntryFilter]
	master          *models.PriceBookEntry
	zoneOverrides   map[uint]*models.PriceBookEntry
	segmentOverride map[uint]*models.PriceBookEntry
	entries         []*models.PriceBookEntry
}

func (r *fakePriceBookRepo) ByFilter(ctx context.Context, filter models.PriceBookEntryFilter, orderBy string, limit, offset int) ([]*models.PriceBookEntry, error) {
	return r.entries, nil
}

func (r *fakePriceBookRepo) MasterByProduct(ctx context.Context, productID uint, currency string) (*models.PriceBookEntry, error) {
	return r.master, nil
}

func (r *fakePriceBookRepo) ZoneOverrides(ctx context.Context, productID uint, zoneIDs []uint) (map[uint]*models.PriceBookEntry, error) {
	out := make(map[uint]*models.PriceBookEntry)
	for _, id := range zoneIDs {
		if e, ok := r.zoneOverrides[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (r *fakePriceBookRepo) SegmentOverride(ctx context.Context, productID, segmentID uint) (*models.PriceBookEntry, error) {
	return r.segmentOverride[segmentID], nil
}

func (r *fakePriceBookRepo) DeactivateScope(ctx context.Context, productID uint, scopeType string, scopeKey *uint) error {
	return nil
}

type fakeModifierRepo struct {
	stubRepo[models.PriceModifier, models.PriceModifierFilter]
	active []*models.PriceModifier
}

func (r *fakeModifierRepo) ListActiveForProduct(ctx context.Context, productID uint, now time.Time) ([]*models.PriceModifier, error) {
	return r.active, nil
}

func (r *fakeModifierRepo) SetActive(ctx context.Context, modifierID uint, isActive bool) error {
	return nil
}

type fakeChargeRepo struct {
	stubRepo[models.AttributeCharge, models.AttributeChargeFilter]
	charges []*models.AttributeCharge
}

func (r *fakeChargeRepo) ForSelections(ctx context.Context, productID uint, selections []models.AttributeSelection) ([]*models.AttributeCharge, error) {
	out := make([]*models.AttributeCharge, 0, len(selections))
	for _, sel := range selections {
		for _, c := range r.charges {
			if c.AttributeType == sel.Type && c.AttributeValue == sel.Value {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

type fakeAvailabilityRepo struct {
	stubRepo[models.AvailabilityRule, models.AvailabilityRuleFilter]
	rule *models.AvailabilityRule
}

func (r *fakeAvailabilityRepo) BlockingRule(ctx context.Context, productID uint, zoneIDs []uint) (*models.AvailabilityRule, error) {
	if r.rule == nil {
		return nil, nil
	}
	for _, id := range zoneIDs {
		if id == r.rule.ZoneID {
			return r.rule, nil
		}
	}
	return nil, nil
}

type fakeAuditRepo struct {
	stubRepo[models.AuditLog, models.AuditLogFilter]
	saved []*models.AuditLog
}

func (r *fakeAuditRepo) Save(ctx context.Context, entry *models.AuditLog) error {
	r.saved = append(r.saved, entry)
	return nil
}

func (r *fakeAuditRepo) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

// memoryLocationCache is an in-process LocationCache for tests.
type memoryLocationCache struct {
	entries map[string]*models.LocationSignal
}

func newMemoryLocationCache() *memoryLocationCache {
	return &memoryLocationCache{entries: make(map[string]*models.LocationSignal)}
}

func (c *memoryLocationCache) Get(ctx context.Context, sessionID string) (*models.LocationSignal, error) {
	return c.entries[sessionID], nil
}

func (c *memoryLocationCache) Set(ctx context.Context, sessionID string, signal *models.LocationSignal) error {
	c.entries[sessionID] = signal
	return nil
}

func (c *memoryLocationCache) Delete(ctx context.Context, sessionID string) error {
	delete(c.entries, sessionID)
	return nil
}

var _ services.LocationCache = (*memoryLocationCache)(nil)
