package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/repository"
	"github.com/printsetu/printsetu/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// PricingAdminFlow owns the data the quote pipeline reads: price book
// entries, modifiers, segments, zones, and availability rules.
type PricingAdminFlow interface {
	UpsertPriceEntry(ctx context.Context, req *dto.UpsertPriceEntryRequest, metadata *ClientMetadata) (*models.PriceBookEntry, error)
	CreateModifier(ctx context.Context, req *dto.CreateModifierRequest, metadata *ClientMetadata) (*models.PriceModifier, error)
	SetModifierActive(ctx context.Context, modifierID uint, isActive bool, metadata *ClientMetadata) error
	CreateSegment(ctx context.Context, req *dto.CreateSegmentRequest, metadata *ClientMetadata) (*models.CustomerSegment, error)
	ListSegments(ctx context.Context) ([]*models.CustomerSegment, error)
	CreateZone(ctx context.Context, req *dto.CreateZoneRequest, metadata *ClientMetadata) (*models.GeoZone, error)
	UpsertAvailabilityRule(ctx context.Context, req *dto.UpsertAvailabilityRuleRequest, metadata *ClientMetadata) (*models.AvailabilityRule, error)
	ExportPriceBook(ctx context.Context) (string, []byte, error)
}

// PricingAdminFlowImpl implements PricingAdminFlow
type PricingAdminFlowImpl struct {
	db            *gorm.DB
	productRepo   repository.ProductRepository
	zoneRepo      repository.GeoZoneRepository
	segmentRepo   repository.CustomerSegmentRepository
	priceBookRepo repository.PriceBookRepository
	modifierRepo  repository.PriceModifierRepository
	ruleRepo      repository.AvailabilityRuleRepository
	auditRepo     repository.AuditLogRepository
}

// NewPricingAdminFlow creates a new pricing administration flow
func NewPricingAdminFlow(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	zoneRepo repository.GeoZoneRepository,
	segmentRepo repository.CustomerSegmentRepository,
	priceBookRepo repository.PriceBookRepository,
	modifierRepo repository.PriceModifierRepository,
	ruleRepo repository.AvailabilityRuleRepository,
	auditRepo repository.AuditLogRepository,
) PricingAdminFlow {
	return &PricingAdminFlowImpl{
		db:            db,
		productRepo:   productRepo,
		zoneRepo:      zoneRepo,
		segmentRepo:   segmentRepo,
		priceBookRepo: priceBookRepo,
		modifierRepo:  modifierRepo,
		ruleRepo:      ruleRepo,
		auditRepo:     auditRepo,
	}
}

// UpsertPriceEntry replaces the active entry for one product/scope
// layer. Previous entries are retired, not deleted; the waterfall
// reads only the latest active row per scope.
func (f *PricingAdminFlowImpl) UpsertPriceEntry(ctx context.Context, req *dto.UpsertPriceEntryRequest, metadata *ClientMetadata) (*models.PriceBookEntry, error) {
	switch req.ScopeType {
	case models.PriceScopeMaster:
		if req.ScopeKey != nil {
			return nil, NewBusinessError("INVALID_SCOPE", "master entries carry no scope key", ErrScopeKeyRequired)
		}
	case models.PriceScopeZone, models.PriceScopeSegment:
		if req.ScopeKey == nil {
			return nil, NewBusinessError("INVALID_SCOPE", "scope key is required for zone and segment entries", ErrScopeKeyRequired)
		}
	default:
		return nil, NewBusinessError("INVALID_SCOPE", "invalid scope type", ErrScopeTypeInvalid)
	}

	product, err := f.productRepo.ByID(ctx, req.ProductID)
	if err != nil {
		return nil, NewBusinessError("UPSERT_FAILED", "failed to look up product", err)
	}
	if product == nil {
		return nil, NewBusinessError("PRODUCT_NOT_FOUND", "product not found", ErrProductNotFound)
	}

	if req.ScopeType == models.PriceScopeZone {
		zone, err := f.zoneRepo.ByID(ctx, *req.ScopeKey)
		if err != nil || zone == nil {
			return nil, NewBusinessError("ZONE_NOT_FOUND", "zone not found", ErrZoneNotFound)
		}
	}
	if req.ScopeType == models.PriceScopeSegment {
		segment, err := f.segmentRepo.ByID(ctx, *req.ScopeKey)
		if err != nil || segment == nil {
			return nil, NewBusinessError("SEGMENT_NOT_FOUND", "segment not found", ErrSegmentNotFound)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = product.Currency
	}

	entry := &models.PriceBookEntry{
		ProductID:      req.ProductID,
		ScopeType:      req.ScopeType,
		ScopeKey:       req.ScopeKey,
		UnitPrice:      req.UnitPrice,
		CompareAtPrice: req.CompareAtPrice,
		Currency:       currency,
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNow(),
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.priceBookRepo.DeactivateScope(txCtx, req.ProductID, req.ScopeType, req.ScopeKey); err != nil {
			return err
		}
		return f.priceBookRepo.Save(txCtx, entry)
	})
	if err != nil {
		return nil, NewBusinessError("UPSERT_FAILED", "failed to upsert price entry", err)
	}

	f.audit(ctx, models.AuditActionPriceEntryUpserted, metadata, map[string]any{
		"product_id": req.ProductID,
		"scope_type": req.ScopeType,
		"unit_price": req.UnitPrice,
	})

	return entry, nil
}

// CreateModifier defines a new modifier. The active window bounds are
// RFC 3339 strings on the wire.
func (f *PricingAdminFlowImpl) CreateModifier(ctx context.Context, req *dto.CreateModifierRequest, metadata *ClientMetadata) (*models.PriceModifier, error) {
	switch req.Kind {
	case models.ModifierPercentInc, models.ModifierPercentDec, models.ModifierFlatInc, models.ModifierFlatDec:
	default:
		return nil, NewBusinessError("INVALID_KIND", "invalid modifier kind", ErrModifierKindInvalid)
	}

	activeFrom, err := parseOptionalTime(req.ActiveFrom)
	if err != nil {
		return nil, NewBusinessError("INVALID_WINDOW", "active_from must be RFC 3339", err)
	}
	activeUntil, err := parseOptionalTime(req.ActiveUntil)
	if err != nil {
		return nil, NewBusinessError("INVALID_WINDOW", "active_until must be RFC 3339", err)
	}

	if req.ProductID != nil {
		product, err := f.productRepo.ByID(ctx, *req.ProductID)
		if err != nil || product == nil {
			return nil, NewBusinessError("PRODUCT_NOT_FOUND", "product not found", ErrProductNotFound)
		}
	}
	if req.ZoneID != nil {
		zone, err := f.zoneRepo.ByID(ctx, *req.ZoneID)
		if err != nil || zone == nil {
			return nil, NewBusinessError("ZONE_NOT_FOUND", "zone not found", ErrZoneNotFound)
		}
	}

	modifier := &models.PriceModifier{
		Name:        req.Name,
		ProductID:   req.ProductID,
		Kind:        req.Kind,
		Value:       req.Value,
		Priority:    req.Priority,
		ActiveFrom:  activeFrom,
		ActiveUntil: activeUntil,
		ZoneID:      req.ZoneID,
		IsActive:    utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	if err := f.modifierRepo.Save(ctx, modifier); err != nil {
		return nil, NewBusinessError("CREATE_FAILED", "failed to create modifier", err)
	}

	f.audit(ctx, models.AuditActionModifierChanged, metadata, map[string]any{
		"modifier": req.Name,
		"kind":     req.Kind,
		"value":    req.Value,
	})

	return modifier, nil
}

// SetModifierActive toggles a modifier on or off.
func (f *PricingAdminFlowImpl) SetModifierActive(ctx context.Context, modifierID uint, isActive bool, metadata *ClientMetadata) error {
	modifier, err := f.modifierRepo.ByID(ctx, modifierID)
	if err != nil {
		return NewBusinessError("UPDATE_FAILED", "failed to look up modifier", err)
	}
	if modifier == nil {
		return NewBusinessError("MODIFIER_NOT_FOUND", "modifier not found", ErrModifierNotFound)
	}

	if err := f.modifierRepo.SetActive(ctx, modifierID, isActive); err != nil {
		return NewBusinessError("UPDATE_FAILED", "failed to update modifier", err)
	}

	f.audit(ctx, models.AuditActionModifierChanged, metadata, map[string]any{
		"modifier_id": modifierID,
		"is_active":   isActive,
	})

	return nil
}

// CreateSegment adds a segment. When the new segment is flagged
// default, the previous default is cleared in the same transaction so
// at most one active default ever exists.
func (f *PricingAdminFlowImpl) CreateSegment(ctx context.Context, req *dto.CreateSegmentRequest, metadata *ClientMetadata) (*models.CustomerSegment, error) {
	existing, err := f.segmentRepo.ByCode(ctx, req.Code)
	if err != nil {
		return nil, NewBusinessError("CREATE_FAILED", "failed to check segment code", err)
	}
	if existing != nil {
		return nil, NewBusinessError("SEGMENT_CODE_EXISTS", "segment code already exists", ErrSegmentCodeExists)
	}

	segment := &models.CustomerSegment{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		PricingTier: req.PricingTier,
		IsDefault:   utils.ToPtr(req.IsDefault),
		IsActive:    utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.segmentRepo.Save(txCtx, segment); err != nil {
			return err
		}
		if req.IsDefault {
			return f.segmentRepo.ClearDefault(txCtx, segment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("CREATE_FAILED", "failed to create segment", err)
	}

	f.audit(ctx, models.AuditActionSegmentChanged, metadata, map[string]any{
		"code":       req.Code,
		"is_default": req.IsDefault,
	})

	return segment, nil
}

// ListSegments returns all segments ordered by pricing tier.
func (f *PricingAdminFlowImpl) ListSegments(ctx context.Context) ([]*models.CustomerSegment, error) {
	return f.segmentRepo.ByFilter(ctx, models.CustomerSegmentFilter{}, "", 0, 0)
}

// CreateZone adds a node to the zone tree. Non-country zones must name
// an existing parent so the tree stays connected.
func (f *PricingAdminFlowImpl) CreateZone(ctx context.Context, req *dto.CreateZoneRequest, metadata *ClientMetadata) (*models.GeoZone, error) {
	if req.Level != models.ZoneLevelCountry {
		if req.ParentID == nil {
			return nil, NewBusinessError("PARENT_REQUIRED", "non-country zones require a parent", ErrParentZoneNotFound)
		}
		parent, err := f.zoneRepo.ByID(ctx, *req.ParentID)
		if err != nil || parent == nil {
			return nil, NewBusinessError("PARENT_NOT_FOUND", "parent zone not found", ErrParentZoneNotFound)
		}
	}
	if req.Level == models.ZoneLevelPincode {
		if req.Code == nil || ValidatePincode(*req.Code) != nil {
			return nil, NewBusinessError("INVALID_PINCODE", "pincode zones require a 6-digit code", ErrPincodeInvalid)
		}
	}

	zone := &models.GeoZone{
		Name:      req.Name,
		Level:     req.Level,
		Code:      req.Code,
		ParentID:  req.ParentID,
		IsActive:  utils.ToPtr(true),
		CreatedAt: utils.UTCNow(),
		UpdatedAt: utils.UTCNow(),
	}

	if err := f.zoneRepo.Save(ctx, zone); err != nil {
		return nil, NewBusinessError("CREATE_FAILED", "failed to create zone", err)
	}

	f.audit(ctx, models.AuditActionZoneCreated, metadata, map[string]any{
		"name":  req.Name,
		"level": req.Level,
	})

	return zone, nil
}

// UpsertAvailabilityRule blocks or unblocks a product in a zone.
func (f *PricingAdminFlowImpl) UpsertAvailabilityRule(ctx context.Context, req *dto.UpsertAvailabilityRuleRequest, metadata *ClientMetadata) (*models.AvailabilityRule, error) {
	product, err := f.productRepo.ByID(ctx, req.ProductID)
	if err != nil || product == nil {
		return nil, NewBusinessError("PRODUCT_NOT_FOUND", "product not found", ErrProductNotFound)
	}
	zone, err := f.zoneRepo.ByID(ctx, req.ZoneID)
	if err != nil || zone == nil {
		return nil, NewBusinessError("ZONE_NOT_FOUND", "zone not found", ErrZoneNotFound)
	}

	rule := &models.AvailabilityRule{
		ProductID: req.ProductID,
		ZoneID:    req.ZoneID,
		Reason:    req.Reason,
		IsActive:  utils.ToPtr(req.IsActive),
		CreatedAt: utils.UTCNow(),
		UpdatedAt: utils.UTCNow(),
	}

	if err := f.ruleRepo.Save(ctx, rule); err != nil {
		return nil, NewBusinessError("UPSERT_FAILED", "failed to save availability rule", err)
	}

	f.audit(ctx, models.AuditActionAvailabilityChanged, metadata, map[string]any{
		"product_id": req.ProductID,
		"zone_id":    req.ZoneID,
		"is_active":  req.IsActive,
	})

	return rule, nil
}

// ExportPriceBook writes the active price book to an Excel workbook,
// one sheet per scope type.
func (f *PricingAdminFlowImpl) ExportPriceBook(ctx context.Context) (string, []byte, error) {
	entries, err := f.priceBookRepo.ByFilter(ctx, models.PriceBookEntryFilter{IsActive: utils.ToPtr(true)}, "product_id ASC, scope_type ASC, id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "failed to fetch price book", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	scopes := []string{models.PriceScopeMaster, models.PriceScopeZone, models.PriceScopeSegment}
	byScope := make(map[string][]*models.PriceBookEntry)
	for _, entry := range entries {
		byScope[entry.ScopeType] = append(byScope[entry.ScopeType], entry)
	}

	sheetNames := map[string]string{
		models.PriceScopeMaster:  "Master",
		models.PriceScopeZone:    "Zone",
		models.PriceScopeSegment: "Segment",
	}

	for i, scope := range scopes {
		name := sanitizeSheetName(sheetNames[scope])
		if i == 0 {
			xl.SetSheetName(xl.GetSheetName(0), name)
		} else {
			_, _ = xl.NewSheet(name)
		}

		header := []string{"id", "product_id", "scope_key", "unit_price", "compare_at_price", "currency", "created_at"}
		_ = xl.SetSheetRow(name, "A1", &header)

		for ri, entry := range byScope[scope] {
			scopeKey := ""
			if entry.ScopeKey != nil {
				scopeKey = strconv.FormatUint(uint64(*entry.ScopeKey), 10)
			}
			compareAt := ""
			if entry.CompareAtPrice != nil {
				compareAt = strconv.FormatFloat(*entry.CompareAtPrice, 'f', 2, 64)
			}
			record := []string{
				strconv.FormatUint(uint64(entry.ID), 10),
				strconv.FormatUint(uint64(entry.ProductID), 10),
				scopeKey,
				strconv.FormatFloat(entry.UnitPrice, 'f', 2, 64),
				compareAt,
				entry.Currency,
				entry.CreatedAt.UTC().Format(time.RFC3339),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(name, cellRef, &record)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	f.audit(ctx, models.AuditActionPriceBookExported, nil, map[string]any{
		"entries": len(entries),
	})

	// Ops staff read the export date in local time
	stamp, err := utils.ISTNow()
	if err != nil {
		stamp = utils.UTCNow()
	}
	filename := fmt.Sprintf("price_book_%s.xlsx", stamp.Format("20060102"))
	return filename, buf.Bytes(), nil
}

func (f *PricingAdminFlowImpl) audit(ctx context.Context, action string, metadata *ClientMetadata, payload map[string]any) {
	if f.auditRepo == nil {
		return
	}

	meta, _ := json.Marshal(payload)
	entry := &models.AuditLog{
		Action:    action,
		Metadata:  meta,
		Success:   utils.ToPtr(true),
		CreatedAt: utils.UTCNow(),
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

func parseOptionalTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \\ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := replacer.Replace(name)
	return truncateSheetName(strings.TrimSpace(safe))
}

func truncateSheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	if name == "" {
		return "Sheet"
	}
	return name
}
