package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/repository"
	"github.com/printsetu/printsetu/utils"
)

// QuoteIdentity is the caller's resolved identity for pricing: segment
// code from the bearer token when present, guest otherwise.
type QuoteIdentity struct {
	CustomerID  *uint
	SegmentCode string
	IsGuest     bool
}

// QuoteFlow is the stateless quote façade: segment derivation, zone
// resolution, availability check, waterfall invocation, response
// shaping. It holds no mutable state of its own.
type QuoteFlow interface {
	GetQuote(ctx context.Context, req *dto.QuoteRequest, identity QuoteIdentity, sessionID string, metadata *ClientMetadata) (*dto.QuoteResponse, error)
}

// QuoteFlowImpl implements QuoteFlow
type QuoteFlowImpl struct {
	productRepo      repository.ProductRepository
	zoneRepo         repository.GeoZoneRepository
	segmentRepo      repository.CustomerSegmentRepository
	customerRepo     repository.CustomerRepository
	priceBookRepo    repository.PriceBookRepository
	modifierRepo     repository.PriceModifierRepository
	chargeRepo       repository.AttributeChargeRepository
	availabilityRepo repository.AvailabilityRuleRepository
	auditRepo        repository.AuditLogRepository
	locationFlow     LocationFlow
}

// NewQuoteFlow creates a new quote facade flow
func NewQuoteFlow(
	productRepo repository.ProductRepository,
	zoneRepo repository.GeoZoneRepository,
	segmentRepo repository.CustomerSegmentRepository,
	customerRepo repository.CustomerRepository,
	priceBookRepo repository.PriceBookRepository,
	modifierRepo repository.PriceModifierRepository,
	chargeRepo repository.AttributeChargeRepository,
	availabilityRepo repository.AvailabilityRuleRepository,
	auditRepo repository.AuditLogRepository,
	locationFlow LocationFlow,
) QuoteFlow {
	return &QuoteFlowImpl{
		productRepo:      productRepo,
		zoneRepo:         zoneRepo,
		segmentRepo:      segmentRepo,
		customerRepo:     customerRepo,
		priceBookRepo:    priceBookRepo,
		modifierRepo:     modifierRepo,
		chargeRepo:       chargeRepo,
		availabilityRepo: availabilityRepo,
		auditRepo:        auditRepo,
		locationFlow:     locationFlow,
	}
}

// GetQuote produces one deterministic quote, or an availability block,
// for the request. An unmapped pincode degrades to no-zone pricing; a
// missing master price is a configuration gap surfaced as
// ErrNoMasterPrice.
func (f *QuoteFlowImpl) GetQuote(ctx context.Context, req *dto.QuoteRequest, identity QuoteIdentity, sessionID string, metadata *ClientMetadata) (resp *dto.QuoteResponse, err error) {
	defer func() {
		if err == nil {
			return
		}
		var be *BusinessError
		if errors.As(err, &be) || IsNoMasterPrice(err) {
			return
		}
		err = NewBusinessError("QUOTE_FAILED", "failed to generate quote", err)
	}()

	if req.Quantity < 1 {
		return nil, NewBusinessError("INVALID_QUANTITY", "quantity must be at least 1", ErrQuantityInvalid)
	}
	designs := req.NumberOfDesigns
	if designs == 0 {
		designs = 1
	}
	if designs < 1 {
		return nil, NewBusinessError("INVALID_DESIGNS", "number of designs must be at least 1", ErrDesignsInvalid)
	}

	product, err := f.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	segment, err := f.resolveSegment(ctx, identity)
	if err != nil {
		return nil, err
	}

	chain, detectedBy, pincode, err := f.resolveZone(ctx, req.Pincode, sessionID, metadata)
	if err != nil {
		return nil, err
	}

	meta := &dto.QuoteMetaDTO{
		IsGuest:    identity.IsGuest,
		Pincode:    pincode,
		DetectedBy: detectedBy,
	}
	if segment != nil {
		meta.UserSegment = segment.Code
		meta.UserSegmentName = segment.Name
	}
	if leaf := chain.Leaf(); leaf != nil {
		meta.GeoZone = leaf.Name
		meta.GeoZoneHierarchy = chain.Names()
	}

	// Region availability short-circuits before any price resolution.
	if len(chain) > 0 {
		rule, ruleErr := f.availabilityRepo.BlockingRule(ctx, product.ID, chain.IDs())
		if ruleErr != nil {
			err = ruleErr
			return nil, err
		}
		if rule != nil {
			f.audit(ctx, models.AuditActionQuoteBlocked, identity, req, metadata, map[string]any{
				"zone_id": rule.ZoneID,
				"reason":  rule.Reason,
			})
			return blockedResponse(rule), nil
		}
	}

	master, err := f.priceBookRepo.MasterByProduct(ctx, product.ID, product.Currency)
	if err != nil {
		return nil, err
	}
	if master == nil {
		f.audit(ctx, models.AuditActionQuoteFailed, identity, req, metadata, map[string]any{
			"reason": "no_master_price",
		})
		err = ErrNoMasterPrice
		return nil, err
	}

	zoneOverrides, err := f.priceBookRepo.ZoneOverrides(ctx, product.ID, chain.IDs())
	if err != nil {
		return nil, err
	}

	var segmentOverride *models.PriceBookEntry
	if segment != nil {
		segmentOverride, err = f.priceBookRepo.SegmentOverride(ctx, product.ID, segment.ID)
		if err != nil {
			return nil, err
		}
	}

	resolved, err := ResolveUnitPrice(master, zoneOverrides, chain, segmentOverride)
	if err != nil {
		return nil, err
	}
	meta.UsedZoneID = resolved.UsedZoneID
	meta.UsedZoneName = resolved.UsedZoneName

	now := utils.UTCNow()
	modifiers, err := f.modifierRepo.ListActiveForProduct(ctx, product.ID, now)
	if err != nil {
		return nil, err
	}

	charges, err := f.chargeRepo.ForSelections(ctx, product.ID, toSelections(req.SelectedDynamicAttributes))
	if err != nil {
		return nil, err
	}

	quote, err := BuildQuote(QuoteInput{
		Resolved:        resolved,
		Modifiers:       modifiers,
		Charges:         charges,
		Chain:           chain,
		Quantity:        req.Quantity,
		NumberOfDesigns: designs,
		GSTPercentage:   product.GSTPercentage,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	f.audit(ctx, models.AuditActionQuoteGenerated, identity, req, metadata, map[string]any{
		"total_payable": quote.TotalPayable,
		"currency":      quote.Currency,
		"pincode":       pincode,
	})

	return &dto.QuoteResponse{
		Success: true,
		Pricing: toPricingDTO(quote),
		Meta:    meta,
	}, nil
}

// findProduct accepts either the catalog slug or a numeric id.
func (f *QuoteFlowImpl) findProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := f.productRepo.BySlug(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		if id, convErr := strconv.ParseUint(productID, 10, 32); convErr == nil {
			product, err = f.productRepo.ByID(ctx, uint(id))
			if err != nil {
				return nil, err
			}
		}
	}
	if product == nil {
		return nil, NewBusinessErrorf("PRODUCT_NOT_FOUND", "product %q not found", ErrProductNotFound, productID)
	}
	if product.IsActive != nil && !*product.IsActive {
		return nil, NewBusinessError("PRODUCT_INACTIVE", "product is inactive", ErrProductInactive)
	}
	return product, nil
}

// resolveSegment picks the pricing segment: the authenticated
// customer's segment when known, the active default otherwise. A
// missing default is tolerated; pricing then runs without a segment
// override.
func (f *QuoteFlowImpl) resolveSegment(ctx context.Context, identity QuoteIdentity) (*models.CustomerSegment, error) {
	if identity.SegmentCode != "" {
		segment, err := f.segmentRepo.ByCode(ctx, identity.SegmentCode)
		if err != nil {
			return nil, err
		}
		if segment != nil && segment.Active() {
			return segment, nil
		}
	}

	if identity.CustomerID != nil {
		customer, err := f.customerRepo.ByID(ctx, *identity.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer != nil && customer.SegmentID != nil {
			segment, err := f.segmentRepo.ByID(ctx, *customer.SegmentID)
			if err != nil {
				return nil, err
			}
			if segment != nil && segment.Active() {
				return segment, nil
			}
		}
	}

	return f.segmentRepo.DefaultSegment(ctx)
}

// resolveZone maps an explicit pincode, or the server-side location
// cascade, to a zone chain. Resolution misses are not errors: an
// unmapped pincode or an unresolved cascade both degrade to an empty
// chain.
func (f *QuoteFlowImpl) resolveZone(ctx context.Context, explicitPincode, sessionID string, metadata *ClientMetadata) (models.ZoneChain, string, string, error) {
	pincode := explicitPincode
	detectedBy := models.LocationSourceManual

	if pincode == "" {
		ip := ""
		if metadata != nil {
			ip = metadata.IPAddress
		}
		resolution, err := f.locationFlow.Resolve(ctx, sessionID, ip, metadata)
		if err != nil {
			return nil, "", "", err
		}
		if !resolution.IsResolved() {
			return nil, "", "", nil
		}
		pincode = resolution.Signal.Pincode
		detectedBy = resolution.DetectedBy
	}

	zone, err := f.zoneRepo.ByPincode(ctx, pincode)
	if err != nil {
		return nil, "", "", err
	}
	if zone == nil {
		// Zone unknown: price without overrides rather than failing.
		return nil, detectedBy, pincode, nil
	}

	chain, err := f.zoneRepo.AncestorChain(ctx, zone.ID)
	if err != nil {
		return nil, "", "", err
	}

	return chain, detectedBy, pincode, nil
}

func (f *QuoteFlowImpl) audit(ctx context.Context, action string, identity QuoteIdentity, req *dto.QuoteRequest, metadata *ClientMetadata, extra map[string]any) {
	if f.auditRepo == nil {
		return
	}

	payload := map[string]any{
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
		"is_guest":   identity.IsGuest,
	}
	for k, v := range extra {
		payload[k] = v
	}
	meta, _ := json.Marshal(payload)

	entry := &models.AuditLog{
		CustomerID:  identity.CustomerID,
		Action:      action,
		Description: utils.ToPtr(fmt.Sprintf("quote for product %s", req.ProductID)),
		Metadata:    meta,
		Success:     utils.ToPtr(action == models.AuditActionQuoteGenerated),
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

func blockedResponse(rule *models.AvailabilityRule) *dto.QuoteResponse {
	zoneName := ""
	if rule.Zone != nil {
		zoneName = rule.Zone.Name
	}
	message := fmt.Sprintf("product is not available in %s", zoneName)
	if rule.Reason != nil && *rule.Reason != "" {
		message = *rule.Reason
	}
	display := "This product is currently not available for delivery in your area."
	if zoneName != "" {
		display = fmt.Sprintf("This product is currently not available for delivery in %s.", zoneName)
	}
	return &dto.QuoteResponse{
		Success:        false,
		IsAvailable:    utils.ToPtr(false),
		ErrorCode:      "PRODUCT_NOT_AVAILABLE",
		Message:        message,
		DisplayMessage: display,
	}
}

func toSelections(in []dto.AttributeSelectionDTO) []models.AttributeSelection {
	out := make([]models.AttributeSelection, 0, len(in))
	for _, s := range in {
		out = append(out, models.AttributeSelection{Type: s.Type, Value: s.Value})
	}
	return out
}

func toPricingDTO(quote *PriceQuote) *dto.PricingDTO {
	steps := make([]dto.OverrideStepDTO, 0, len(quote.OverrideSteps))
	for _, s := range quote.OverrideSteps {
		steps = append(steps, dto.OverrideStepDTO{
			Type:         s.Type,
			Source:       s.Source,
			BeforeAmount: s.BeforeAmount,
			AfterAmount:  s.AfterAmount,
		})
	}

	modifiers := make([]dto.AppliedModifierDTO, 0, len(quote.AppliedModifiers))
	for _, m := range quote.AppliedModifiers {
		modifiers = append(modifiers, dto.AppliedModifierDTO{
			ID:           m.ID,
			Name:         m.Name,
			Kind:         m.Kind,
			Value:        m.Value,
			Priority:     m.Priority,
			BeforeAmount: m.BeforeAmount,
			AfterAmount:  m.AfterAmount,
		})
	}

	surcharges := make([]dto.SurchargeDTO, 0, len(quote.Surcharges))
	for _, s := range quote.Surcharges {
		surcharges = append(surcharges, dto.SurchargeDTO{
			AttributeType:  s.AttributeType,
			AttributeValue: s.AttributeValue,
			Mode:           s.Mode,
			Amount:         s.Amount,
		})
	}

	return &dto.PricingDTO{
		BasePrice:        quote.BasePrice,
		UnitPrice:        quote.UnitPrice,
		Subtotal:         quote.Subtotal,
		GSTPercentage:    quote.GSTPercentage,
		GSTAmount:        quote.GSTAmount,
		TotalPayable:     quote.TotalPayable,
		CompareAtPrice:   quote.CompareAtPrice,
		OverrideSteps:    steps,
		AppliedModifiers: modifiers,
		Surcharges:       surcharges,
		Currency:         quote.Currency,
		CalculatedAt:     quote.CalculatedAt.Format(time.RFC3339),
	}
}
