package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/printsetu/printsetu/app/dto"
	businessflow "github.com/printsetu/printsetu/business_flow"
	"github.com/printsetu/printsetu/utils"
)

// PricingAdminHandlerInterface defines admin endpoints for pricing data.
type PricingAdminHandlerInterface interface {
	UpsertPriceEntry(c fiber.Ctx) error
	CreateModifier(c fiber.Ctx) error
	SetModifierActive(c fiber.Ctx) error
	CreateSegment(c fiber.Ctx) error
	ListSegments(c fiber.Ctx) error
	CreateZone(c fiber.Ctx) error
	UpsertAvailabilityRule(c fiber.Ctx) error
	ExportPriceBook(c fiber.Ctx) error
}

// PricingAdminHandler implements admin endpoints for pricing data.
type PricingAdminHandler struct {
	flow      businessflow.PricingAdminFlow
	validator *validator.Validate
}

func NewPricingAdminHandler(flow businessflow.PricingAdminFlow) PricingAdminHandlerInterface {
	return &PricingAdminHandler{
		flow:      flow,
		validator: newValidator(),
	}
}

func (h *PricingAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.Fail(message, code, details))
}

func (h *PricingAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.OK(message, data))
}

// UpsertPriceEntry creates or replaces one price book layer for a product.
// @Summary Upsert Price Entry (Admin)
// @Description Replace the active MASTER, ZONE, or SEGMENT price entry for a product
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Param request body dto.UpsertPriceEntryRequest true "Price entry payload"
// @Success 200 {object} dto.APIResponse "Entry saved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Product, zone, or segment not found"
// @Failure 500 {object} dto.APIResponse "Upsert failed"
// @Router /api/v1/admin/pricing/entries [post]
func (h *PricingAdminHandler) UpsertPriceEntry(c fiber.Ctx) error {
	var req dto.UpsertPriceEntryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	entry, err := h.flow.UpsertPriceEntry(h.createRequestContext(c, "/api/v1/admin/pricing/entries"), &req, h.metadata(c))
	if err != nil {
		if businessflow.IsScopeKeyRequired(err) || businessflow.IsScopeTypeInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid scope", "INVALID_SCOPE", nil)
		}
		if businessflow.IsProductNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND", nil)
		}
		if businessflow.IsZoneNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Zone not found", "ZONE_NOT_FOUND", nil)
		}
		if businessflow.IsSegmentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Segment not found", "SEGMENT_NOT_FOUND", nil)
		}
		log.Println("Upsert price entry failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Upsert price entry failed", "PRICE_ENTRY_UPSERT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Price entry saved", entry)
}

// CreateModifier defines a new price modifier.
// @Summary Create Price Modifier (Admin)
// @Description Create a percent or flat modifier with an optional active window and zone restriction
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Param request body dto.CreateModifierRequest true "Modifier payload"
// @Success 200 {object} dto.APIResponse "Modifier created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Product or zone not found"
// @Failure 500 {object} dto.APIResponse "Creation failed"
// @Router /api/v1/admin/pricing/modifiers [post]
func (h *PricingAdminHandler) CreateModifier(c fiber.Ctx) error {
	var req dto.CreateModifierRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	modifier, err := h.flow.CreateModifier(h.createRequestContext(c, "/api/v1/admin/pricing/modifiers"), &req, h.metadata(c))
	if err != nil {
		if businessflow.IsModifierKindInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid modifier kind", "INVALID_KIND", nil)
		}
		if businessflow.IsProductNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND", nil)
		}
		if businessflow.IsZoneNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Zone not found", "ZONE_NOT_FOUND", nil)
		}
		var be *businessflow.BusinessError
		if errors.As(err, &be) && be.Code == "INVALID_WINDOW" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Active window bounds must be RFC 3339 timestamps", "INVALID_WINDOW", nil)
		}
		log.Println("Create modifier failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create modifier failed", "MODIFIER_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Modifier created", modifier)
}

// SetModifierActive toggles a modifier on or off.
// @Summary Toggle Price Modifier (Admin)
// @Description Activate or deactivate a modifier by ID
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Param id path int true "Modifier ID"
// @Param request body dto.SetModifierActiveRequest true "Activation state"
// @Success 200 {object} dto.APIResponse "Modifier updated"
// @Failure 400 {object} dto.APIResponse "Invalid modifier ID"
// @Failure 404 {object} dto.APIResponse "Modifier not found"
// @Failure 500 {object} dto.APIResponse "Update failed"
// @Router /api/v1/admin/pricing/modifiers/{id}/active [put]
func (h *PricingAdminHandler) SetModifierActive(c fiber.Ctx) error {
	modifierID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid modifier ID", "INVALID_MODIFIER_ID", nil)
	}

	var req dto.SetModifierActiveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.flow.SetModifierActive(h.createRequestContext(c, "/api/v1/admin/pricing/modifiers/:id/active"), uint(modifierID), req.IsActive, h.metadata(c)); err != nil {
		if businessflow.IsModifierNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Modifier not found", "MODIFIER_NOT_FOUND", nil)
		}
		log.Println("Set modifier active failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Set modifier active failed", "MODIFIER_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Modifier updated", nil)
}

// CreateSegment adds a customer segment.
// @Summary Create Customer Segment (Admin)
// @Description Create a segment; flagging it default clears the previous default
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Param request body dto.CreateSegmentRequest true "Segment payload"
// @Success 200 {object} dto.APIResponse "Segment created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Segment code already exists"
// @Failure 500 {object} dto.APIResponse "Creation failed"
// @Router /api/v1/admin/pricing/segments [post]
func (h *PricingAdminHandler) CreateSegment(c fiber.Ctx) error {
	var req dto.CreateSegmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	segment, err := h.flow.CreateSegment(h.createRequestContext(c, "/api/v1/admin/pricing/segments"), &req, h.metadata(c))
	if err != nil {
		if businessflow.IsSegmentCodeExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Segment code already exists", "SEGMENT_CODE_EXISTS", nil)
		}
		log.Println("Create segment failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create segment failed", "SEGMENT_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Segment created", segment)
}

// ListSegments returns all customer segments.
// @Summary List Customer Segments (Admin)
// @Description List every segment including inactive ones
// @Tags Admin Pricing
// @Produce json
// @Success 200 {object} dto.APIResponse "Segments retrieved"
// @Failure 500 {object} dto.APIResponse "List failed"
// @Router /api/v1/admin/pricing/segments [get]
func (h *PricingAdminHandler) ListSegments(c fiber.Ctx) error {
	segments, err := h.flow.ListSegments(h.createRequestContext(c, "/api/v1/admin/pricing/segments"))
	if err != nil {
		log.Println("List segments failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List segments failed", "SEGMENT_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Segments retrieved", segments)
}

// CreateZone adds a node to the geographic zone tree.
// @Summary Create Geo Zone (Admin)
// @Description Create a zone; non-country zones must reference an existing parent
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Param request body dto.CreateZoneRequest true "Zone payload"
// @Success 200 {object} dto.APIResponse "Zone created"
// @Failure 400 {object} dto.APIResponse "Validation error or missing parent"
// @Failure 500 {object} dto.APIResponse "Creation failed"
// @Router /api/v1/admin/pricing/zones [post]
func (h *PricingAdminHandler) CreateZone(c fiber.Ctx) error {
	var req dto.CreateZoneRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	zone, err := h.flow.CreateZone(h.createRequestContext(c, "/api/v1/admin/pricing/zones"), &req, h.metadata(c))
	if err != nil {
		if businessflow.IsParentZoneNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Parent zone not found", "PARENT_NOT_FOUND", nil)
		}
		if businessflow.IsPincodeInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Pincode zones require a 6-digit code", "INVALID_PINCODE", nil)
		}
		log.Println("Create zone failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create zone failed", "ZONE_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Zone created", zone)
}

// UpsertAvailabilityRule blocks or unblocks a product in a zone.
// @Summary Upsert Availability Rule (Admin)
// @Description Block or unblock a product in a zone with an optional display reason
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Param request body dto.UpsertAvailabilityRuleRequest true "Availability rule payload"
// @Success 200 {object} dto.APIResponse "Rule saved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Product or zone not found"
// @Failure 500 {object} dto.APIResponse "Upsert failed"
// @Router /api/v1/admin/pricing/availability-rules [post]
func (h *PricingAdminHandler) UpsertAvailabilityRule(c fiber.Ctx) error {
	var req dto.UpsertAvailabilityRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	rule, err := h.flow.UpsertAvailabilityRule(h.createRequestContext(c, "/api/v1/admin/pricing/availability-rules"), &req, h.metadata(c))
	if err != nil {
		if businessflow.IsProductNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND", nil)
		}
		if businessflow.IsZoneNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Zone not found", "ZONE_NOT_FOUND", nil)
		}
		log.Println("Upsert availability rule failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Upsert availability rule failed", "AVAILABILITY_UPSERT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Availability rule saved", rule)
}

// ExportPriceBook downloads the active price book as an Excel workbook.
// @Summary Export Price Book (Admin)
// @Description Download all active price entries as an xlsx workbook, one sheet per scope
// @Tags Admin Pricing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {string} string "Excel file"
// @Failure 500 {object} dto.APIResponse "Export failed"
// @Router /api/v1/admin/pricing/export [get]
func (h *PricingAdminHandler) ExportPriceBook(c fiber.Ctx) error {
	filename, data, err := h.flow.ExportPriceBook(h.createRequestContext(c, "/api/v1/admin/pricing/export"))
	if err != nil {
		log.Println("Export price book failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Export price book failed", "EXPORT_FAILED", nil)
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

func (h *PricingAdminHandler) metadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	return metadata
}

func (h *PricingAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PricingAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
