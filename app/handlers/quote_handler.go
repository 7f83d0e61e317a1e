package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/app/middleware"
	businessflow "github.com/printsetu/printsetu/business_flow"
	"github.com/printsetu/printsetu/utils"
)

// QuoteHandlerInterface defines the contract for quote handlers
type QuoteHandlerInterface interface {
	GetQuote(c fiber.Ctx) error
}

// QuoteHandler handles price quote HTTP requests
type QuoteHandler struct {
	quoteFlow businessflow.QuoteFlow
	validator *validator.Validate
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteFlow businessflow.QuoteFlow) QuoteHandlerInterface {
	return &QuoteHandler{
		quoteFlow: quoteFlow,
		validator: newValidator(),
	}
}

func (h *QuoteHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// GetQuote computes the payable price for a product, quantity, and
// location. Works for guests and authenticated customers alike.
// @Summary Get Price Quote
// @Description Resolve the unit price through master/zone/segment overrides, apply modifiers and surcharges, and return the GST-inclusive total
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Quote request"
// @Success 200 {object} dto.QuoteResponse "Quote computed or product unavailable in zone"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Product not found"
// @Failure 500 {object} dto.APIResponse "Pricing not configured or internal error"
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) GetQuote(c fiber.Ctx) error {
	var req dto.QuoteRequest
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

	identity := h.identityFromLocals(c)
	sessionID := c.Get("X-Session-ID")
	if sessionID == "" {
		sessionID = c.IP()
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	metadata.SetSessionID(sessionID)

	result, err := h.quoteFlow.GetQuote(h.createRequestContext(c, "/api/v1/quotes"), &req, identity, sessionID, metadata)
	if err != nil {
		if businessflow.IsProductNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND", nil)
		}
		if businessflow.IsProductInactive(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Product is not active", "PRODUCT_INACTIVE", nil)
		}
		if businessflow.IsQuantityInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Quantity must be at least 1", "INVALID_QUANTITY", nil)
		}
		if businessflow.IsDesignsInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Number of designs must be at least 1", "INVALID_DESIGNS", nil)
		}
		if businessflow.IsPincodeInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Pincode must be a 6-digit Indian postal code", "INVALID_PINCODE", nil)
		}
		if businessflow.IsNoMasterPrice(err) {
			// Configuration gap, not a user error
			middleware.RecordQuoteOutcome("no_master_price")
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Pricing is not yet available for this product", "NO_MASTER_PRICE", nil)
		}
		log.Println("Quote failed:", err)
		middleware.RecordQuoteOutcome("failed")
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Quote failed", "QUOTE_FAILED", nil)
	}

	if result.IsAvailable != nil && !*result.IsAvailable {
		middleware.RecordQuoteOutcome("blocked")
	} else {
		middleware.RecordQuoteOutcome("priced")
	}

	// Region-blocked quotes come back as a typed response, not an error
	return c.Status(fiber.StatusOK).JSON(result)
}

// identityFromLocals reads the optional-auth middleware outputs. A
// request with no locals set is a guest.
func (h *QuoteHandler) identityFromLocals(c fiber.Ctx) businessflow.QuoteIdentity {
	identity := businessflow.QuoteIdentity{IsGuest: true}

	if customerID, ok := c.Locals("customer_id").(uint); ok && customerID > 0 {
		identity.CustomerID = utils.ToPtr(customerID)
		identity.IsGuest = false
	}
	if segmentCode, ok := c.Locals("segment_code").(string); ok {
		identity.SegmentCode = segmentCode
	}

	return identity
}

func (h *QuoteHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *QuoteHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
