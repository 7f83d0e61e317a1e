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

// LocationHandlerInterface defines the contract for location handlers
type LocationHandlerInterface interface {
	Detect(c fiber.Ctx) error
	ReverseGeocode(c fiber.Ctx) error
	SubmitPincode(c fiber.Ctx) error
	Forget(c fiber.Ctx) error
}

// LocationHandler handles location resolution HTTP requests
type LocationHandler struct {
	locationFlow businessflow.LocationFlow
	validator    *validator.Validate
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationFlow businessflow.LocationFlow) LocationHandlerInterface {
	return &LocationHandler{
		locationFlow: locationFlow,
		validator:    newValidator(),
	}
}

func (h *LocationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LocationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Detect runs the server-side resolution pass: cached signal first,
// then IP detection. A MANUAL_WAIT outcome means the client should
// prompt for a pincode; it is not an error.
// @Summary Detect Location
// @Description Resolve the session's location from cache or client IP
// @Tags Location
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.LocationResolutionDTO}
// @Failure 500 {object} dto.APIResponse "Detection failed"
// @Router /api/v1/location/detect [get]
func (h *LocationHandler) Detect(c fiber.Ctx) error {
	sessionID := h.sessionID(c)
	metadata := h.metadata(c, sessionID)

	res, err := h.locationFlow.Resolve(h.createRequestContext(c, "/api/v1/location/detect"), sessionID, c.IP(), metadata)
	if err != nil {
		log.Println("Location detection failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Location detection failed", "LOCATION_DETECT_FAILED", nil)
	}

	recordResolution(res)

	return h.SuccessResponse(c, fiber.StatusOK, "Location resolution completed", toResolutionDTO(res))
}

// ReverseGeocode resolves client-supplied GPS coordinates to a pincode.
// @Summary Reverse Geocode
// @Description Resolve GPS coordinates to a pincode and cache the result for the session
// @Tags Location
// @Accept json
// @Produce json
// @Param request body dto.ReverseGeocodeRequest true "GPS coordinates"
// @Success 200 {object} dto.APIResponse{data=dto.LocationResolutionDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Reverse geocoding failed"
// @Router /api/v1/location/reverse-geocode [post]
func (h *LocationHandler) ReverseGeocode(c fiber.Ctx) error {
	var req dto.ReverseGeocodeRequest
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

	sessionID := h.sessionID(c)
	metadata := h.metadata(c, sessionID)

	res, err := h.locationFlow.ResolveGPS(h.createRequestContext(c, "/api/v1/location/reverse-geocode"), sessionID, req.Latitude, req.Longitude, metadata)
	if err != nil {
		log.Println("Reverse geocoding failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Reverse geocoding failed", "REVERSE_GEOCODE_FAILED", nil)
	}

	recordResolution(res)

	return h.SuccessResponse(c, fiber.StatusOK, "Location resolution completed", toResolutionDTO(res))
}

// SubmitPincode accepts a manually entered pincode and completes the
// resolution cascade.
// @Summary Submit Manual Pincode
// @Description Validate a user-entered pincode against the zone index and cache it for the session
// @Tags Location
// @Accept json
// @Produce json
// @Param request body dto.ValidatePincodeRequest true "Pincode"
// @Success 200 {object} dto.APIResponse{data=dto.LocationResolutionDTO}
// @Failure 400 {object} dto.APIResponse "Invalid pincode"
// @Failure 404 {object} dto.APIResponse "Pincode not mapped to any zone"
// @Failure 500 {object} dto.APIResponse "Submission failed"
// @Router /api/v1/location/pincode [post]
func (h *LocationHandler) SubmitPincode(c fiber.Ctx) error {
	var req dto.ValidatePincodeRequest
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

	sessionID := h.sessionID(c)
	metadata := h.metadata(c, sessionID)

	res, err := h.locationFlow.SubmitManualPincode(h.createRequestContext(c, "/api/v1/location/pincode"), sessionID, req.Pincode, metadata)
	if err != nil {
		if businessflow.IsPincodeInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Pincode must be a 6-digit Indian postal code", "INVALID_PINCODE", nil)
		}
		if businessflow.IsZoneNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Pincode is not mapped to any serviceable zone", "ZONE_NOT_FOUND", nil)
		}
		log.Println("Pincode submission failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Pincode submission failed", "PINCODE_SUBMIT_FAILED", nil)
	}

	recordResolution(res)

	return h.SuccessResponse(c, fiber.StatusOK, "Pincode accepted", toResolutionDTO(res))
}

// Forget drops the session's cached location signal.
// @Summary Forget Location
// @Description Remove the cached location so the next detection pass starts fresh
// @Tags Location
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse "Forget failed"
// @Router /api/v1/location [delete]
func (h *LocationHandler) Forget(c fiber.Ctx) error {
	sessionID := h.sessionID(c)

	if err := h.locationFlow.ForgetLocation(h.createRequestContext(c, "/api/v1/location"), sessionID); err != nil {
		log.Println("Forget location failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Forget location failed", "LOCATION_FORGET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Location forgotten", nil)
}

func (h *LocationHandler) sessionID(c fiber.Ctx) string {
	if sid := c.Get("X-Session-ID"); sid != "" {
		return sid
	}
	return c.IP()
}

func (h *LocationHandler) metadata(c fiber.Ctx, sessionID string) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	metadata.SetSessionID(sessionID)
	return metadata
}

func recordResolution(res *businessflow.LocationResolution) {
	if res == nil {
		return
	}
	if res.IsResolved() && res.DetectedBy != "" {
		middleware.RecordLocationResolution(res.DetectedBy)
	} else {
		middleware.RecordLocationResolution("unresolved")
	}
}

func toResolutionDTO(res *businessflow.LocationResolution) *dto.LocationResolutionDTO {
	if res == nil {
		return nil
	}
	out := &dto.LocationResolutionDTO{
		State:      res.State,
		DetectedBy: res.DetectedBy,
	}
	if res.Signal != nil {
		out.Signal = &dto.LocationSignalDTO{
			Pincode:    res.Signal.Pincode,
			City:       res.Signal.City,
			State:      res.Signal.State,
			Country:    res.Signal.Country,
			Source:     res.Signal.Source,
			ResolvedAt: res.Signal.ResolvedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

func (h *LocationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *LocationHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
