// Package dto contains Data Transfer Objects for API request and response structures
package dto

// The quote surface keeps camelCase JSON keys; storefront clients
// consume these shapes directly.

// AttributeSelectionDTO is one selected dynamic attribute on a quote request
type AttributeSelectionDTO struct {
	Type  string `json:"type" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=255"`
}

// QuoteRequest represents the request payload for a price quote
type QuoteRequest struct {
	ProductID                 string                  `json:"productId" validate:"required,max=255"`
	Quantity                  int                     `json:"quantity" validate:"required,min=1"`
	NumberOfDesigns           int                     `json:"numberOfDesigns" validate:"omitempty,min=1"`
	Pincode                   string                  `json:"pincode" validate:"omitempty,pincode"`
	SelectedDynamicAttributes []AttributeSelectionDTO `json:"selectedDynamicAttributes" validate:"omitempty,dive"`
}

// OverrideStepDTO records one price-book override layer in the quote audit trail
type OverrideStepDTO struct {
	Type         string  `json:"type"`
	Source       string  `json:"source"`
	BeforeAmount float64 `json:"beforeAmount"`
	AfterAmount  float64 `json:"afterAmount"`
}

// AppliedModifierDTO records one applied modifier with before/after amounts
type AppliedModifierDTO struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Value        float64 `json:"value"`
	Priority     int     `json:"priority"`
	BeforeAmount float64 `json:"beforeAmount"`
	AfterAmount  float64 `json:"afterAmount"`
}

// SurchargeDTO itemizes one attribute surcharge included in the subtotal
type SurchargeDTO struct {
	AttributeType  string  `json:"attributeType"`
	AttributeValue string  `json:"attributeValue"`
	Mode           string  `json:"mode"`
	Amount         float64 `json:"amount"`
}

// PricingDTO is the itemized pricing block of a successful quote
type PricingDTO struct {
	BasePrice        float64              `json:"basePrice"`
	UnitPrice        float64              `json:"unitPrice"`
	Subtotal         float64              `json:"subtotal"`
	GSTPercentage    float64              `json:"gstPercentage"`
	GSTAmount        float64              `json:"gstAmount"`
	TotalPayable     float64              `json:"totalPayable"`
	CompareAtPrice   *float64             `json:"compareAtPrice,omitempty"`
	OverrideSteps    []OverrideStepDTO    `json:"overrideSteps"`
	AppliedModifiers []AppliedModifierDTO `json:"appliedModifiers"`
	Surcharges       []SurchargeDTO       `json:"surcharges,omitempty"`
	Currency         string               `json:"currency"`
	CalculatedAt     string               `json:"calculatedAt"`
}

// QuoteMetaDTO describes how segment and zone were resolved for the quote
type QuoteMetaDTO struct {
	UserSegment      string   `json:"userSegment"`
	UserSegmentName  string   `json:"userSegmentName"`
	GeoZone          string   `json:"geoZone,omitempty"`
	Pincode          string   `json:"pincode,omitempty"`
	DetectedBy       string   `json:"detectedBy,omitempty"`
	IsGuest          bool     `json:"isGuest"`
	GeoZoneHierarchy []string `json:"geoZoneHierarchy,omitempty"`
	UsedZoneID       *uint    `json:"usedZoneId,omitempty"`
	UsedZoneName     *string  `json:"usedZoneName,omitempty"`
}

// QuoteResponse is the quote envelope. A successful quote carries
// Pricing and Meta; a region-blocked product carries IsAvailable=false
// with an error code and display message, and never a pricing block.
type QuoteResponse struct {
	Success        bool          `json:"success"`
	Pricing        *PricingDTO   `json:"pricing,omitempty"`
	Meta           *QuoteMetaDTO `json:"meta,omitempty"`
	IsAvailable    *bool         `json:"isAvailable,omitempty"`
	ErrorCode      string        `json:"errorCode,omitempty"`
	Message        string        `json:"message,omitempty"`
	DisplayMessage string        `json:"displayMessage,omitempty"`
}
