package businessflow

import (
	"math"
	"sort"
	"time"

	"github.com/printsetu/printsetu/models"
)

// Override step types recorded on the audit trail.
const (
	OverrideStepMaster  = "MASTER"
	OverrideStepZone    = "ZONE"
	OverrideStepSegment = "SEGMENT"
)

// Round2 rounds a monetary amount to 2 decimal places, half away from
// zero. Rounding happens once at subtotal and once at GST, never per
// modifier, so intermediate steps carry full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// OverrideStep records one layer of the price override waterfall.
type OverrideStep struct {
	Type         string  `json:"type"`
	Source       string  `json:"source"`
	BeforeAmount float64 `json:"before_amount"`
	AfterAmount  float64 `json:"after_amount"`
}

// AppliedModifier records one modifier application with its before and
// after unit amounts.
type AppliedModifier struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Value        float64 `json:"value"`
	Priority     int     `json:"priority"`
	BeforeAmount float64 `json:"before_amount"`
	AfterAmount  float64 `json:"after_amount"`
}

// AttributeSurcharge itemizes one attribute charge included in the
// subtotal.
type AttributeSurcharge struct {
	AttributeType  string  `json:"attribute_type"`
	AttributeValue string  `json:"attribute_value"`
	Mode           string  `json:"mode"`
	Amount         float64 `json:"amount"`
}

// ResolvedPrice is the unit price after the override waterfall, before
// modifiers.
type ResolvedPrice struct {
	UnitPrice      float64
	Currency       string
	CompareAtPrice *float64
	Steps          []OverrideStep
	// UsedZoneID is set when a zone override fired.
	UsedZoneID   *uint
	UsedZoneName *string
}

// PriceQuote is a fully itemized, reproducible quote.
type PriceQuote struct {
	BasePrice        float64              `json:"base_price"`
	UnitPrice        float64              `json:"unit_price"`
	Subtotal         float64              `json:"subtotal"`
	GSTPercentage    float64              `json:"gst_percentage"`
	GSTAmount        float64              `json:"gst_amount"`
	TotalPayable     float64              `json:"total_payable"`
	CompareAtPrice   *float64             `json:"compare_at_price,omitempty"`
	OverrideSteps    []OverrideStep       `json:"override_steps"`
	AppliedModifiers []AppliedModifier    `json:"applied_modifiers"`
	Surcharges       []AttributeSurcharge `json:"surcharges,omitempty"`
	Currency         string               `json:"currency"`
	CalculatedAt     time.Time            `json:"calculated_at"`
}

// ResolveUnitPrice walks the price override waterfall: MASTER, then the
// most specific matching ZONE entry in the chain, then the SEGMENT
// entry. The zone walk stops at the first match; the segment override
// is applied after the zone one and therefore wins when both exist.
// Absence of an override layer falls through silently; a missing
// master is a configuration gap, returned as ErrNoMasterPrice.
func ResolveUnitPrice(master *models.PriceBookEntry, zoneOverrides map[uint]*models.PriceBookEntry, chain models.ZoneChain, segmentOverride *models.PriceBookEntry) (*ResolvedPrice, error) {
	if master == nil {
		return nil, ErrNoMasterPrice
	}

	resolved := &ResolvedPrice{
		UnitPrice:      master.UnitPrice,
		Currency:       master.Currency,
		CompareAtPrice: master.CompareAtPrice,
		Steps: []OverrideStep{
			{
				Type:         OverrideStepMaster,
				Source:       "master",
				BeforeAmount: master.UnitPrice,
				AfterAmount:  master.UnitPrice,
			},
		},
	}

	// Most specific zone wins; stop at the first chain entry that has
	// an override.
	for i := range chain {
		zone := chain[i]
		entry, ok := zoneOverrides[zone.ID]
		if !ok {
			continue
		}
		resolved.Steps = append(resolved.Steps, OverrideStep{
			Type:         OverrideStepZone,
			Source:       zone.Name,
			BeforeAmount: resolved.UnitPrice,
			AfterAmount:  entry.UnitPrice,
		})
		resolved.UnitPrice = entry.UnitPrice
		resolved.UsedZoneID = &chain[i].ID
		resolved.UsedZoneName = &chain[i].Name
		if entry.CompareAtPrice != nil {
			resolved.CompareAtPrice = entry.CompareAtPrice
		}
		break
	}

	if segmentOverride != nil {
		resolved.Steps = append(resolved.Steps, OverrideStep{
			Type:         OverrideStepSegment,
			Source:       "segment",
			BeforeAmount: resolved.UnitPrice,
			AfterAmount:  segmentOverride.UnitPrice,
		})
		resolved.UnitPrice = segmentOverride.UnitPrice
		if segmentOverride.CompareAtPrice != nil {
			resolved.CompareAtPrice = segmentOverride.CompareAtPrice
		}
	}

	return resolved, nil
}

// ApplyModifiers applies eligible modifiers to the unit price in
// ascending priority order (ties broken by id so application is
// deterministic regardless of input order). A modifier is eligible
// when its active window contains now and its zone restriction, if
// any, is satisfied by the resolved chain.
func ApplyModifiers(unitPrice float64, modifiers []*models.PriceModifier, chain models.ZoneChain, now time.Time) (float64, []AppliedModifier) {
	eligible := make([]*models.PriceModifier, 0, len(modifiers))
	for _, m := range modifiers {
		if !m.WindowContains(now) {
			continue
		}
		if !m.AppliesToZone(chain) {
			continue
		}
		eligible = append(eligible, m)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		return eligible[i].ID < eligible[j].ID
	})

	applied := make([]AppliedModifier, 0, len(eligible))
	running := unitPrice
	for _, m := range eligible {
		before := running
		switch m.Kind {
		case models.ModifierPercentInc:
			running = running * (1 + m.Value/100)
		case models.ModifierPercentDec:
			running = running * (1 - m.Value/100)
		case models.ModifierFlatInc:
			running = running + m.Value
		case models.ModifierFlatDec:
			running = running - m.Value
		default:
			continue
		}
		applied = append(applied, AppliedModifier{
			ID:           m.ID,
			Name:         m.Name,
			Kind:         m.Kind,
			Value:        m.Value,
			Priority:     m.Priority,
			BeforeAmount: before,
			AfterAmount:  running,
		})
	}

	return running, applied
}

// QuoteInput carries everything BuildQuote needs; it is a pure
// computation over already-fetched data.
type QuoteInput struct {
	Resolved        *ResolvedPrice
	Modifiers       []*models.PriceModifier
	Charges         []*models.AttributeCharge
	Chain           models.ZoneChain
	Quantity        int
	NumberOfDesigns int
	GSTPercentage   float64
	Now             time.Time
}

// BuildQuote runs the waterfall from resolved unit price to total:
// modifiers, attribute surcharges, quantity and design scaling, GST.
// Surcharges are computed here, engine-side; client recomputation is
// presentation only.
func BuildQuote(in QuoteInput) (*PriceQuote, error) {
	if in.Resolved == nil {
		return nil, ErrNoMasterPrice
	}
	if in.Quantity < 1 {
		return nil, ErrQuantityInvalid
	}
	if in.NumberOfDesigns < 1 {
		return nil, ErrDesignsInvalid
	}

	unitAfter, applied := ApplyModifiers(in.Resolved.UnitPrice, in.Modifiers, in.Chain, in.Now)

	units := float64(in.Quantity) * float64(in.NumberOfDesigns)

	surcharges := make([]AttributeSurcharge, 0, len(in.Charges))
	var surchargeTotal float64
	for _, c := range in.Charges {
		amount := c.Amount
		if c.Mode == models.ChargeModePerUnit {
			amount = c.Amount * units
		}
		surcharges = append(surcharges, AttributeSurcharge{
			AttributeType:  c.AttributeType,
			AttributeValue: c.AttributeValue,
			Mode:           c.Mode,
			Amount:         Round2(amount),
		})
		surchargeTotal += amount
	}

	subtotal := Round2(unitAfter*units) + Round2(surchargeTotal)
	gstAmount := Round2(subtotal * in.GSTPercentage / 100)
	totalPayable := Round2(subtotal + gstAmount)

	quote := &PriceQuote{
		BasePrice:        in.Resolved.UnitPrice,
		UnitPrice:        unitAfter,
		Subtotal:         subtotal,
		GSTPercentage:    in.GSTPercentage,
		GSTAmount:        gstAmount,
		TotalPayable:     totalPayable,
		OverrideSteps:    in.Resolved.Steps,
		AppliedModifiers: applied,
		Surcharges:       surcharges,
		Currency:         in.Resolved.Currency,
		CalculatedAt:     in.Now,
	}

	// Compare-at is display-only; pass it through untouched and only
	// when it actually exceeds the payable total.
	if in.Resolved.CompareAtPrice != nil && *in.Resolved.CompareAtPrice > totalPayable {
		quote.CompareAtPrice = in.Resolved.CompareAtPrice
	}

	return quote, nil
}
