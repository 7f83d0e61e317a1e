// Package businessflow contains the core business logic and use cases for pricing workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Product and price book errors
	ErrProductNotFound     = errors.New("product not found")
	ErrProductInactive     = errors.New("product is inactive")
	ErrNoMasterPrice       = errors.New("no master price configured for product")
	ErrProductNotAvailable = errors.New("product not available in this region")

	// Segment errors
	ErrSegmentNotFound      = errors.New("customer segment not found")
	ErrSegmentInactive      = errors.New("customer segment is inactive")
	ErrSegmentCodeExists    = errors.New("segment code already exists")
	ErrNoDefaultSegment     = errors.New("no default segment configured")
	ErrDefaultSegmentLocked = errors.New("default segment cannot be deactivated")

	// Zone and location errors
	ErrZoneNotFound       = errors.New("zone not found for pincode")
	ErrParentZoneNotFound = errors.New("parent zone not found")
	ErrPincodeInvalid     = errors.New("pincode must be exactly 6 digits")
	ErrLocationUnresolved = errors.New("location could not be resolved")
	ErrGeoLookupFailed    = errors.New("geo lookup failed")
	ErrCacheNotAvailable  = errors.New("cache not available")

	// Modifier and rule errors
	ErrModifierNotFound    = errors.New("price modifier not found")
	ErrModifierKindInvalid = errors.New("invalid modifier kind")
	ErrChargeModeInvalid   = errors.New("invalid attribute charge mode")
	ErrRuleNotFound        = errors.New("availability rule not found")
	ErrScopeKeyRequired    = errors.New("scope key is required for zone and segment entries")
	ErrScopeTypeInvalid    = errors.New("invalid price book scope type")

	// Quote validation errors
	ErrQuantityInvalid = errors.New("quantity must be at least 1")
	ErrDesignsInvalid  = errors.New("number of designs must be at least 1")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

func IsNoMasterPrice(err error) bool {
	return errors.Is(err, ErrNoMasterPrice)
}

func IsProductNotAvailable(err error) bool {
	return errors.Is(err, ErrProductNotAvailable)
}

func IsSegmentNotFound(err error) bool {
	return errors.Is(err, ErrSegmentNotFound)
}

func IsZoneNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}

func IsPincodeInvalid(err error) bool {
	return errors.Is(err, ErrPincodeInvalid)
}

func IsLocationUnresolved(err error) bool {
	return errors.Is(err, ErrLocationUnresolved)
}

func IsModifierNotFound(err error) bool {
	return errors.Is(err, ErrModifierNotFound)
}

func IsQuantityInvalid(err error) bool {
	return errors.Is(err, ErrQuantityInvalid)
}

func IsDesignsInvalid(err error) bool {
	return errors.Is(err, ErrDesignsInvalid)
}

func IsProductInactive(err error) bool {
	return errors.Is(err, ErrProductInactive)
}

func IsSegmentCodeExists(err error) bool {
	return errors.Is(err, ErrSegmentCodeExists)
}

func IsParentZoneNotFound(err error) bool {
	return errors.Is(err, ErrParentZoneNotFound)
}

func IsScopeKeyRequired(err error) bool {
	return errors.Is(err, ErrScopeKeyRequired)
}

func IsScopeTypeInvalid(err error) bool {
	return errors.Is(err, ErrScopeTypeInvalid)
}

func IsModifierKindInvalid(err error) bool {
	return errors.Is(err, ErrModifierKindInvalid)
}
