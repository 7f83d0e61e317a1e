package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// Location resolution constants
const (
	// LocationCacheTTL is how long a resolved location stays fresh (1 hour)
	LocationCacheTTL = time.Hour

	// GPSTimeout bounds a browser geolocation round trip
	GPSTimeout = 6 * time.Second

	// GeoLookupTimeout bounds IP lookup and reverse geocoding calls
	GeoLookupTimeout = 3 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Pricing constants
const (
	// INRCurrency is the default currency for price book entries
	INRCurrency = "INR"

	// DefaultGSTPercentage is applied when a product does not override it
	DefaultGSTPercentage = 18.0
)

// Context keys for request-scoped values
const (
	RequestIDKey  = "request_id"
	SessionIDKey  = "session_id"
	UserAgentKey  = "user_agent"
	IPAddressKey  = "ip_address"
	EndpointKey   = "endpoint"
	TimeoutKey    = "timeout"
	CancelFuncKey = "cancel_func"
)
