package models

import "time"

// Location signal sources, in cascade order.
const (
	LocationSourceCache  = "CACHE"
	LocationSourceGPS    = "GPS"
	LocationSourceIP     = "IP_DETECTION"
	LocationSourceManual = "MANUAL"
)

// LocationSignal is a resolved location for a session. It is cached
// per session with a fixed TTL, never persisted to the database; a
// signal older than the TTL is treated as absent.
type LocationSignal struct {
	Pincode    string    `json:"pincode"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	Country    string    `json:"country,omitempty"`
	Source     string    `json:"source"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// IsFresh reports whether the signal is still usable under ttl.
func (s *LocationSignal) IsFresh(now time.Time, ttl time.Duration) bool {
	if s == nil || s.Pincode == "" {
		return false
	}
	return now.Sub(s.ResolvedAt) < ttl
}
