// Package services provides external service integrations for the application
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GeoLookupResult is the minimal shape every location provider call
// returns: a pincode plus whatever locality detail the provider knows.
type GeoLookupResult struct {
	Pincode string `json:"pincode"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// GeoLookupService resolves network addresses and coordinates to
// postal codes. Both calls are bounded by the configured timeout;
// a miss is returned as (nil, nil), never a fabricated pincode.
type GeoLookupService interface {
	LookupIP(ctx context.Context, ip string) (*GeoLookupResult, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeoLookupResult, error)
}

// HTTPGeoLookupService calls external geo providers over HTTP.
type HTTPGeoLookupService struct {
	client            *http.Client
	ipLookupURL       string
	reverseGeocodeURL string
}

// NewHTTPGeoLookupService creates a geo lookup client. The timeout
// bounds every provider call so a slow dependency cannot stall quote
// generation; the cascade treats a timeout as a miss.
func NewHTTPGeoLookupService(ipLookupURL, reverseGeocodeURL string, timeout time.Duration) *HTTPGeoLookupService {
	return &HTTPGeoLookupService{
		client:            &http.Client{Timeout: timeout},
		ipLookupURL:       ipLookupURL,
		reverseGeocodeURL: reverseGeocodeURL,
	}
}

type geoProviderResponse struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// LookupIP resolves a public IP address to a postal code.
func (s *HTTPGeoLookupService) LookupIP(ctx context.Context, ip string) (*GeoLookupResult, error) {
	endpoint := fmt.Sprintf("%s?ip=%s", s.ipLookupURL, url.QueryEscape(ip))
	return s.fetch(ctx, endpoint)
}

// ReverseGeocode resolves GPS coordinates to a postal code.
func (s *HTTPGeoLookupService) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeoLookupResult, error) {
	endpoint := fmt.Sprintf("%s?lat=%f&lng=%f", s.reverseGeocodeURL, lat, lng)
	return s.fetch(ctx, endpoint)
}

func (s *HTTPGeoLookupService) fetch(ctx context.Context, endpoint string) (*GeoLookupResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo lookup request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo provider returned status %d", resp.StatusCode)
	}

	var body geoProviderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geo provider response: %w", err)
	}

	if body.Pincode == "" {
		return nil, nil
	}

	return &GeoLookupResult{
		Pincode: body.Pincode,
		City:    body.City,
		State:   body.State,
		Country: body.Country,
	}, nil
}

// MockGeoLookupService returns canned results for development and tests.
type MockGeoLookupService struct {
	IPResults  map[string]*GeoLookupResult
	GPSResult  *GeoLookupResult
	LookupErr  error
	GeocodeErr error
}

func NewMockGeoLookupService() *MockGeoLookupService {
	return &MockGeoLookupService{
		IPResults: make(map[string]*GeoLookupResult),
	}
}

func (m *MockGeoLookupService) LookupIP(ctx context.Context, ip string) (*GeoLookupResult, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	return m.IPResults[ip], nil
}

func (m *MockGeoLookupService) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeoLookupResult, error) {
	if m.GeocodeErr != nil {
		return nil, m.GeocodeErr
	}
	return m.GPSResult, nil
}
