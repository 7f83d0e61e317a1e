package dto

// LocationSignalDTO is a resolved location signal as exposed to clients
type LocationSignalDTO struct {
	Pincode    string `json:"pincode"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	Source     string `json:"source"`
	ResolvedAt string `json:"resolvedAt"`
}

// LocationResolutionDTO is the typed outcome of a resolution pass;
// state is RESOLVED or MANUAL_WAIT.
type LocationResolutionDTO struct {
	State      string             `json:"state"`
	Signal     *LocationSignalDTO `json:"signal,omitempty"`
	DetectedBy string             `json:"detectedBy,omitempty"`
}

// ReverseGeocodeRequest carries client GPS coordinates for reverse geocoding
type ReverseGeocodeRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// ValidatePincodeRequest carries a manually entered pincode
type ValidatePincodeRequest struct {
	Pincode string `json:"pincode" validate:"required,pincode"`
}
