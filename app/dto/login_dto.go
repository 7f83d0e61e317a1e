package dto

// LoginRequest represents the request payload for customer login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// CustomerInfo represents customer information returned in login responses
type CustomerInfo struct {
	ID          uint   `json:"id"`
	UUID        string `json:"uuid"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Segment     string `json:"segment,omitempty"`
	SegmentName string `json:"segment_name,omitempty"`
	IsActive    *bool  `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// LoginData is the payload of a successful login response
type LoginData struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	Customer     CustomerInfo `json:"customer"`
}

// RefreshTokenRequest represents the request payload for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
