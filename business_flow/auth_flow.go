package businessflow

import (
	"context"
	"time"

	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/app/services"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/repository"
	"github.com/printsetu/printsetu/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow issues segment-bearing tokens. Authorization stops at "is
// this a known customer or a guest"; the segment code in the token is
// what the quote facade prices against.
type AuthFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginData, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginData, error)
}

// AuthFlowImpl implements AuthFlow
type AuthFlowImpl struct {
	customerRepo   repository.CustomerRepository
	segmentRepo    repository.CustomerSegmentRepository
	auditRepo      repository.AuditLogRepository
	tokenService   services.TokenService
	accessTokenTTL time.Duration
}

// NewAuthFlow creates a new authentication flow
func NewAuthFlow(
	customerRepo repository.CustomerRepository,
	segmentRepo repository.CustomerSegmentRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	accessTokenTTL time.Duration,
) AuthFlow {
	return &AuthFlowImpl{
		customerRepo:   customerRepo,
		segmentRepo:    segmentRepo,
		auditRepo:      auditRepo,
		tokenService:   tokenService,
		accessTokenTTL: accessTokenTTL,
	}
}

// Login verifies credentials and returns tokens carrying the
// customer's segment code.
func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginData, error) {
	customer, err := f.customerRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "failed to look up customer", err)
	}
	if customer == nil {
		f.auditLogin(ctx, nil, false, metadata, "unknown email")
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "customer not found", ErrCustomerNotFound)
	}
	if !customer.Active() {
		f.auditLogin(ctx, &customer.ID, false, metadata, "inactive account")
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "account is inactive", ErrAccountInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)); err != nil {
		f.auditLogin(ctx, &customer.ID, false, metadata, "incorrect password")
		return nil, NewBusinessError("INCORRECT_PASSWORD", "incorrect password", ErrIncorrectPassword)
	}

	segment, err := f.segmentForCustomer(ctx, customer)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "failed to resolve segment", err)
	}

	segmentCode := ""
	if segment != nil {
		segmentCode = segment.Code
	}

	accessToken, refreshToken, err := f.tokenService.GenerateTokens(customer.ID, segmentCode)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "failed to generate tokens", err)
	}

	now := utils.UTCNow()
	if err := f.customerRepo.UpdateLastLogin(ctx, customer.ID, now); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "failed to record login", err)
	}

	f.auditLogin(ctx, &customer.ID, true, metadata, "")

	return f.loginData(accessToken, refreshToken, customer, segment), nil
}

// Refresh exchanges a refresh token for a new pair.
func (f *AuthFlowImpl) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.LoginData, error) {
	claims, err := f.tokenService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_TOKEN", "invalid refresh token", err)
	}

	customer, err := f.customerRepo.ByID(ctx, claims.CustomerID)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "failed to look up customer", err)
	}
	if customer == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "customer not found", ErrCustomerNotFound)
	}
	if !customer.Active() {
		return nil, NewBusinessError("ACCOUNT_INACTIVE", "account is inactive", ErrAccountInactive)
	}

	accessToken, refreshToken, err := f.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_TOKEN", "failed to refresh tokens", err)
	}

	segment, err := f.segmentForCustomer(ctx, customer)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "failed to resolve segment", err)
	}

	return f.loginData(accessToken, refreshToken, customer, segment), nil
}

func (f *AuthFlowImpl) segmentForCustomer(ctx context.Context, customer *models.Customer) (*models.CustomerSegment, error) {
	if customer.Segment != nil {
		return customer.Segment, nil
	}
	if customer.SegmentID != nil {
		return f.segmentRepo.ByID(ctx, *customer.SegmentID)
	}
	return f.segmentRepo.DefaultSegment(ctx)
}

func (f *AuthFlowImpl) loginData(accessToken, refreshToken string, customer *models.Customer, segment *models.CustomerSegment) *dto.LoginData {
	info := dto.CustomerInfo{
		ID:        customer.ID,
		UUID:      customer.UUID.String(),
		Email:     customer.Email,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		IsActive:  customer.IsActive,
		CreatedAt: customer.CreatedAt.Format(time.RFC3339),
	}
	if segment != nil {
		info.Segment = segment.Code
		info.SegmentName = segment.Name
	}

	return &dto.LoginData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(f.accessTokenTTL.Seconds()),
		Customer:     info,
	}
}

func (f *AuthFlowImpl) auditLogin(ctx context.Context, customerID *uint, success bool, metadata *ClientMetadata, failureReason string) {
	if f.auditRepo == nil {
		return
	}

	action := models.AuditActionLoginSuccessful
	var errMsg *string
	if !success {
		action = models.AuditActionLoginFailed
		if failureReason != "" {
			errMsg = utils.ToPtr(failureReason)
		}
	}

	entry := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Success:      utils.ToPtr(success),
		ErrorMessage: errMsg,
		CreatedAt:    utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			entry.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	_ = f.auditRepo.Save(ctx, entry)
}
