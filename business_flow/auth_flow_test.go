package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/printsetu/printsetu/app/dto"
	"github.com/printsetu/printsetu/app/services"
	"github.com/printsetu/printsetu/models"
	"github.com/printsetu/printsetu/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthFlow(t *testing.T, customers *fakeCustomerRepo, segments *fakeSegmentRepo) (AuthFlow, services.TokenService, *fakeAuditRepo) {
	t.Helper()

	tokenService, err := services.NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	audit := &fakeAuditRepo{}
	return NewAuthFlow(customers, segments, audit, tokenService, 15*time.Minute), tokenService, audit
}

func seededCustomer(t *testing.T, segmentID *uint, active bool) *models.Customer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("CorrectHorse1!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Customer{
		ID:           7,
		UUID:         uuid.New(),
		FirstName:    "Asha",
		LastName:     "Mehta",
		Email:        "asha@example.com",
		PasswordHash: string(hash),
		SegmentID:    segmentID,
		IsActive:     utils.ToPtr(active),
	}
}

func TestLogin(t *testing.T) {
	wholesale := &models.CustomerSegment{ID: 2, Code: "WHOLESALE", Name: "Wholesale", IsActive: utils.ToPtr(true)}
	segID := uint(2)

	t.Run("successful login carries segment code in the token", func(t *testing.T) {
		customer := seededCustomer(t, &segID, true)
		customers := &fakeCustomerRepo{byEmail: map[string]*models.Customer{customer.Email: customer}, byID: map[uint]*models.Customer{7: customer}}
		segments := &fakeSegmentRepo{byID: map[uint]*models.CustomerSegment{2: wholesale}}
		flow, tokenService, audit := newTestAuthFlow(t, customers, segments)

		data, err := flow.Login(context.Background(), &dto.LoginRequest{Email: customer.Email, Password: "CorrectHorse1!"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Bearer", data.TokenType)
		assert.Equal(t, "WHOLESALE", data.Customer.Segment)

		claims, err := tokenService.ValidateToken(data.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.CustomerID)
		assert.Equal(t, "WHOLESALE", claims.SegmentCode)

		require.Len(t, audit.saved, 1)
		assert.Equal(t, models.AuditActionLoginSuccessful, audit.saved[0].Action)
	})

	t.Run("unknown email", func(t *testing.T) {
		customers := &fakeCustomerRepo{byEmail: map[string]*models.Customer{}}
		flow, _, audit := newTestAuthFlow(t, customers, &fakeSegmentRepo{})

		_, err := flow.Login(context.Background(), &dto.LoginRequest{Email: "nobody@example.com", Password: "whatever1!"}, nil)
		require.Error(t, err)
		assert.True(t, IsCustomerNotFound(err))
		require.Len(t, audit.saved, 1)
		assert.Equal(t, models.AuditActionLoginFailed, audit.saved[0].Action)
	})

	t.Run("incorrect password", func(t *testing.T) {
		customer := seededCustomer(t, nil, true)
		customers := &fakeCustomerRepo{byEmail: map[string]*models.Customer{customer.Email: customer}}
		flow, _, _ := newTestAuthFlow(t, customers, &fakeSegmentRepo{})

		_, err := flow.Login(context.Background(), &dto.LoginRequest{Email: customer.Email, Password: "WrongPass1!"}, nil)
		require.Error(t, err)
		assert.True(t, IsIncorrectPassword(err))
	})

	t.Run("inactive account", func(t *testing.T) {
		customer := seededCustomer(t, nil, false)
		customers := &fakeCustomerRepo{byEmail: map[string]*models.Customer{customer.Email: customer}}
		flow, _, _ := newTestAuthFlow(t, customers, &fakeSegmentRepo{})

		_, err := flow.Login(context.Background(), &dto.LoginRequest{Email: customer.Email, Password: "CorrectHorse1!"}, nil)
		require.Error(t, err)
		assert.True(t, IsAccountInactive(err))
	})

	t.Run("customer without segment falls back to default", func(t *testing.T) {
		customer := seededCustomer(t, nil, true)
		customers := &fakeCustomerRepo{byEmail: map[string]*models.Customer{customer.Email: customer}}
		segments := &fakeSegmentRepo{defaultSeg: &models.CustomerSegment{ID: 1, Code: "RETAIL", Name: "Retail", IsActive: utils.ToPtr(true)}}
		flow, _, _ := newTestAuthFlow(t, customers, segments)

		data, err := flow.Login(context.Background(), &dto.LoginRequest{Email: customer.Email, Password: "CorrectHorse1!"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "RETAIL", data.Customer.Segment)
	})
}

func TestRefresh(t *testing.T) {
	wholesale := &models.CustomerSegment{ID: 2, Code: "WHOLESALE", Name: "Wholesale", IsActive: utils.ToPtr(true)}
	segID := uint(2)
	customer := seededCustomer(t, &segID, true)
	customers := &fakeCustomerRepo{byEmail: map[string]*models.Customer{customer.Email: customer}, byID: map[uint]*models.Customer{7: customer}}
	segments := &fakeSegmentRepo{byID: map[uint]*models.CustomerSegment{2: wholesale}}
	flow, tokenService, _ := newTestAuthFlow(t, customers, segments)

	t.Run("valid refresh returns a new pair", func(t *testing.T) {
		data, err := flow.Login(context.Background(), &dto.LoginRequest{Email: customer.Email, Password: "CorrectHorse1!"}, nil)
		require.NoError(t, err)

		refreshed, err := flow.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: data.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)

		claims, err := tokenService.ValidateToken(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "WHOLESALE", claims.SegmentCode)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := flow.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: "not-a-token"})
		require.Error(t, err)
	})
}
