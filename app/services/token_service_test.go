// Package services provides external service integrations and technical concerns like geo lookups and tokens
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		"test-secret-key-for-jwt-signing-32-chars", // secretKey
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		secretKey   string
		expectError bool
	}{
		{
			name:        "valid symmetric key configuration",
			useRSAKeys:  false,
			secretKey:   "test-secret-key-for-jwt-signing-32-chars",
			expectError: false,
		},
		{
			name:        "missing secret key",
			useRSAKeys:  false,
			secretKey:   "",
			expectError: true,
		},
		{
			name:        "RSA mode without key material",
			useRSAKeys:  true,
			secretKey:   "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(
				15*time.Minute,
				7*24*time.Hour,
				"test-issuer",
				"test-audience",
				tt.useRSAKeys,
				"",
				"",
				tt.secretKey,
			)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, service)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestGenerateTokens(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name        string
		customerID  uint
		segmentCode string
	}{
		{name: "retail customer", customerID: 123, segmentCode: "RETAIL"},
		{name: "wholesale customer", customerID: 456, segmentCode: "WHOLESALE"},
		{name: "empty segment code", customerID: 789, segmentCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accessToken, refreshToken, err := service.GenerateTokens(tt.customerID, tt.segmentCode)
			require.NoError(t, err)
			assert.NotEmpty(t, accessToken)
			assert.NotEmpty(t, refreshToken)
			assert.NotEqual(t, accessToken, refreshToken)

			claims, err := service.ValidateToken(accessToken)
			require.NoError(t, err)
			assert.Equal(t, tt.customerID, claims.CustomerID)
			assert.Equal(t, tt.segmentCode, claims.SegmentCode)
			assert.Equal(t, "access", claims.TokenType)
			assert.NotEmpty(t, claims.TokenID)

			refreshClaims, err := service.ValidateToken(refreshToken)
			require.NoError(t, err)
			assert.Equal(t, "refresh", refreshClaims.TokenType)
			assert.Equal(t, tt.segmentCode, refreshClaims.SegmentCode)
		})
	}
}

func TestGenerateTokensUniqueIDs(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	first, _, err := service.GenerateTokens(123, "RETAIL")
	require.NoError(t, err)
	second, _, err := service.GenerateTokens(123, "RETAIL")
	require.NoError(t, err)

	firstClaims, err := service.ValidateToken(first)
	require.NoError(t, err)
	secondClaims, err := service.ValidateToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.TokenID, secondClaims.TokenID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "not a JWT", token: "not-a-jwt"},
		{name: "truncated JWT", token: "eyJhbGciOiJIUzI1NiJ9.eyJmb28i"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidateTokenExpired(t *testing.T) {
	service, err := NewTokenService(
		-1*time.Minute, // already expired when issued
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	accessToken, _, err := service.GenerateTokens(123, "RETAIL")
	require.NoError(t, err)

	claims, err := service.ValidateToken(accessToken)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuing, err := createTestTokenService()
	require.NoError(t, err)

	verifying, err := NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false,
		"",
		"",
		"a-completely-different-signing-key-here!",
	)
	require.NoError(t, err)

	accessToken, _, err := issuing.GenerateTokens(123, "RETAIL")
	require.NoError(t, err)

	claims, err := verifying.ValidateToken(accessToken)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestRefreshToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	t.Run("refresh token produces a fresh pair", func(t *testing.T) {
		_, refreshToken, err := service.GenerateTokens(123, "WHOLESALE")
		require.NoError(t, err)

		newAccess, newRefresh, err := service.RefreshToken(refreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)

		claims, err := service.ValidateToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(123), claims.CustomerID)
		assert.Equal(t, "WHOLESALE", claims.SegmentCode)
		assert.Equal(t, "access", claims.TokenType)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		accessToken, _, err := service.GenerateTokens(123, "RETAIL")
		require.NoError(t, err)

		_, _, err = service.RefreshToken(accessToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a refresh token")
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, _, err := service.RefreshToken("garbage")
		require.Error(t, err)
	})
}

func TestRevokeToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateTokens(456, "RETAIL")
	require.NoError(t, err)

	require.NoError(t, service.RevokeToken(accessToken))

	claims, err := service.ValidateToken(accessToken)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.True(t, service.IsTokenRevoked(accessToken))

	// Revoking the access token does not affect the refresh token
	refreshClaims, err := service.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(456), refreshClaims.CustomerID)
	assert.False(t, service.IsTokenRevoked(refreshToken))
}

func TestRevokeTokenInvalid(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	err = service.RevokeToken("not-a-token")
	require.Error(t, err)
}

func TestConcurrentValidation(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, _, err := service.GenerateTokens(123, "RETAIL")
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				claims, err := service.ValidateToken(accessToken)
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func BenchmarkGenerateTokens(b *testing.B) {
	service, err := createTestTokenService()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := service.GenerateTokens(uint(i), "RETAIL")
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidateToken(b *testing.B) {
	service, err := createTestTokenService()
	if err != nil {
		b.Fatal(err)
	}

	token, _, err := service.GenerateTokens(123, "RETAIL")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := service.ValidateToken(token)
		if err != nil {
			b.Fatal(err)
		}
	}
}
