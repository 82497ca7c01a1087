package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-app/deckhand-api/internal/config"
)

const testSecret = "test-secret-that-is-long-enough-123456"

func newTestService(t *testing.T) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret}, slog.Default())
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

type tokenParams struct {
	userID    string
	tokenType string
	issuedAt  time.Time
	expiresAt time.Time
	secret    string
	method    jwt.SigningMethod
}

func mintToken(t *testing.T, p tokenParams) string {
	t.Helper()
	if p.secret == "" {
		p.secret = testSecret
	}
	if p.method == nil {
		p.method = jwt.SigningMethodHS256
	}
	claims := jwtCustomClaims{
		UserID:    p.userID,
		TokenType: p.tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(p.issuedAt),
			ExpiresAt: jwt.NewNumericDate(p.expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(p.method, claims).SignedString([]byte(p.secret))
	require.NoError(t, err)
	return signed
}

func TestNewJWTService_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: ""}, slog.Default())
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret}, nil)
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 3, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "valid access token",
			token: func(t *testing.T) string {
				return mintToken(t, tokenParams{
					userID:    userID.String(),
					tokenType: "access",
					issuedAt:  now.Add(-time.Minute),
					expiresAt: now.Add(time.Hour),
				})
			},
		},
		{
			name:    "empty token",
			token:   func(t *testing.T) string { return "" },
			wantErr: ErrMissingToken,
		},
		{
			name:    "garbage token",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return mintToken(t, tokenParams{
					userID:    userID.String(),
					tokenType: "access",
					issuedAt:  now.Add(-2 * time.Hour),
					expiresAt: now.Add(-time.Hour),
				})
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "expired within clock skew is accepted",
			token: func(t *testing.T) string {
				return mintToken(t, tokenParams{
					userID:    userID.String(),
					tokenType: "access",
					issuedAt:  now.Add(-time.Hour),
					expiresAt: now.Add(-time.Minute),
				})
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return mintToken(t, tokenParams{
					userID:    userID.String(),
					tokenType: "access",
					issuedAt:  now.Add(-time.Minute),
					expiresAt: now.Add(time.Hour),
					secret:    "a-different-secret-also-long-enough-xyz",
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token rejected",
			token: func(t *testing.T) string {
				return mintToken(t, tokenParams{
					userID:    userID.String(),
					tokenType: "refresh",
					issuedAt:  now.Add(-time.Minute),
					expiresAt: now.Add(time.Hour),
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed user id",
			token: func(t *testing.T) string {
				return mintToken(t, tokenParams{
					userID:    "not-a-uuid",
					tokenType: "access",
					issuedAt:  now.Add(-time.Minute),
					expiresAt: now.Add(time.Hour),
				})
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(t)
			svc.timeFunc = func() time.Time { return now }

			claims, err := svc.ValidateToken(context.Background(), tc.token(t))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, claims)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, "access", claims.TokenType)
			assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
		})
	}
}

func TestValidateToken_RejectsNonHMACAlgorithm(t *testing.T) {
	t.Parallel()

	// A token signed with "none" must never pass signature checks.
	claims := jwtCustomClaims{
		UserID:    uuid.New().String(),
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := newTestService(t)
	_, err = svc.ValidateToken(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
