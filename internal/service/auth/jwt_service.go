// Package auth provides JWT validation for API requests. Token issuance
// belongs to the account service; this package only verifies access tokens
// minted with the shared HMAC secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
)

// accessTokenType is the only token type accepted on API requests.
const accessTokenType = "access"

// clockSkew is the tolerance applied to exp and nbf checks to absorb
// small clock differences between the token issuer and this service.
const clockSkew = 2 * time.Minute

// Claims holds the validated contents of an access token.
type Claims struct {
	UserID    uuid.UUID
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTService validates bearer tokens presented on API requests.
type JWTService interface {
	// ValidateToken verifies the token signature, expiry, and token type,
	// and returns the claims. Returns ErrExpiredToken, ErrTokenNotYetValid,
	// or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// jwtCustomClaims is the wire format of the token payload.
type jwtCustomClaims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type hmacJWTService struct {
	secret   []byte
	logger   *slog.Logger
	timeFunc func() time.Time
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a JWTService that verifies HS256 tokens signed
// with the configured shared secret.
func NewJWTService(cfg config.AuthConfig, log *slog.Logger) (JWTService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &hmacJWTService{
		secret:   []byte(cfg.JWTSecret),
		logger:   log.With(slog.String("component", "jwt_service")),
		timeFunc: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.timeFunc),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed", slog.String("error", err.Error()))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := parsed.Claims.(*jwtCustomClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != accessTokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, accessTokenType)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user identifier", ErrInvalidToken)
	}

	out := &Claims{
		UserID:    userID,
		TokenType: claims.TokenType,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
