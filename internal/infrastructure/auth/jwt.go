// Package auth verifies bearer tokens minted by the identity service.
// Staff sign in elsewhere and arrive here with a short-lived HS256
// access token; this service never issues or refreshes tokens and
// stores no users.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cafepos/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrWrongIssuer      = errors.New("token issuer mismatch")
	ErrMissingActor     = errors.New("token carries no actor")
)

// Claims are the actor-identifying claims on identity service tokens
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Actor returns the staff name stamped on ledger writes: the username
// claim, falling back to the token subject.
func (c *Claims) Actor() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

// TokenVerifier checks tokens against the secret shared with the
// identity service
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier from configuration
func NewTokenVerifier(cfg config.JWTConfig) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Verify parses and validates a token string and returns its claims
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, ErrWrongIssuer
	}

	if claims.Actor() == "" {
		return nil, ErrMissingActor
	}

	return claims, nil
}
