package oauth2client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeClaims extracts the payload of a JWT without verifying its signature.
// amoCRM does not publish a key set for its tokens, so claims are inspected
// (never validated) locally; the vendor remains the authority on validity.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("oauth2client: decode token claims: %w", err)
	}
	return claims, nil
}

// TokenExpiry returns the expiry recorded in the token's exp claim.
// The zero time is returned when the token carries no exp claim.
func TokenExpiry(token string) (time.Time, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("oauth2client: read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// IsTokenExpired reports whether the token's exp claim lies in the past.
// Tokens without an exp claim are never considered expired here.
func IsTokenExpired(token string) (bool, error) {
	expiry, err := TokenExpiry(token)
	if err != nil {
		return false, err
	}
	if expiry.IsZero() {
		return false, nil
	}
	return time.Now().After(expiry), nil
}
