/*
Package auth provides the admin capability check for mutating endpoints.

The ledger performs no identity checks. Callers present an HS256 bearer
token whose "role" claim must be "admin" before any write reaches it.
Tokens are minted by the identity provider sharing the secret; the
GenerateToken helper exists for operators and tests.
*/
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

var (
	// ErrUnauthorized means no valid token was presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the token is valid but lacks the admin role.
	ErrForbidden = errors.New("forbidden")
)

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for subject with the given role.
func GenerateToken(secret, subject string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("%w: unreadable claims", ErrUnauthorized)
	}
	return claims, nil
}
