package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type ctxKey struct{}

// ErrorWriter reports a rejected request. The api package supplies one that
// renders its JSON error envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator guards routes with the admin capability.
type Authenticator struct {
	secret  string
	onError ErrorWriter
}

func NewAuthenticator(secret string, onError ErrorWriter) *Authenticator {
	return &Authenticator{secret: secret, onError: onError}
}

// RequireAdmin rejects requests without a bearer token carrying the admin
// role: 401 for a missing or invalid token, 403 for another role.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.authenticate(r)
		if err != nil {
			a.onError(w, r, err)
			return
		}
		if claims.Role != RoleAdmin {
			a.onError(w, r, fmt.Errorf("%w: role %q may not modify production data", ErrForbidden, claims.Role))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("%w: missing Authorization header", ErrUnauthorized)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, fmt.Errorf("%w: Authorization must be 'Bearer <token>'", ErrUnauthorized)
	}

	return ParseToken(a.secret, strings.TrimSpace(parts[1]))
}

// ClaimsFrom returns the claims stored by RequireAdmin.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}
