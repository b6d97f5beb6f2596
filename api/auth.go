package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/workhours/access"
	"github.com/warp/workhours/generic"
)

// =============================================================================
// TOKENS
// =============================================================================

// Claims identify the caller. Subject is the employee id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const issuer = "workhours"

// IssueToken signs an HS256 token for p valid for ttl from now.
func IssueToken(secret []byte, p access.Principal, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	if !p.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", p.Role)
	}
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(p.EmployeeID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies a token and returns the principal it names.
func ParseToken(secret []byte, token string) (access.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return access.Principal{}, err
	}

	p := access.Principal{EmployeeID: generic.EmployeeID(claims.Subject), Role: generic.Role(claims.Role)}
	if p.EmployeeID == "" || !p.Role.Valid() {
		return access.Principal{}, errors.New("token does not name an employee and role")
	}
	return p, nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type principalKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(access.Principal)
	return p, ok
}

// Authenticate rejects requests without a valid bearer token.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}
			p, err := ParseToken(secret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
