// Package credential mints and checks the signed, time-bounded tokens that prove a
// successful login. The same token format is accepted on the bearer header and on the
// cookie channel, and decoded without verification by clients for the cheap expiry check.
package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the subject snapshot captured at login time. Clients cache it for
// rendering; it is not refreshed afterwards and may go stale.
type Identity struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Claims is the payload carried by a credential.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SubjectID returns the subject identity reference.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// IssuedAtTime returns the issuance time, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the expiry time, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Decode extracts claims from a token without checking its signature.
// Only use it for decisions the server re-checks.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}
