package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of a freshly issued credential.
const DefaultTTL = 7 * 24 * time.Hour

// Issuer signs new credentials. It keeps no per-session state.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an issuer signing with the given secret. A non-positive ttl
// falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the lifetime applied to issued credentials.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a new credential for the identity. Every call produces a distinct
// token, even within the same second, because each carries a random token ID.
func (i *Issuer) Issue(identity Identity, now time.Time) (string, *Claims, error) {
	if len(i.secret) == 0 {
		return "", nil, errors.New("issuer secret is empty")
	}
	if identity.ID == "" {
		return "", nil, errors.New("identity has no subject id")
	}

	claims := &Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign credential: %w", err)
	}
	return signed, claims, nil
}
