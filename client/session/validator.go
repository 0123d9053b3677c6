package session

import (
	"time"

	"github.com/tbox/dashboard/credential"
)

// Validity is the result of a local credential check.
type Validity int

const (
	Expired Validity = iota
	Valid
)

func (v Validity) String() string {
	if v == Valid {
		return "valid"
	}
	return "expired"
}

// LocalValidator checks a credential's expiry without any network call. The
// signature is not checked here; the server does that.
type LocalValidator struct {
	now func() time.Time
}

// NewLocalValidator creates a validator using the wall clock
func NewLocalValidator() *LocalValidator {
	return &LocalValidator{now: time.Now}
}

// WithClock replaces the clock
func (v *LocalValidator) WithClock(now func() time.Time) *LocalValidator {
	v.now = now
	return v
}

// Check returns Valid only for a decodable token whose expiry is after now.
// Missing, malformed and expiry-less tokens are Expired.
func (v *LocalValidator) Check(token string) Validity {
	claims, err := credential.Decode(token)
	if err != nil {
		return Expired
	}
	exp := claims.ExpiresAtTime()
	if exp.IsZero() || !exp.After(v.now()) {
		return Expired
	}
	return Valid
}
