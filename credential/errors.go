package credential

import "errors"

// Token error kinds. Every verification failure wraps exactly one of these.
var (
	ErrMissingToken      = errors.New("missing token")
	ErrMalformedToken    = errors.New("malformed token")
	ErrExpiredToken      = errors.New("token expired")
	ErrSignatureMismatch = errors.New("token signature mismatch")
)

// Reason returns a short label for the error kind wrapped by err, for logs and
// the audit trail. It is never sent to callers.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	default:
		return "unknown"
	}
}
