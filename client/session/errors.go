// Package session gates protected client views on a held credential and
// destroys local credential material on logout.
package session

import (
	"errors"
	"fmt"
)

var (
	// ErrDenied is returned when the server rejects the credential.
	ErrDenied = errors.New("credential rejected")
	// ErrTransportFailure wraps network failures and unexpected responses.
	ErrTransportFailure = errors.New("transport failure")
	// ErrPassDiscarded is returned by Pass.Wait after Unmount.
	ErrPassDiscarded = errors.New("gating pass discarded")
	// ErrNoSession is returned when a call needs a credential and none is held.
	ErrNoSession = errors.New("no session")
	// ErrInvalidCredentials is returned by Login for a rejected email/password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// APIError is a non-2xx reply from the API that is not a transport failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

func transportError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTransportFailure, fmt.Sprintf(format, args...))
}
