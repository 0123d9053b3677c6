package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// RemoteVerifier asks the issuing service whether a credential is still good.
// It returns nil when authorized, an error wrapping ErrDenied on rejection and
// one wrapping ErrTransportFailure when no answer was obtained.
type RemoteVerifier interface {
	Verify(ctx context.Context, token string) error
}

// HTTPVerifier calls POST /verify-token with the bearer header.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPVerifier creates a verifier for the API at baseURL
func NewHTTPVerifier(baseURL string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPVerifier{baseURL: baseURL, client: client}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/verify-token", nil)
	if err != nil {
		return transportError("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrDenied
	default:
		return transportError("unexpected status %d", resp.StatusCode)
	}
}
