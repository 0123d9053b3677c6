package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tbox/dashboard/client/store"
)

// DefaultCredentialCookies names the cookies that may hold a credential.
var DefaultCredentialCookies = []string{"authToken"}

// Terminator destroys every locally held piece of credential material and
// sends the client back to login. It never calls the server.
type Terminator struct {
	sessions *store.SessionStore
	jar      http.CookieJar
	origin   *url.URL
	cookies  []string
	nav      Navigator
}

// NewTerminator creates a Terminator. jar may be nil when the client keeps no
// cookies.
func NewTerminator(sessions *store.SessionStore, jar http.CookieJar, origin *url.URL, nav Navigator) *Terminator {
	return &Terminator{
		sessions: sessions,
		jar:      jar,
		origin:   origin,
		cookies:  DefaultCredentialCookies,
		nav:      nav,
	}
}

// WithCookies replaces the list of cookie names to expire
func (t *Terminator) WithCookies(names ...string) *Terminator {
	t.cookies = append([]string(nil), names...)
	return t
}

// Terminate clears the session keys and credential cookies, then navigates to
// the login entry point. Running it without a session is a no-op apart from
// the navigation.
func (t *Terminator) Terminate(ctx context.Context) error {
	if err := t.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if t.jar != nil && t.origin != nil && len(t.cookies) > 0 {
		expired := make([]*http.Cookie, 0, len(t.cookies))
		for _, name := range t.cookies {
			expired = append(expired, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
		}
		t.jar.SetCookies(t.origin, expired)
	}

	t.nav.Navigate(LoginPath)
	return nil
}
