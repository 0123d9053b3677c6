package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tbox/dashboard/client/store"
	"github.com/tbox/dashboard/credential"
)

const testSecret = "session-test-secret-with-32-chars!"

var testIdentity = credential.Identity{ID: "0b7a6f9e-3c1d-4e55-9b0f-2f1c9d4a6b11", FullName: "Ada Lovelace", Email: "ada@example.com"}

func issueToken(t *testing.T, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	token, _, err := credential.NewIssuer(testSecret, ttl).Issue(testIdentity, issuedAt)
	require.NoError(t, err)
	return token
}

func newSessions(t *testing.T, token string) *store.SessionStore {
	t.Helper()
	sessions := store.NewSessionStore(store.NewMemoryStore())
	if token != "" {
		require.NoError(t, sessions.Save(context.Background(), store.SessionRecord{Token: token, Identity: testIdentity}))
	}
	return sessions
}

type fakeVerifier struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *fakeVerifier) Verify(ctx context.Context, _ string) error {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingView struct {
	mu        sync.Mutex
	loading   int
	protected []store.SessionRecord
}

func (v *recordingView) Loading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading++
}

func (v *recordingView) Protected(record store.SessionRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.protected = append(v.protected, record)
}

func (v *recordingView) Rendered() []store.SessionRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]store.SessionRecord(nil), v.protected...)
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// stubbornVerifier answers only when released, whatever its context says.
type stubbornVerifier struct {
	release chan struct{}
	err     error
}

func (s *stubbornVerifier) Verify(_ context.Context, _ string) error {
	<-s.release
	return s.err
}

// slowView blocks inside Protected until released.
type slowView struct {
	recordingView
	started chan struct{}
	release chan struct{}
}

func (v *slowView) Protected(record store.SessionRecord) {
	close(v.started)
	<-v.release
	v.recordingView.Protected(record)
}
