package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tbox/dashboard/credential"
)

// Well-known keys of the session record.
const (
	KeyAuthToken   = "authToken"
	KeyUserDetails = "userDetails"
)

// SessionKeys lists every key that holds credential material.
var SessionKeys = []string{KeyAuthToken, KeyUserDetails}

// SessionRecord pairs a credential with the identity captured at login. The
// identity is not refreshed afterwards and may be stale.
type SessionRecord struct {
	Token    string
	Identity credential.Identity
}

// SessionStore reads and writes the session record on top of a Store.
type SessionStore struct {
	store Store
}

// NewSessionStore creates a SessionStore
func NewSessionStore(s Store) *SessionStore {
	return &SessionStore{store: s}
}

// Save writes both halves of the record. When the credential cannot be
// written the identity just written is removed again.
func (s *SessionStore) Save(ctx context.Context, record SessionRecord) error {
	identity, err := json.Marshal(record.Identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := s.store.Set(ctx, KeyUserDetails, string(identity)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyAuthToken, record.Token); err != nil {
		if delErr := s.store.Delete(ctx, KeyUserDetails); delErr != nil {
			return fmt.Errorf("failed to save credential: %w (cleanup failed: %v)", err, delErr)
		}
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Load returns the current record. ok is false when no credential is held. An
// unreadable identity leaves the snapshot zero-valued.
func (s *SessionStore) Load(ctx context.Context) (SessionRecord, bool, error) {
	token, ok, err := s.store.Get(ctx, KeyAuthToken)
	if err != nil || !ok || token == "" {
		return SessionRecord{}, false, err
	}

	record := SessionRecord{Token: token}
	raw, ok, err := s.store.Get(ctx, KeyUserDetails)
	if err != nil {
		return SessionRecord{}, false, err
	}
	if ok {
		_ = json.Unmarshal([]byte(raw), &record.Identity)
	}
	return record, true, nil
}

// Clear removes every session key. Clearing an empty store is a no-op.
func (s *SessionStore) Clear(ctx context.Context) error {
	for _, key := range SessionKeys {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the keys Clear removes
func (s *SessionStore) Keys() []string {
	return append([]string(nil), SessionKeys...)
}
