package credential

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var testIdentity = Identity{
	ID:       "6f1c2a52-8d7e-4d0a-9a8e-3b5c1e0f9d21",
	FullName: "Ada Driver",
	Email:    "a@b.com",
}

func TestIssue(t *testing.T) {
	issuer := NewIssuer(testSecret, DefaultTTL)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, claims, err := issuer.Issue(testIdentity, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	t.Run("expiry is issuance plus seven days", func(t *testing.T) {
		decoded, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, now, decoded.IssuedAtTime().UTC())
		assert.Equal(t, 7*24*time.Hour, decoded.ExpiresAtTime().Sub(decoded.IssuedAtTime()))
		assert.True(t, claims.ExpiresAtTime().Equal(decoded.ExpiresAtTime()))
	})

	t.Run("carries subject and email", func(t *testing.T) {
		assert.Equal(t, testIdentity.ID, claims.SubjectID())
		assert.Equal(t, testIdentity.Email, claims.Email)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("two issuances are distinct and both verify", func(t *testing.T) {
		second, _, err := issuer.Issue(testIdentity, now.Add(time.Second))
		require.NoError(t, err)
		assert.NotEqual(t, token, second)

		sameInstant, _, err := issuer.Issue(testIdentity, now)
		require.NoError(t, err)
		assert.NotEqual(t, token, sameInstant)

		verifier := NewVerifier(testSecret).WithClock(func() time.Time { return now.Add(time.Hour) })
		for _, tok := range []string{token, second, sameInstant} {
			_, err := verifier.Verify(tok)
			assert.NoError(t, err)
		}
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		_, _, err := issuer.Issue(Identity{Email: "x@y.z"}, now)
		assert.Error(t, err)
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		_, _, err := NewIssuer("", time.Hour).Issue(testIdentity, now)
		assert.Error(t, err)
	})

	t.Run("non-positive ttl falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultTTL, NewIssuer(testSecret, 0).TTL())
	})
}

func TestVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer(testSecret, time.Hour)
	valid, _, err := issuer.Issue(testIdentity, now)
	require.NoError(t, err)

	forged, _, err := NewIssuer("other-secret", time.Hour).Issue(testIdentity, now)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testIdentity.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: testIdentity.ID},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{name: "valid", token: valid, at: now.Add(30 * time.Minute)},
		{name: "missing", token: "", at: now, wantErr: ErrMissingToken},
		{name: "garbage", token: "not-a-token", at: now, wantErr: ErrMalformedToken},
		{name: "three garbage segments", token: "a.b.c", at: now, wantErr: ErrMalformedToken},
		{name: "wrong secret", token: forged, at: now, wantErr: ErrSignatureMismatch},
		{name: "none algorithm", token: noneAlg, at: now, wantErr: ErrSignatureMismatch},
		{name: "expired", token: valid, at: now.Add(2 * time.Hour), wantErr: ErrExpiredToken},
		{name: "exactly at expiry", token: valid, at: now.Add(time.Hour), wantErr: ErrExpiredToken},
		{name: "wrong secret and expired", token: forged, at: now.Add(2 * time.Hour), wantErr: ErrSignatureMismatch},
		{name: "no expiry claim", token: noExpiry, at: now, wantErr: ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			verifier := NewVerifier(testSecret).WithClock(func() time.Time { return at })

			claims, err := verifier.Verify(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testIdentity.ID, claims.SubjectID())
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("decodes without the secret", func(t *testing.T) {
		token, _, err := NewIssuer(testSecret, time.Hour).Issue(testIdentity, time.Now())
		require.NoError(t, err)

		claims, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, testIdentity.Email, claims.Email)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := Decode("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := Decode("%%%")
		assert.ErrorIs(t, err, ErrMalformedToken)
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("correct")
	require.NoError(t, err)
	assert.NotEqual(t, "correct", hash)

	assert.NoError(t, hasher.Compare(hash, "correct"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, hasher.CompareDummy("anything"), ErrPasswordMismatch)

	_, err = hasher.Hash("")
	assert.Error(t, err)
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrMissingToken, "missing"},
		{fmt.Errorf("%w: bad segment", ErrMalformedToken), "malformed"},
		{fmt.Errorf("%w: exp", ErrExpiredToken), "expired"},
		{ErrSignatureMismatch, "signature_mismatch"},
		{errors.New("other"), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Reason(tt.err))
	}
}
