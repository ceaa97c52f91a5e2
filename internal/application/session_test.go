package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHydrateLoadsStoredPair(t *testing.T) {
	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mockAnyContext(), AccessTokenKey).Return("access-1\n", nil)
	store.EXPECT().Get(mockAnyContext(), RefreshTokenKey).Return("refresh-1", nil)

	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))

	assert.Equal(t, domain.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}, session.Credentials())
	assert.True(t, session.Authenticated())
}

func TestSessionHydrateTreatsMissingSecretsAsSignedOut(t *testing.T) {
	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mockAnyContext(), AccessTokenKey).Return("", domain.ErrSecretNotFound)
	store.EXPECT().Get(mockAnyContext(), RefreshTokenKey).Return("", domain.ErrSecretNotFound)

	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))

	assert.False(t, session.Authenticated())
	assert.Empty(t, session.AccessToken())
}

func TestSessionHydrateReturnsStoreFailure(t *testing.T) {
	storeErr := errors.New("pass: gpg agent unavailable")
	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Get(mockAnyContext(), AccessTokenKey).Return("", storeErr)

	session := NewSession(store, fixedClock{now: testNow})
	err := session.Hydrate(context.Background())

	require.ErrorIs(t, err, storeErr)
}

func TestSessionAccessTokenUsability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		token  string
		usable bool
	}{
		{name: "opaque token", token: "opaque-token", usable: true},
		{name: "jwt not yet expired", token: signedToken(testNow.Add(10 * time.Minute)), usable: true},
		{name: "jwt expired", token: signedToken(testNow.Add(-time.Minute)), usable: false},
		{name: "empty", token: "", usable: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newMemorySecretStore(map[string]string{AccessTokenKey: tc.token, RefreshTokenKey: "refresh"})
			session := NewSession(store, fixedClock{now: testNow})
			require.NoError(t, session.Hydrate(context.Background()))

			if tc.usable {
				assert.Equal(t, tc.token, session.AccessToken())
			} else {
				assert.Empty(t, session.AccessToken())
			}
		})
	}
}

func TestSessionReplaceKeepsRefreshTokenWhenOmitted(t *testing.T) {
	store := newMemorySecretStore(map[string]string{AccessTokenKey: "old", RefreshTokenKey: "refresh-1"})
	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))

	require.NoError(t, session.Replace(context.Background(), domain.Credentials{AccessToken: "new"}))

	assert.Equal(t, domain.Credentials{AccessToken: "new", RefreshToken: "refresh-1"}, session.Credentials())
	stored, ok := store.value(AccessTokenKey)
	require.True(t, ok)
	assert.Equal(t, "new", stored)
}

func TestSessionReplaceUpdatesMemoryEvenWhenPersistFails(t *testing.T) {
	store := newMemorySecretStore(nil)
	store.putErr = errors.New("disk full")
	session := NewSession(store, fixedClock{now: testNow})

	err := session.Replace(context.Background(), domain.Credentials{AccessToken: "a", RefreshToken: "r"})

	require.ErrorIs(t, err, store.putErr)
	assert.Equal(t, "a", session.AccessToken())
}

func TestSessionReplaceRejectsMissingAccessToken(t *testing.T) {
	session := NewSession(newMemorySecretStore(nil), fixedClock{now: testNow})

	err := session.Replace(context.Background(), domain.Credentials{RefreshToken: "r"})

	require.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestSessionClearIgnoresMissingSecrets(t *testing.T) {
	store := newMemorySecretStore(map[string]string{AccessTokenKey: "a"})
	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))

	require.NoError(t, session.Clear(context.Background()))

	assert.False(t, session.Authenticated())
	_, ok := store.value(AccessTokenKey)
	assert.False(t, ok)
}

func TestSessionRefreshTokenFallsBackToMemory(t *testing.T) {
	store := newMemorySecretStore(map[string]string{AccessTokenKey: "a", RefreshTokenKey: "r"})
	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))
	store.getErrs[RefreshTokenKey] = errors.New("locked")

	token, err := session.RefreshToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "r", token)
}

func TestSessionAccessTokenExpiresAsClockAdvances(t *testing.T) {
	exp := testNow.Add(5 * time.Minute)
	store := newMemorySecretStore(map[string]string{AccessTokenKey: signedToken(exp), RefreshTokenKey: "r"})

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(testNow).Once()
	clock.EXPECT().Now().Return(exp.Add(time.Second)).Once()

	session := NewSession(store, clock)
	require.NoError(t, session.Hydrate(context.Background()))

	assert.NotEmpty(t, session.AccessToken())
	assert.Empty(t, session.AccessToken())
	assert.True(t, session.Authenticated())

	expiresAt, ok := session.AccessTokenExpiry()
	require.True(t, ok)
	assert.True(t, expiresAt.Equal(exp.Truncate(time.Second)))
}

func TestSessionClearIfCurrent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		token       string
		wantCleared bool
	}{
		{name: "current token", token: "tok-2", wantCleared: true},
		{name: "replaced token", token: "tok-1", wantCleared: false},
		{name: "empty token", token: "", wantCleared: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newMemorySecretStore(map[string]string{AccessTokenKey: "tok-2", RefreshTokenKey: "ref-1"})
			session := NewSession(store, fixedClock{now: testNow})
			require.NoError(t, session.Hydrate(context.Background()))

			cleared, err := session.ClearIfCurrent(context.Background(), tc.token)

			require.NoError(t, err)
			assert.Equal(t, tc.wantCleared, cleared)
			assert.Equal(t, !tc.wantCleared, session.Authenticated())
			_, stored := store.value(AccessTokenKey)
			assert.Equal(t, !tc.wantCleared, stored)
		})
	}
}
