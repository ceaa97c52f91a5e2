package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceLoginStoresCredentials(t *testing.T) {
	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Put(mockAnyContext(), AccessTokenKey, "access-1").Return(nil)
	store.EXPECT().Put(mockAnyContext(), RefreshTokenKey, "refresh-1").Return(nil)

	sender := senderFunc(func(_ context.Context, req domain.Request) (domain.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/auth/login", req.Path)
		assert.True(t, req.SkipAuthRefresh)
		body, err := json.Marshal(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"email":"manager@example.com","password":"hunter2"}`, string(body))
		return okResponse(`{"accessToken":"access-1","refreshToken":"refresh-1"}`), nil
	})

	session := NewSession(store, fixedClock{now: testNow})
	service := NewService(sender, session, newTestQueue(&memoryActionRepository{}), NewConnectivityMonitor(true, zerolog.Nop()), fixedClock{now: testNow}, 3)

	err := service.Login(context.Background(), " manager@example.com ", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}, session.Credentials())
}

func TestServiceLoginRestoresPreviousSessionWhenStoreFails(t *testing.T) {
	storeErr := errors.New("keyring locked")
	store := mocks.NewMockSecretStore(t)
	store.EXPECT().Put(mockAnyContext(), AccessTokenKey, "access-2").Return(storeErr)
	store.EXPECT().Put(mockAnyContext(), RefreshTokenKey, "refresh-2").Return(nil)
	store.EXPECT().Put(mockAnyContext(), AccessTokenKey, "access-1").Return(nil)
	store.EXPECT().Put(mockAnyContext(), RefreshTokenKey, "refresh-1").Return(nil)

	sender := senderFunc(func(context.Context, domain.Request) (domain.Response, error) {
		return okResponse(`{"accessToken":"access-2","refreshToken":"refresh-2"}`), nil
	})

	session := NewSession(store, fixedClock{now: testNow})
	session.creds = domain.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}
	service := NewService(sender, session, newTestQueue(&memoryActionRepository{}), NewConnectivityMonitor(true, zerolog.Nop()), fixedClock{now: testNow}, 3)

	err := service.Login(context.Background(), "manager@example.com", "hunter2")

	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, domain.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}, session.Credentials())
}

func TestServiceLoginSurfacesRejectedCredentials(t *testing.T) {
	sender := senderFunc(func(context.Context, domain.Request) (domain.Response, error) {
		return domain.Response{Status: http.StatusUnauthorized}, &domain.ClientError{Status: http.StatusUnauthorized, Message: "invalid email or password"}
	})
	session := NewSession(mocks.NewMockSecretStore(t), fixedClock{now: testNow})
	service := NewService(sender, session, newTestQueue(&memoryActionRepository{}), NewConnectivityMonitor(true, zerolog.Nop()), fixedClock{now: testNow}, 3)

	err := service.Login(context.Background(), "manager@example.com", "wrong")

	require.ErrorIs(t, err, domain.ErrClientError)
	assert.Equal(t, "invalid email or password", domain.UserMessage(err))
	assert.False(t, session.Authenticated())
}

func TestServiceLoginRequiresEmailAndPassword(t *testing.T) {
	service := NewService(nil, nil, nil, nil, nil, 0)

	err := service.Login(context.Background(), "  ", "secret")

	require.ErrorIs(t, err, ErrMissingLoginCredentials)
}

func TestServiceLogoutClearsSessionAndQueue(t *testing.T) {
	store := newMemorySecretStore(map[string]string{AccessTokenKey: "a", RefreshTokenKey: "r"})
	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))

	repo := &memoryActionRepository{}
	queue := newTestQueue(repo)
	_, err := queue.Enqueue(context.Background(), "CREATE_ROOM", "/rooms", domain.MethodPost, nil)
	require.NoError(t, err)

	service := NewService(nil, session, queue, NewConnectivityMonitor(true, zerolog.Nop()), fixedClock{now: testNow}, 3)
	require.NoError(t, service.Logout(context.Background()))

	assert.False(t, session.Authenticated())
	assert.Zero(t, queue.Len())
	assert.Empty(t, repo.stored())
}

func TestServiceStatus(t *testing.T) {
	expiresAt := testNow.Add(15 * time.Minute).Truncate(time.Second)
	store := newMemorySecretStore(map[string]string{AccessTokenKey: signedToken(expiresAt), RefreshTokenKey: "r"})
	session := NewSession(store, fixedClock{now: testNow})
	require.NoError(t, session.Hydrate(context.Background()))

	queue := newTestQueue(&memoryActionRepository{})
	_, err := queue.Enqueue(context.Background(), "CREATE_ROOM", "/rooms", domain.MethodPost, nil)
	require.NoError(t, err)

	service := NewService(nil, session, queue, NewConnectivityMonitor(false, zerolog.Nop()), fixedClock{now: testNow}, 3)
	status := service.Status()

	assert.True(t, status.Authenticated)
	assert.True(t, status.AccessTokenValid)
	assert.False(t, status.Online)
	assert.True(t, expiresAt.Equal(status.TokenExpiresAt))
	assert.Equal(t, 1, status.PendingCount())
	assert.Equal(t, 3, status.MaxRetries)
	assert.Equal(t, testNow, status.CheckedAt)
}
