package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/propman-cli/internal/domain"
	portmocks "github.com/bnema/propman-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "pm://session/access_token").Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), "pm://session/access_token")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "pm://session/access_token").Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, "pm://session/access_token").Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), "pm://session/access_token")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "pm://session/access_token").Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, "pm://session/access_token").Return("", errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), "pm://session/access_token")
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, "pm://session/access_token", "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, "pm://session/access_token", "secret").Return(nil).Once()

	err := store.Put(context.Background(), "pm://session/access_token", "secret")
	require.NoError(t, err)
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, "pm://session/access_token", "secret").Return(nil).Once()

	err := store.Put(context.Background(), "pm://session/access_token", "secret")
	require.NoError(t, err)
}

func TestStoreDeleteFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "pm://session/access_token").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, "pm://session/access_token").Return(nil).Once()

	err := store.Delete(context.Background(), "pm://session/access_token")
	require.NoError(t, err)
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "pm://session/access_token").Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, "pm://session/access_token").Return(errors.New("read-only")).Once()

	err := store.Delete(context.Background(), "pm://session/access_token")
	require.NoError(t, err)
}

func TestStoreDeleteReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, "pm://session/access_token").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, "pm://session/access_token").Return(errors.New("file failed")).Once()

	err := store.Delete(context.Background(), "pm://session/access_token")
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStoreGetKeepsNotFoundWhenBothBackendsMiss(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "pm://session/refresh_token").Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, "pm://session/refresh_token").Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), "pm://session/refresh_token")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, "pm://session/access_token").Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), "pm://session/access_token")
	require.ErrorIs(t, err, context.Canceled)
}
