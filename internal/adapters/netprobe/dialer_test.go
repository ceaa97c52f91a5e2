package netprobe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialerDerivesAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "explicit port", baseURL: "http://127.0.0.1:8080/api", want: "127.0.0.1:8080"},
		{name: "https default", baseURL: "https://api.example.com", want: "api.example.com:443"},
		{name: "http default", baseURL: "http://api.example.com", want: "api.example.com:80"},
		{name: "ipv6", baseURL: "http://[::1]:9000", want: "[::1]:9000"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dialer, err := NewDialer(tc.baseURL, time.Second)
			require.NoError(t, err)
			assert.Equal(t, tc.want, dialer.Address)
		})
	}
}

func TestNewDialerRejectsMissingHost(t *testing.T) {
	t.Parallel()

	_, err := NewDialer("/relative", time.Second)
	require.Error(t, err)
}

func TestDialerProbe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	dialer, err := NewDialer(server.URL, time.Second)
	require.NoError(t, err)
	assert.True(t, dialer.Probe(context.Background()))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedAddress := listener.Addr().String()
	require.NoError(t, listener.Close())

	offline, err := NewDialer("http://"+closedAddress, time.Second)
	require.NoError(t, err)
	assert.False(t, offline.Probe(context.Background()))
}
