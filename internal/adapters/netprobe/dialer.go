package netprobe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/bnema/propman-cli/internal/ports"
)

const defaultProbeTimeout = 3 * time.Second

// Dialer reports the API reachable when a TCP connection to its host succeeds.
type Dialer struct {
	Address string
	Timeout time.Duration

	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

var _ ports.ConnectivityProbe = (*Dialer)(nil)

// NewDialer derives host:port from the API base URL, defaulting the port from the scheme.
func NewDialer(baseURL string, timeout time.Duration) (*Dialer, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("api base url %q has no host", baseURL)
	}

	port := parsed.Port()
	if port == "" {
		port = "80"
		if parsed.Scheme == "https" {
			port = "443"
		}
	}

	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Dialer{Address: net.JoinHostPort(parsed.Hostname(), port), Timeout: timeout}, nil
}

func (d *Dialer) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	dial := d.dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}

	conn, err := dial(probeCtx, "tcp", d.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
