package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
)

const (
	maxResponseBytes = 1 << 20
	defaultTimeout   = 10 * time.Second
	userAgent        = "pm/cli"
)

var (
	ErrMissingBaseURL = errors.New("api base url is required")
	ErrInvalidBaseURL = errors.New("api base url must be an absolute http or https url")
)

// Client is the JSON-over-HTTP transport for the property management API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ ports.Transport = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	parsed, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{baseURL: parsed, httpClient: NewHTTPClient(timeout)}, nil
}

// WithHTTPClient swaps the underlying client, e.g. for httptest servers.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// NewHTTPClient returns a client whose dial, TLS and overall deadlines all fit
// within timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingBaseURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return parsed, nil
}

// Do sends req and reads the whole response. Any failure without a response,
// including timeouts, wraps domain.ErrNetworkUnreachable.
func (c *Client) Do(ctx context.Context, req domain.Request, accessToken string) (domain.Response, error) {
	endpoint, err := c.endpoint(req)
	if err != nil {
		return domain.Response{}, err
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return domain.Response{}, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Response{}, fmt.Errorf("perform request: %w", err)
		}
		return domain.Response{}, fmt.Errorf("perform request: %w: %w", domain.ErrNetworkUnreachable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Response{}, fmt.Errorf("read response: %w: %w", domain.ErrNetworkUnreachable, err)
	}

	return domain.Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   payload,
	}, nil
}

func (c *Client) endpoint(req domain.Request) (string, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return "", errors.New("api path is required")
	}

	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}

	base := *c.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	endpoint := base.ResolveReference(ref)

	if len(req.Params) > 0 {
		query := endpoint.Query()
		for name, values := range req.Params {
			for _, value := range values {
				query.Add(name, value)
			}
		}
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
