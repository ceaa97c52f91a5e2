package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
)

const (
	DefaultRefreshPath   = "/auth/refresh"
	maxAuthResponseBytes = 1 << 20
)

var ErrRefreshRejected = errors.New("refresh token rejected")

type API struct {
	BaseURL     string
	RefreshPath string
}

// RefreshAdapter exchanges a refresh token for a new credential pair. It talks
// to the API directly so that a rejected refresh never re-enters the gateway.
type RefreshAdapter struct {
	API            API
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.TokenRefresher = RefreshAdapter{}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (a RefreshAdapter) Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	path := a.API.RefreshPath
	if path == "" {
		path = DefaultRefreshPath
	}
	endpoint, err := buildAPIURL(a.API.BaseURL, path)
	if err != nil {
		return domain.Credentials{}, err
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("encode refresh request: %w", err)
	}

	requestCtx, cancel := a.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient().Do(req)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("refresh credentials: %w: %w", domain.ErrNetworkUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Credentials{}, fmt.Errorf("%w: %s", ErrRefreshRejected, decodeError(resp))
	}

	var creds domain.Credentials
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAuthResponseBytes)).Decode(&creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if strings.TrimSpace(creds.AccessToken) == "" {
		return domain.Credentials{}, errors.New("refresh response missing access token")
	}

	return creds, nil
}

func (a RefreshAdapter) httpClient() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return http.DefaultClient
}

func (a RefreshAdapter) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := a.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func decodeError(resp *http.Response) string {
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAuthResponseBytes)).Decode(&body); err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	switch {
	case body.Message != "":
		return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Message)
	case body.Error != "":
		return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Error)
	default:
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
