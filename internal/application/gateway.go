package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 10 * time.Second

// Sender is the authenticated request path used by the queue reconciler and mutator.
type Sender interface {
	Send(ctx context.Context, req domain.Request) (domain.Response, error)
}

type GatewayOptions struct {
	Timeout  time.Duration
	Notifier ports.Notifier
	Clock    ports.Clock
	Logger   zerolog.Logger
}

// Gateway attaches credentials to outgoing requests and recovers from expired
// access tokens with at most one refresh in flight.
type Gateway struct {
	transport ports.Transport
	refresher ports.TokenRefresher
	session   *Session
	notifier  ports.Notifier
	clock     ports.Clock
	logger    zerolog.Logger
	timeout   time.Duration

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

type refreshResult struct {
	accessToken string
	err         error
}

func NewGateway(transport ports.Transport, refresher ports.TokenRefresher, session *Session, opts GatewayOptions) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = ports.NopNotifier{}
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}

	return &Gateway{
		transport: transport,
		refresher: refresher,
		session:   session,
		notifier:  opts.Notifier,
		clock:     opts.Clock,
		logger:    opts.Logger,
		timeout:   opts.Timeout,
	}
}

// Send performs req with the current access token. A 401 triggers a refresh
// (shared with any concurrent caller) and exactly one retry.
func (g *Gateway) Send(ctx context.Context, req domain.Request) (domain.Response, error) {
	sent := g.session.Credentials().AccessToken
	token := g.session.usableToken(sent)
	resp, err := g.dispatch(ctx, req, token)
	if err != nil {
		return resp, err
	}
	if resp.Status != http.StatusUnauthorized || req.SkipAuthRefresh {
		return resp, g.classify(ctx, resp)
	}

	g.logger.Debug().Err(domain.ErrAuthExpired).Str("path", req.Path).Msg("access token rejected")
	refreshed, err := g.awaitRefresh(ctx, sent)
	if err != nil {
		return domain.Response{}, err
	}

	resp, err = g.dispatch(ctx, req, refreshed)
	if err != nil {
		return resp, err
	}
	if resp.Status == http.StatusUnauthorized {
		g.expireToken(ctx, refreshed, "token rejected after refresh")
		return resp, fmt.Errorf("%w: token rejected after refresh", domain.ErrAuthFailed)
	}
	return resp, g.classify(ctx, resp)
}

func (g *Gateway) dispatch(ctx context.Context, req domain.Request, accessToken string) (domain.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.transport.Do(reqCtx, req, accessToken)
	if err != nil {
		g.logger.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("request failed")
		return domain.Response{}, err
	}
	return resp, nil
}

// awaitRefresh returns a token to retry with. When another refresh is already
// running the caller parks until it settles. When the session changed since
// sent was attached, the caller reuses the new token, or fails if the session
// has ended in the meantime, without refreshing again.
func (g *Gateway) awaitRefresh(ctx context.Context, sent string) (string, error) {
	g.mu.Lock()
	if g.refreshing {
		wait := make(chan refreshResult, 1)
		g.waiters = append(g.waiters, wait)
		g.mu.Unlock()

		select {
		case result := <-wait:
			return result.accessToken, result.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if current := g.session.Credentials().AccessToken; current != sent {
		if usable := g.session.usableToken(current); usable != "" {
			g.mu.Unlock()
			return usable, nil
		}
		if current == "" {
			g.mu.Unlock()
			return "", fmt.Errorf("%w: session ended", domain.ErrAuthFailed)
		}
	}

	g.refreshing = true
	g.mu.Unlock()

	token, err := g.refresh(ctx)

	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.refreshing = false
	g.mu.Unlock()

	for _, wait := range waiters {
		wait <- refreshResult{accessToken: token, err: err}
	}

	return token, err
}

func (g *Gateway) refresh(ctx context.Context) (string, error) {
	// Waiters depend on this outcome, so the caller's cancellation must not abort it.
	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	refreshToken, err := g.session.RefreshToken(refreshCtx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("read refresh token")
	}
	if refreshToken == "" {
		g.expire(refreshCtx, "no refresh token")
		return "", fmt.Errorf("%w: no refresh token", domain.ErrAuthFailed)
	}

	creds, err := g.refresher.Refresh(refreshCtx, refreshToken)
	if err == nil && strings.TrimSpace(creds.AccessToken) == "" {
		err = ErrMissingAccessToken
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("refresh credentials")
		g.expire(refreshCtx, "refresh rejected")
		return "", fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}

	if err := g.session.Replace(refreshCtx, creds); err != nil {
		g.logger.Warn().Err(err).Msg("persist refreshed credentials")
	}
	g.logger.Debug().Msg("credentials refreshed")

	return strings.TrimSpace(creds.AccessToken), nil
}

func (g *Gateway) expire(ctx context.Context, reason string) {
	g.logger.Warn().Str("reason", reason).Msg("session expired")
	if err := g.session.Clear(ctx); err != nil {
		g.logger.Error().Err(err).Msg("clear session")
	}
	g.notifier.SessionExpired(ctx)
}

// expireToken ends the session that issued token. Concurrent callers holding
// the same rejected token share one expiry.
func (g *Gateway) expireToken(ctx context.Context, token, reason string) {
	cleared, err := g.session.ClearIfCurrent(ctx, token)
	if err != nil {
		g.logger.Error().Err(err).Msg("clear session")
	}
	if !cleared {
		g.logger.Debug().Str("reason", reason).Msg("session already ended")
		return
	}
	g.logger.Warn().Str("reason", reason).Msg("session expired")
	g.notifier.SessionExpired(ctx)
}

func (g *Gateway) classify(ctx context.Context, resp domain.Response) error {
	switch {
	case resp.OK():
		return nil
	case resp.Status == http.StatusTooManyRequests:
		retryAfter := retryAfterHint(resp, g.clock.Now())
		g.notifier.RateLimited(ctx, retryAfter)
		return &domain.RateLimitedError{RetryAfter: retryAfter}
	case resp.Status >= http.StatusInternalServerError:
		return &domain.ServerError{Status: resp.Status}
	default:
		return &domain.ClientError{Status: resp.Status, Message: serverMessage(resp.Body)}
	}
}

type errorBody struct {
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	RetryAfter json.RawMessage `json:"retryAfter"`
}

// retryAfterHint prefers the Retry-After header, then a retryAfter body field.
func retryAfterHint(resp domain.Response, now time.Time) time.Duration {
	if header := strings.TrimSpace(resp.Header.Get("Retry-After")); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
		if at, err := http.ParseTime(header); err == nil {
			if wait := at.Sub(now); wait > 0 {
				return wait.Round(time.Second)
			}
			return 0
		}
	}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil && len(body.RetryAfter) > 0 {
		raw := strings.Trim(string(body.RetryAfter), `"`)
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds >= 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}

	return domain.DefaultRetryAfter
}

func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		return parsed.Error
	}

	if len(trimmed) > 200 || strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return trimmed
}

var _ Sender = (*Gateway)(nil)
