package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/propman-cli/internal/domain"
)

// Client is the entry point used by the CLI for every server interaction.
type Client struct {
	gateway *Gateway
	queue   *ActionQueue
	monitor *ConnectivityMonitor
	cache   *QueryCache
	mutator *Mutator
}

func NewClient(gateway *Gateway, queue *ActionQueue, monitor *ConnectivityMonitor, cache *QueryCache, mutator *Mutator) *Client {
	return &Client{
		gateway: gateway,
		queue:   queue,
		monitor: monitor,
		cache:   cache,
		mutator: mutator,
	}
}

func (c *Client) SendAuthenticated(ctx context.Context, req domain.Request) (domain.Response, error) {
	return c.gateway.Send(ctx, req)
}

func (c *Client) EnqueueOffline(ctx context.Context, actionType, endpoint string, method domain.Method, payload any) (domain.PendingAction, error) {
	return c.queue.Enqueue(ctx, actionType, endpoint, method, payload)
}

func (c *Client) IsOffline() bool {
	return !c.monitor.Online()
}

func (c *Client) RunOptimisticMutation(ctx context.Context, m Mutation) (MutationResult, error) {
	return c.mutator.Run(ctx, m)
}

// Query returns the result for key. Online, a fresh cached value is used and
// anything else is fetched with req. Offline, or when the server turns out to
// be unreachable, the cached value is served however old it is.
func (c *Client) Query(ctx context.Context, key domain.QueryKey, req domain.Request) (json.RawMessage, error) {
	if !c.monitor.Online() {
		return c.cachedWhileOffline(key, domain.ErrNetworkUnreachable)
	}

	value, err := c.cache.Fetch(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		resp, err := c.gateway.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(resp.Body) == 0 || !json.Valid(resp.Body) {
			return json.RawMessage("null"), nil
		}
		return json.RawMessage(resp.Body), nil
	})
	if err != nil && errors.Is(err, domain.ErrNetworkUnreachable) && !errors.Is(err, domain.ErrAuthFailed) {
		c.monitor.Set(false)
		return c.cachedWhileOffline(key, err)
	}
	return value, err
}

func (c *Client) cachedWhileOffline(key domain.QueryKey, cause error) (json.RawMessage, error) {
	if value, ok := c.cache.Get(key); ok {
		return value, nil
	}
	return nil, fmt.Errorf("no saved copy of %s: %w", key, cause)
}

// SaveCache persists the query results changed during this run.
func (c *Client) SaveCache(ctx context.Context) error {
	return c.cache.Flush(ctx)
}
