package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/rs/zerolog"
)

// Mutator runs optimistic mutations: the cache is updated first, the request
// is sent (or queued while offline) and the cache is restored byte for byte
// if the server rejects the change.
type Mutator struct {
	cache   *QueryCache
	sender  Sender
	queue   *ActionQueue
	monitor *ConnectivityMonitor
	logger  zerolog.Logger
	locks   keyLocks
}

func NewMutator(cache *QueryCache, sender Sender, queue *ActionQueue, monitor *ConnectivityMonitor, logger zerolog.Logger) *Mutator {
	return &Mutator{
		cache:   cache,
		sender:  sender,
		queue:   queue,
		monitor: monitor,
		logger:  logger,
	}
}

// Run applies m. Once the optimistic update is written the mutation always
// runs to completion: cancellation of ctx is ignored from that point on.
func (r *Mutator) Run(ctx context.Context, m Mutation) (MutationResult, error) {
	method, err := domain.ParseMethod(m.Request.Method)
	if err != nil {
		return MutationResult{}, err
	}
	m.Request.Method = string(method)
	if strings.TrimSpace(m.Request.Path) == "" {
		return MutationResult{}, ErrMissingEndpoint
	}
	ctx = context.WithoutCancel(ctx)

	unlock := r.locks.lock(m.Keys)
	defer unlock()

	snapshot, err := r.cache.Mutate(m.Keys, m.Apply)
	if err != nil {
		return MutationResult{}, err
	}

	if !r.monitor.Online() {
		return r.enqueue(ctx, m, method, snapshot)
	}

	resp, err := r.sender.Send(ctx, m.Request)
	switch {
	// A failed refresh can wrap a network error, but the session is gone and
	// replaying later would only fail again.
	case errors.Is(err, domain.ErrAuthFailed):
		r.cache.Restore(snapshot)
		r.logger.Debug().Err(err).Str("type", m.actionType(method)).Msg("mutation not authorized, optimistic update rolled back")
		m.settle(resp, err)
		return MutationResult{Response: resp}, err
	case errors.Is(err, domain.ErrNetworkUnreachable):
		r.monitor.Set(false)
		return r.enqueue(ctx, m, method, snapshot)
	case err != nil:
		r.cache.Restore(snapshot)
		r.logger.Debug().Err(err).Str("type", m.actionType(method)).Msg("mutation rejected, optimistic update rolled back")
		m.settle(resp, err)
		return MutationResult{Response: resp}, err
	}

	r.cache.Invalidate(m.Keys...)
	m.settle(resp, nil)
	return MutationResult{Response: resp}, nil
}

// enqueue records the mutation for replay. The optimistic value stays in the
// cache unless the queue itself cannot be written.
func (r *Mutator) enqueue(ctx context.Context, m Mutation, method domain.Method, snapshot CacheSnapshot) (MutationResult, error) {
	action, err := r.queue.Enqueue(ctx, m.actionType(method), endpointWithParams(m.Request), method, m.Request.Body)
	if err != nil {
		r.cache.Restore(snapshot)
		return MutationResult{}, fmt.Errorf("queue offline mutation: %w", err)
	}
	return MutationResult{Queued: &action}, nil
}

func endpointWithParams(req domain.Request) string {
	if len(req.Params) == 0 {
		return req.Path
	}
	separator := "?"
	if strings.Contains(req.Path, "?") {
		separator = "&"
	}
	return req.Path + separator + req.Params.Encode()
}

// keyLocks serializes mutations touching the same resource.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *keyLocks) lock(keys []domain.QueryKey) func() {
	names := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		name := domain.ResourceFromEndpoint(key.Resource)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	// Fixed acquisition order prevents deadlock between overlapping mutations.
	sort.Strings(names)

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	held := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		mu, ok := l.locks[name]
		if !ok {
			mu = &sync.Mutex{}
			l.locks[name] = mu
		}
		held = append(held, mu)
	}
	l.mu.Unlock()

	for _, mu := range held {
		mu.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
