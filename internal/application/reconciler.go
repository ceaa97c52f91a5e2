package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultSettleDelay = time.Second
	DefaultMaxRetries  = 3
)

// EndpointInvalidator drops cached queries affected by a replayed action.
type EndpointInvalidator interface {
	InvalidateEndpoint(endpoint string)
}

type ReconcilerOptions struct {
	SettleDelay time.Duration
	MaxRetries  int
	// PollInterval rechecks the persisted queue while online so actions
	// written by other processes are replayed without a reconnect. Zero disables it.
	PollInterval time.Duration
	Notifier    ports.Notifier
	Invalidator EndpointInvalidator
	Logger      zerolog.Logger
}

// SyncReconciler replays the action queue when connectivity returns.
type SyncReconciler struct {
	queue       *ActionQueue
	sender      Sender
	monitor     *ConnectivityMonitor
	notifier    ports.Notifier
	invalidator EndpointInvalidator
	logger      zerolog.Logger
	settleDelay time.Duration
	maxRetries  int
	poll        time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	draining atomic.Bool
}

func NewSyncReconciler(queue *ActionQueue, sender Sender, monitor *ConnectivityMonitor, opts ReconcilerOptions) *SyncReconciler {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Notifier == nil {
		opts.Notifier = ports.NopNotifier{}
	}
	if opts.PollInterval < 0 {
		opts.PollInterval = 0
	}

	return &SyncReconciler{
		queue:       queue,
		sender:      sender,
		monitor:     monitor,
		notifier:    opts.Notifier,
		invalidator: opts.Invalidator,
		logger:      opts.Logger,
		settleDelay: opts.SettleDelay,
		maxRetries:  opts.MaxRetries,
		poll:        opts.PollInterval,
		sleep:       sleepContext,
	}
}

// Run drains the queue at start when online and after every offline to online
// transition, until ctx ends. With a poll interval it also picks up actions
// queued by other processes while staying online.
func (r *SyncReconciler) Run(ctx context.Context) error {
	updates, unsubscribe := r.monitor.Subscribe()
	defer unsubscribe()

	var tick <-chan time.Time
	if r.poll > 0 {
		ticker := time.NewTicker(r.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	if r.monitor.Online() {
		r.reconnected(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			r.pollQueue(ctx)
		case online, ok := <-updates:
			if !ok {
				return nil
			}
			if online {
				r.reconnected(ctx)
			}
		}
	}
}

func (r *SyncReconciler) reconnected(ctx context.Context) {
	if !r.pending(ctx) {
		return
	}

	if err := r.sleep(ctx, r.settleDelay); err != nil {
		return
	}
	if !r.monitor.Online() {
		r.logger.Debug().Msg("went offline while settling, skipping sync")
		return
	}

	if _, err := r.Drain(ctx); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
		r.logger.Warn().Err(err).Msg("sync pending actions")
	}
}

func (r *SyncReconciler) pollQueue(ctx context.Context) {
	if !r.monitor.Online() || !r.pending(ctx) {
		return
	}
	if _, err := r.Drain(ctx); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
		r.logger.Warn().Err(err).Msg("sync pending actions")
	}
}

// pending reloads the persisted queue and reports whether anything is waiting.
func (r *SyncReconciler) pending(ctx context.Context) bool {
	if err := r.queue.Load(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("reload pending actions")
	}
	return r.queue.Len() > 0
}

// Drain reloads the persisted queue and replays every action once, oldest
// first. A failed replay bumps the retry count and leaves the action queued.
// An action already at the ceiling is dropped before it is sent and reported
// in the summary. A pass is rejected with domain.ErrSyncInProgress while
// another is running.
func (r *SyncReconciler) Drain(ctx context.Context) (domain.SyncSummary, error) {
	if !r.draining.CompareAndSwap(false, true) {
		return domain.SyncSummary{}, domain.ErrSyncInProgress
	}
	defer r.draining.Store(false)

	if !r.monitor.Online() {
		return domain.SyncSummary{}, fmt.Errorf("sync pending actions: %w", domain.ErrNetworkUnreachable)
	}
	if err := r.queue.Load(ctx); err != nil {
		return domain.SyncSummary{}, fmt.Errorf("reload pending actions: %w", err)
	}

	var (
		summary domain.SyncSummary
		stopErr error
	)

pass:
	for _, action := range r.queue.List() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if action.RetryCount >= r.maxRetries {
			if err := r.drop(ctx, &summary, action); err != nil {
				return summary, err
			}
			continue
		}

		_, err := r.sender.Send(ctx, action.Request())
		switch {
		case err == nil:
			if err := r.queue.Dequeue(ctx, action.ID); err != nil && !errors.Is(err, domain.ErrActionNotFound) {
				return summary, fmt.Errorf("dequeue synced action %s: %w", action.ID, err)
			}
			r.logger.Debug().Str("id", action.ID).Str("type", action.Type).Msg("pending action synced")
			summary.Succeeded++
			r.invalidate(action)
		case errors.Is(err, domain.ErrAuthFailed):
			// Remaining actions keep their retry budget for the next session.
			stopErr = err
			break pass
		default:
			bumped, bumpErr := r.queue.BumpRetry(ctx, action.ID)
			if bumpErr != nil {
				if errors.Is(bumpErr, domain.ErrActionNotFound) {
					summary.Failed++
					continue
				}
				return summary, fmt.Errorf("record failed replay of %s: %w", action.ID, errors.Join(err, bumpErr))
			}
			r.logger.Debug().Err(err).Str("id", action.ID).Int("retries", bumped.RetryCount).Msg("pending action replay failed")
			summary.Failed++
		}
	}

	r.notifier.SyncCompleted(ctx, summary)
	return summary, stopErr
}

func (r *SyncReconciler) drop(ctx context.Context, summary *domain.SyncSummary, action domain.PendingAction) error {
	if err := r.queue.Dequeue(ctx, action.ID); err != nil && !errors.Is(err, domain.ErrActionNotFound) {
		return fmt.Errorf("drop exhausted action %s: %w", action.ID, err)
	}
	r.logger.Warn().Str("id", action.ID).Str("type", action.Type).Int("retries", action.RetryCount).Msg("dropping pending action")
	summary.Exhausted = append(summary.Exhausted, action)
	r.invalidate(action)
	return nil
}

func (r *SyncReconciler) invalidate(action domain.PendingAction) {
	if r.invalidator != nil {
		r.invalidator.InvalidateEndpoint(action.Endpoint)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
