package ports

import (
	"context"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
)

// Notifier receives the user-facing signals raised by the request layer.
type Notifier interface {
	SessionExpired(ctx context.Context)
	RateLimited(ctx context.Context, retryAfter time.Duration)
	SyncCompleted(ctx context.Context, summary domain.SyncSummary)
}

type NopNotifier struct{}

func (NopNotifier) SessionExpired(context.Context) {}

func (NopNotifier) RateLimited(context.Context, time.Duration) {}

func (NopNotifier) SyncCompleted(context.Context, domain.SyncSummary) {}
