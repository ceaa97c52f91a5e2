// Package notify renders request-layer signals as one-line terminal toasts.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
)

const LoginHint = "Run `pm login --expired` to sign in again."

type Notifier struct {
	mu     sync.Mutex
	out    io.Writer
	styles styles
}

var _ ports.Notifier = (*Notifier)(nil)

func New(out io.Writer) *Notifier {
	if out == nil {
		out = io.Discard
	}
	return &Notifier{out: out, styles: newStyles()}
}

func (n *Notifier) SessionExpired(context.Context) {
	n.write(
		n.styles.failure.Render(domain.UserMessage(domain.ErrAuthFailed)),
		n.styles.hint.Render(LoginHint),
	)
}

func (n *Notifier) RateLimited(_ context.Context, retryAfter time.Duration) {
	n.write(n.styles.warning.Render(domain.UserMessage(&domain.RateLimitedError{RetryAfter: retryAfter})))
}

// SyncCompleted stays quiet for a pass that had nothing to do.
func (n *Notifier) SyncCompleted(_ context.Context, summary domain.SyncSummary) {
	if summary.Attempted() == 0 && len(summary.Exhausted) == 0 {
		return
	}

	headline := n.styles.success
	if summary.Failed > 0 || len(summary.Exhausted) > 0 {
		headline = n.styles.warning
	}

	lines := []string{headline.Render(summary.Message())}
	for _, action := range summary.Exhausted {
		lines = append(lines, n.styles.detail.Render(fmt.Sprintf("%s %s %s: %s",
			action.Type, action.Method, action.Endpoint, domain.UserMessage(domain.ErrQueueExhausted))))
	}
	n.write(lines...)
}

func (n *Notifier) Connectivity(online bool) {
	if online {
		n.write(n.styles.success.Render("Back online."))
		return
	}
	n.write(n.styles.warning.Render("Offline, changes will be queued."))
}

// Queued confirms that a mutation was saved locally for later replay.
func (n *Notifier) Queued(action domain.PendingAction) {
	n.write(n.styles.info.Render(fmt.Sprintf("Saved offline, will sync when back online (%s %s).", action.Type, action.Endpoint)))
}

func (n *Notifier) write(lines ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, _ = io.WriteString(n.out, strings.Join(lines, "\n")+"\n")
}
