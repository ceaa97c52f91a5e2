package application

import (
	"time"

	"github.com/bnema/propman-cli/internal/domain"
)

// Status is the snapshot shown by `pm status`.
type Status struct {
	Authenticated    bool
	Online           bool
	TokenExpiresAt   time.Time
	Pending          []domain.PendingAction
	MaxRetries       int
	CheckedAt        time.Time
	AccessTokenValid bool
}

func (s Status) PendingCount() int {
	return len(s.Pending)
}
