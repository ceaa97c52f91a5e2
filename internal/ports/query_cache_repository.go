package ports

import (
	"context"

	"github.com/bnema/propman-cli/internal/domain"
)

// QueryCacheRepository keeps cached query results between runs.
type QueryCacheRepository interface {
	Load(ctx context.Context) ([]domain.CacheEntry, error)
	// Update applies change to the stored entries as one read-modify-write,
	// exclusive across processes.
	Update(ctx context.Context, change func([]domain.CacheEntry) ([]domain.CacheEntry, error)) error
}
