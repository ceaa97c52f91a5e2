package ports

import (
	"context"

	"github.com/bnema/propman-cli/internal/domain"
)

type PendingActionRepository interface {
	Load(ctx context.Context) ([]domain.PendingAction, error)
	Save(ctx context.Context, actions []domain.PendingAction) error
	// Update reads the stored queue, applies change and stores the result as
	// one step that no other writer, in this process or another, can interleave
	// with. An error from change is returned as is and nothing is written.
	Update(ctx context.Context, change func([]domain.PendingAction) ([]domain.PendingAction, error)) ([]domain.PendingAction, error)
}
