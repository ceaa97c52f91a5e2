package ports

import (
	"context"

	"github.com/bnema/propman-cli/internal/domain"
)

// Transport performs a single HTTP exchange. An empty accessToken sends the
// request anonymously. Failures with no response wrap domain.ErrNetworkUnreachable.
type Transport interface {
	Do(ctx context.Context, req domain.Request, accessToken string) (domain.Response, error)
}

type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error)
}
