package ports

import "context"

type ConnectivityProbe interface {
	Probe(ctx context.Context) bool
}
