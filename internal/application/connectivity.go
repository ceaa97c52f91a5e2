package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/propman-cli/internal/ports"
	"github.com/rs/zerolog"
)

const defaultProbeInterval = 5 * time.Second

// ConnectivityMonitor tracks whether the API is reachable and fans changes out
// to subscribers. Subscribers always observe the latest state; intermediate
// flips may be coalesced.
type ConnectivityMonitor struct {
	logger zerolog.Logger

	mu          sync.Mutex
	online      bool
	nextID      int
	subscribers map[int]chan bool
}

func NewConnectivityMonitor(online bool, logger zerolog.Logger) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		logger:      logger,
		online:      online,
		subscribers: make(map[int]chan bool),
	}
}

func (m *ConnectivityMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// Set records the new state and reports whether it changed.
func (m *ConnectivityMonitor) Set(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return false
	}
	m.online = online
	m.logger.Info().Bool("online", online).Msg("connectivity changed")

	for _, ch := range m.subscribers {
		publishLatest(ch, online)
	}
	return true
}

// Subscribe returns a channel of state changes and a function that releases it.
func (m *ConnectivityMonitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			close(ch)
			m.mu.Unlock()
		})
	}
}

// Watch probes reachability immediately and then every interval until ctx ends.
func (m *ConnectivityMonitor) Watch(ctx context.Context, probe ports.ConnectivityProbe, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	m.Set(probe.Probe(ctx))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Set(probe.Probe(ctx))
		}
	}
}

// publishLatest replaces any unread value so a slow reader sees the newest state.
// Callers hold m.mu, making this the only sender on ch.
func publishLatest(ch chan bool, value bool) {
	select {
	case ch <- value:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}
	ch <- value
}
