package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
)

// ApplyFunc computes the optimistic value for one key. Returning a nil value
// leaves the entry untouched.
type ApplyFunc func(key domain.QueryKey, current json.RawMessage, found bool) (json.RawMessage, error)

type cacheEntry struct {
	key       domain.QueryKey
	value     json.RawMessage
	stale     bool
	updatedAt time.Time
	// carried marks entries loaded from a previous run. They are served while
	// offline but never count as fresh.
	carried bool
}

func (e cacheEntry) clone() cacheEntry {
	e.value = bytes.Clone(e.value)
	return e
}

func (e cacheEntry) persisted() domain.CacheEntry {
	return domain.CacheEntry{Key: e.key, Value: e.value, Stale: e.stale, UpdatedAt: e.updatedAt}.Clone()
}

// CacheSnapshot is the state of a set of keys captured before a mutation.
type CacheSnapshot struct {
	entries map[string]snapshotEntry
}

type snapshotEntry struct {
	present bool
	entry   cacheEntry
}

// QueryCache holds server query results keyed by domain.QueryKey. Once loaded
// from a store it tracks which keys changed so Flush writes only those.
type QueryCache struct {
	clock ports.Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
	store   ports.QueryCacheRepository
	dirty   map[string]struct{}
}

type CachedQuery struct {
	Key       domain.QueryKey
	Stale     bool
	UpdatedAt time.Time
	Size      int
}

func NewQueryCache(clock ports.Clock) *QueryCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &QueryCache{clock: clock, entries: make(map[string]cacheEntry), dirty: make(map[string]struct{})}
}

// Load replaces the cache with the entries kept in store and binds store for
// Flush. When store cannot be read the cache starts empty but stays bound.
func (c *QueryCache) Load(ctx context.Context, store ports.QueryCacheRepository) error {
	stored, err := store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = store
	c.entries = make(map[string]cacheEntry, len(stored))
	c.dirty = make(map[string]struct{})
	if err != nil {
		return fmt.Errorf("load query cache: %w", err)
	}
	for _, entry := range stored {
		c.entries[entry.Key.String()] = cacheEntry{
			key:       entry.Key,
			value:     bytes.Clone(entry.Value),
			stale:     entry.Stale,
			updatedAt: entry.UpdatedAt,
			carried:   true,
		}
	}
	return nil
}

// Flush writes the keys changed since Load back to the store. Keys this cache
// did not touch keep whatever other processes stored meanwhile.
func (c *QueryCache) Flush(ctx context.Context) error {
	c.mu.RLock()
	store := c.store
	changed := make(map[string]*domain.CacheEntry, len(c.dirty))
	for id := range c.dirty {
		entry, ok := c.entries[id]
		if !ok {
			changed[id] = nil
			continue
		}
		persisted := entry.persisted()
		changed[id] = &persisted
	}
	c.mu.RUnlock()

	if store == nil || len(changed) == 0 {
		return nil
	}

	err := store.Update(ctx, func(stored []domain.CacheEntry) ([]domain.CacheEntry, error) {
		merged := make([]domain.CacheEntry, 0, len(stored)+len(changed))
		for _, entry := range stored {
			if _, ok := changed[entry.Key.String()]; !ok {
				merged = append(merged, entry)
			}
		}
		for _, entry := range changed {
			if entry != nil {
				merged = append(merged, *entry)
			}
		}
		return merged, nil
	})
	if err != nil {
		return fmt.Errorf("persist query cache: %w", err)
	}

	c.mu.Lock()
	for id := range changed {
		delete(c.dirty, id)
	}
	c.mu.Unlock()
	return nil
}

// Get returns a copy of the cached value. Stale entries are still returned.
func (c *QueryCache) Get(key domain.QueryKey) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return bytes.Clone(entry.value), true
}

func (c *QueryCache) Set(key domain.QueryKey, value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.String()
	c.entries[id] = cacheEntry{key: key, value: bytes.Clone(value), updatedAt: c.clock.Now()}
	c.dirty[id] = struct{}{}
}

// Fetch returns the cached value when it is fresh, otherwise calls fetch and
// caches its result. Entries carried over from a previous run are refetched.
func (c *QueryCache) Fetch(ctx context.Context, key domain.QueryKey, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	c.mu.RLock()
	entry, ok := c.entries[key.String()]
	c.mu.RUnlock()
	if ok && !entry.stale && !entry.carried {
		return bytes.Clone(entry.value), nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	c.Set(key, value)
	return bytes.Clone(value), nil
}

// Invalidate marks every entry matched by one of patterns as stale and
// returns how many entries were affected.
func (c *QueryCache) Invalidate(patterns ...domain.QueryKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for id, entry := range c.entries {
		for _, pattern := range patterns {
			if pattern.Matches(entry.key) {
				entry.stale = true
				c.entries[id] = entry
				c.dirty[id] = struct{}{}
				count++
				break
			}
		}
	}
	return count
}

// InvalidateEndpoint marks every query of the resource behind endpoint as stale.
func (c *QueryCache) InvalidateEndpoint(endpoint string) {
	resource := domain.ResourceFromEndpoint(endpoint)
	if resource == "" {
		return
	}
	c.Invalidate(domain.NewQueryKey(resource, nil))
}

// Mutate snapshots keys and writes the optimistic values computed by apply in
// one critical section. If apply fails nothing is written.
func (c *QueryCache) Mutate(keys []domain.QueryKey, apply ApplyFunc) (CacheSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := CacheSnapshot{entries: make(map[string]snapshotEntry, len(keys))}
	updates := make(map[string]cacheEntry, len(keys))
	now := c.clock.Now()

	for _, key := range keys {
		id := key.String()
		if _, seen := snapshot.entries[id]; seen {
			continue
		}

		entry, found := c.entries[id]
		snapshot.entries[id] = snapshotEntry{present: found, entry: entry.clone()}
		if apply == nil {
			continue
		}

		next, err := apply(key, bytes.Clone(entry.value), found)
		if err != nil {
			return CacheSnapshot{}, fmt.Errorf("apply optimistic update to %s: %w", id, err)
		}
		if next == nil {
			continue
		}
		updates[id] = cacheEntry{key: key, value: bytes.Clone(next), stale: entry.stale, updatedAt: now, carried: entry.carried}
	}

	for id, entry := range updates {
		c.entries[id] = entry
		c.dirty[id] = struct{}{}
	}
	return snapshot, nil
}

// Restore puts every key of snapshot back exactly as it was captured.
func (c *QueryCache) Restore(snapshot CacheSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, saved := range snapshot.entries {
		c.dirty[id] = struct{}{}
		if !saved.present {
			delete(c.entries, id)
			continue
		}
		c.entries[id] = saved.entry.clone()
	}
}

// Entries lists cached queries ordered by key.
func (c *QueryCache) Entries() []CachedQuery {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]CachedQuery, 0, len(c.entries))
	for _, entry := range c.entries {
		result = append(result, CachedQuery{
			Key:       entry.key,
			Stale:     entry.stale,
			UpdatedAt: entry.updatedAt,
			Size:      len(entry.value),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.String() < result[j].Key.String()
	})
	return result
}
