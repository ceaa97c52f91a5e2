package toml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/bnema/propman-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const cacheTempFilePattern = ".query-cache-*.toml.tmp"

var (
	ErrMissingCachePath = errors.New("query cache path is empty")
	ErrCorruptCache     = errors.New("query cache file is corrupt")
)

// CacheRepository persists cached query results as a single TOML file, with
// the same atomic replace and lock file as ActionRepository.
type CacheRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.QueryCacheRepository = (*CacheRepository)(nil)

func NewCacheRepository(path string) (*CacheRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingCachePath
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &CacheRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *CacheRepository) Path() string {
	return r.path
}

// Load returns the stored entries. A missing file is an empty cache.
func (r *CacheRepository) Load(ctx context.Context) ([]domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.load()
}

// Update applies change to the stored entries and writes them back ordered by
// key. A corrupt file is treated as empty and overwritten. An error from
// change leaves the file untouched.
func (r *CacheRepository) Update(ctx context.Context, change func([]domain.CacheEntry) ([]domain.CacheEntry, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := lockFile(ctx, r.path, "query cache")
	if err != nil {
		return err
	}
	defer unlock()

	current, err := r.load()
	if errors.Is(err, ErrCorruptCache) {
		current, err = []domain.CacheEntry{}, nil
	}
	if err != nil {
		return err
	}

	next, err := change(current)
	if err != nil {
		return err
	}

	file := cacheFileSchema{Entries: make([]cacheEntrySchema, 0, len(next))}
	for _, entry := range next {
		file.Entries = append(file.Entries, toCacheSchema(entry))
	}
	sort.Slice(file.Entries, func(i, j int) bool {
		return cacheSchemaKey(file.Entries[i]) < cacheSchemaKey(file.Entries[j])
	})
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode query cache file: %w", err)
	}

	return writeAtomic(r.path, cacheTempFilePattern, "query cache", data)
}

func (r *CacheRepository) load() ([]domain.CacheEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.CacheEntry{}, nil
		}
		return nil, fmt.Errorf("read query cache file: %w", err)
	}

	var file cacheFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decode query cache file: %w", ErrCorruptCache, err)
	}
	if err := file.validateVersion(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}

	entries := make([]domain.CacheEntry, 0, len(file.Entries))
	for _, stored := range file.Entries {
		entry, err := fromCacheSchema(stored)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func cacheSchemaKey(entry cacheEntrySchema) string {
	return domain.NewQueryKey(entry.Resource, entry.Params).String()
}

func toCacheSchema(entry domain.CacheEntry) cacheEntrySchema {
	var params map[string]string
	if len(entry.Key.Params) > 0 {
		params = make(map[string]string, len(entry.Key.Params))
		for name, value := range entry.Key.Params {
			params[name] = value
		}
	}

	return cacheEntrySchema{
		Resource:  entry.Key.Resource,
		Params:    params,
		Value:     string(entry.Value),
		Stale:     entry.Stale,
		UpdatedAt: entry.UpdatedAt.UTC(),
	}
}

func fromCacheSchema(stored cacheEntrySchema) (domain.CacheEntry, error) {
	key := domain.NewQueryKey(stored.Resource, stored.Params)
	if key.Resource == "" {
		return domain.CacheEntry{}, errors.New("decode query cache entry: resource is empty")
	}
	if !json.Valid([]byte(stored.Value)) {
		return domain.CacheEntry{}, fmt.Errorf("decode query cache entry %q: value is not valid json", key)
	}

	return domain.CacheEntry{
		Key:       key,
		Value:     json.RawMessage(stored.Value),
		Stale:     stored.Stale,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}
