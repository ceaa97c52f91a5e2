package toml

import (
	"fmt"
	"time"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int                   `toml:"version"`
	Actions []pendingActionSchema `toml:"actions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported pending actions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// pendingActionSchema keeps the payload as JSON text so that replay sends the
// exact bytes captured at enqueue time.
type pendingActionSchema struct {
	ID         string `toml:"id"`
	Type       string `toml:"type"`
	Endpoint   string `toml:"endpoint"`
	Method     string `toml:"method"`
	Payload    string `toml:"payload,omitempty"`
	Timestamp  int64  `toml:"timestamp"`
	RetryCount int    `toml:"retry_count"`
}

type cacheFileSchema struct {
	Version int                `toml:"version"`
	Entries []cacheEntrySchema `toml:"entries"`
}

func (s *cacheFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s cacheFileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported query cache schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// cacheEntrySchema stores the cached response as JSON text.
type cacheEntrySchema struct {
	Resource  string            `toml:"resource"`
	Params    map[string]string `toml:"params,omitempty"`
	Value     string            `toml:"value"`
	Stale     bool              `toml:"stale"`
	UpdatedAt time.Time         `toml:"updated_at"`
}
