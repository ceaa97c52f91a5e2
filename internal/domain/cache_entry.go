package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// CacheEntry is a query result as kept between runs.
type CacheEntry struct {
	Key       QueryKey
	Value     json.RawMessage
	Stale     bool
	UpdatedAt time.Time
}

func (e CacheEntry) Clone() CacheEntry {
	e.Value = bytes.Clone(e.Value)
	if e.Key.Params != nil {
		params := make(map[string]string, len(e.Key.Params))
		for name, value := range e.Key.Params {
			params[name] = value
		}
		e.Key.Params = params
	}
	return e
}
