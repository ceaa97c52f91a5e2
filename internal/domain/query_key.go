package domain

import (
	"net/url"
	"strings"
)

// QueryKey identifies a cached query result: a resource name plus filter parameters.
type QueryKey struct {
	Resource string
	Params   map[string]string
}

func NewQueryKey(resource string, params map[string]string) QueryKey {
	return QueryKey{Resource: strings.Trim(strings.TrimSpace(resource), "/"), Params: params}
}

// String returns the canonical form, e.g. "rooms?floor=2&status=free".
func (k QueryKey) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}

	values := url.Values{}
	for name, value := range k.Params {
		values.Set(name, value)
	}
	return k.Resource + "?" + values.Encode()
}

// Matches reports whether other falls under k: same resource path prefix and
// every parameter of k present in other with the same value.
func (k QueryKey) Matches(other QueryKey) bool {
	if other.Resource != k.Resource && !strings.HasPrefix(other.Resource, k.Resource+"/") {
		return false
	}
	for name, value := range k.Params {
		if other.Params[name] != value {
			return false
		}
	}
	return true
}

// ResourceFromEndpoint returns the first path segment of an API endpoint.
func ResourceFromEndpoint(endpoint string) string {
	trimmed := strings.Trim(strings.TrimSpace(endpoint), "/")
	if i := strings.IndexAny(trimmed, "/?"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}
