package application

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/google/uuid"
)

// Resource is a REST collection served at /{Path}[/{id}] whose list query
// returns a JSON array of objects carrying an "id" field.
type Resource struct {
	Path   string
	Entity string
}

var (
	Rooms           = Resource{Path: "rooms", Entity: "ROOM"}
	Residents       = Resource{Path: "residents", Entity: "RESIDENT"}
	Invoices        = Resource{Path: "invoices", Entity: "INVOICE"}
	LaundryBookings = Resource{Path: "laundry", Entity: "LAUNDRY_BOOKING"}
	Complaints      = Resource{Path: "complaints", Entity: "COMPLAINT"}
)

// ResourceMutations lists the collections managed from the CLI.
func ResourceMutations() []Resource {
	return []Resource{Rooms, Residents, Invoices, LaundryBookings, Complaints}
}

func LookupResource(path string) (Resource, bool) {
	path = domain.ResourceFromEndpoint(path)
	for _, resource := range ResourceMutations() {
		if resource.Path == path {
			return resource, true
		}
	}
	return Resource{}, false
}

func (r Resource) ListKey() domain.QueryKey {
	return domain.NewQueryKey(r.Path, nil)
}

func (r Resource) ItemKey(id string) domain.QueryKey {
	return domain.NewQueryKey(r.Path+"/"+id, nil)
}

func (r Resource) ListRequest() domain.Request {
	return domain.Request{Method: http.MethodGet, Path: "/" + r.Path}
}

func (r Resource) ItemRequest(id string) domain.Request {
	return domain.Request{Method: http.MethodGet, Path: "/" + r.Path + "/" + id}
}

// Create appends fields to the cached list. Entries without an id get a
// placeholder until the list is refetched.
func (r Resource) Create(fields map[string]any) Mutation {
	entry := copyFields(fields)
	if _, ok := entry["id"]; !ok {
		entry["id"] = "pending-" + uuid.NewString()
	}

	return Mutation{
		Type: "CREATE_" + r.Entity,
		Keys: []domain.QueryKey{r.ListKey()},
		Apply: func(_ domain.QueryKey, current json.RawMessage, found bool) (json.RawMessage, error) {
			if !found {
				return nil, nil
			}
			items, ok := decodeList(current)
			if !ok {
				return nil, nil
			}
			return json.Marshal(append(items, entry))
		},
		Request: domain.Request{Method: http.MethodPost, Path: "/" + r.Path, Body: copyFields(fields)},
	}
}

// Update merges patch into the cached list entry and item with id.
func (r Resource) Update(id string, patch map[string]any) Mutation {
	return Mutation{
		Type: "UPDATE_" + r.Entity,
		Keys: []domain.QueryKey{r.ListKey(), r.ItemKey(id)},
		Apply: func(key domain.QueryKey, current json.RawMessage, found bool) (json.RawMessage, error) {
			if !found {
				return nil, nil
			}
			if key.Resource == r.Path {
				items, ok := decodeList(current)
				if !ok {
					return nil, nil
				}
				for _, item := range items {
					if matchesID(item, id) {
						mergeFields(item, patch)
					}
				}
				return json.Marshal(items)
			}

			var item map[string]any
			if err := json.Unmarshal(current, &item); err != nil || item == nil {
				return nil, nil
			}
			mergeFields(item, patch)
			return json.Marshal(item)
		},
		Request: domain.Request{Method: http.MethodPatch, Path: "/" + r.Path + "/" + id, Body: copyFields(patch)},
	}
}

// Delete removes the entry with id from the cached list.
func (r Resource) Delete(id string) Mutation {
	return Mutation{
		Type: "DELETE_" + r.Entity,
		Keys: []domain.QueryKey{r.ListKey(), r.ItemKey(id)},
		Apply: func(key domain.QueryKey, current json.RawMessage, found bool) (json.RawMessage, error) {
			if !found || key.Resource != r.Path {
				return nil, nil
			}
			items, ok := decodeList(current)
			if !ok {
				return nil, nil
			}
			kept := make([]map[string]any, 0, len(items))
			for _, item := range items {
				if !matchesID(item, id) {
					kept = append(kept, item)
				}
			}
			return json.Marshal(kept)
		},
		Request: domain.Request{Method: http.MethodDelete, Path: "/" + r.Path + "/" + id},
	}
}

// SetResidentActive toggles a resident's isActive flag.
func SetResidentActive(id string, active bool) Mutation {
	return Residents.Update(id, map[string]any{"isActive": active})
}

// ParseFields turns key=value arguments into a request body. Values that
// parse as JSON (numbers, booleans, quoted strings, objects) keep their type.
func ParseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q: expected key=value", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		fields[name] = value
	}
	return fields, nil
}

func decodeList(raw json.RawMessage) ([]map[string]any, bool) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func matchesID(item map[string]any, id string) bool {
	value, ok := item["id"]
	if !ok || value == nil {
		return false
	}
	return fmt.Sprint(value) == id
}

func mergeFields(dst, src map[string]any) {
	for name, value := range src {
		dst[name] = value
	}
}

func copyFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	mergeFields(copied, fields)
	return copied
}
