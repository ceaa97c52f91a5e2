package application

import (
	"strings"

	"github.com/bnema/propman-cli/internal/domain"
)

// Mutation describes a server write with an optimistic cache update.
type Mutation struct {
	// Type tags the queued action, e.g. CREATE_ROOM. Derived from the
	// method and resource when empty.
	Type     string
	Keys     []domain.QueryKey
	Apply    ApplyFunc
	Request  domain.Request
	OnSettle func(resp domain.Response, err error)
}

// MutationResult carries either the server response or, when the mutation
// was deferred, the queued action.
type MutationResult struct {
	Response domain.Response
	Queued   *domain.PendingAction
}

func (r MutationResult) Deferred() bool {
	return r.Queued != nil
}

func (m Mutation) actionType(method domain.Method) string {
	if tag := strings.TrimSpace(m.Type); tag != "" {
		return tag
	}

	verb := map[domain.Method]string{
		domain.MethodPost:   "CREATE",
		domain.MethodPatch:  "UPDATE",
		domain.MethodPut:    "REPLACE",
		domain.MethodDelete: "DELETE",
	}[method]
	resource := strings.ToUpper(strings.ReplaceAll(domain.ResourceFromEndpoint(m.Request.Path), "-", "_"))
	return verb + "_" + resource
}

func (m Mutation) settle(resp domain.Response, err error) {
	if m.OnSettle != nil {
		m.OnSettle(resp, err)
	}
}
