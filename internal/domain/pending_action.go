package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Method string

const (
	MethodPost   Method = http.MethodPost
	MethodPatch  Method = http.MethodPatch
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

func ParseMethod(raw string) (Method, error) {
	method := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if !method.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, raw)
	}
	return method, nil
}

func (m Method) Valid() bool {
	switch m {
	case MethodPost, MethodPatch, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// PendingAction is a mutation recorded while offline, replayed in insertion order.
type PendingAction struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Endpoint   string          `json:"endpoint"`
	Method     Method          `json:"method"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
}

func (a PendingAction) EnqueuedAt() time.Time {
	return time.UnixMilli(a.Timestamp)
}

func (a PendingAction) Request() Request {
	req := Request{
		Method: string(a.Method),
		Path:   a.Endpoint,
	}
	if len(a.Payload) > 0 {
		req.Body = a.Payload
	}
	return req
}

func (a PendingAction) Clone() PendingAction {
	if a.Payload != nil {
		a.Payload = append(json.RawMessage(nil), a.Payload...)
	}
	return a
}
