package domain

import (
	"net/http"
	"net/url"
)

type Request struct {
	Method string
	Path   string
	Body   any
	Params url.Values
	// SkipAuthRefresh marks calls such as login where a 401 means bad input
	// rather than an expired token.
	SkipAuthRefresh bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r Response) OK() bool {
	return r.Status >= http.StatusOK && r.Status < http.StatusBadRequest
}
