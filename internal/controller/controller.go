// Package controller implements the dispatch engine's HTTP request
// handlers and the thin Controller wrapper the Kernel dispatches
// through. Each handler is a free function of (state, request, path
// params, auth); none of it touches the wire format directly.
package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
	"github.com/dispatchengine/engine/internal/state"
)

// decodeBody returns the JSON body the Kernel's validation gate
// already decoded and stashed on the request context. A Validated
// controller always has one by the time its Callback runs; an
// unvalidated controller that calls this falls back to reading
// r.Body directly.
func decodeBody(r *http.Request) (map[string]any, bool) {
	if body := ctxutil.GetBody(r.Context()); body != nil {
		return body, true
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, false
	}
	return body, true
}

// Response is what a Callback returns; the Kernel is responsible for
// writing it to the wire and for the CORS/error-mapping steps that
// wrap every Callback invocation.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func Empty(status int) *Response {
	return &Response{Status: status, Header: http.Header{}}
}

func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Empty(http.StatusInternalServerError)
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &Response{Status: status, Header: h, Body: body}
}

// Callback is the signature every concrete handler in this package
// implements.
type Callback func(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response

// Controller pairs a Callback with the policy the Kernel enforces
// before ever invoking it: whether a bearer token is required and
// whether the body must pass validation first.
type Controller struct {
	callback      Callback
	authenticated bool
	validated     bool
	rules         map[string]string
}

func New(cb Callback, authenticated, validated bool, rules map[string]string) *Controller {
	return &Controller{callback: cb, authenticated: authenticated, validated: validated, rules: rules}
}

func (c *Controller) Authenticated() bool { return c.authenticated }

func (c *Controller) Validated() bool { return c.validated }

func (c *Controller) Rules() map[string]string { return c.rules }

func (c *Controller) Call(st *state.State, r *http.Request, params map[string]string, auth *ctxutil.AuthData) *Response {
	return c.callback(st, r, params, auth)
}
