// Package interceptors composes ordered middleware around outgoing HTTP requests.
//
// Stages are registered outermost first: the first stage sees the request
// first and the response last. A Chain is an http.RoundTripper, so it plugs
// into a regular http.Client.
package interceptors

import "net/http"

// Next forwards the request to the remaining stages of the chain
type Next func(req *http.Request) (*http.Response, error)

// Interceptor is a single middleware stage.
//
// A stage may change the outgoing request before calling next, answer
// without calling next, or inspect and replace the response or error
// returned by next. As with http.RoundTripper, exactly one of the
// returned response and error must be non-nil.
type Interceptor interface {
	Intercept(req *http.Request, next Next) (*http.Response, error)
}

// InterceptorFunc adapts a function to the Interceptor interface
type InterceptorFunc func(req *http.Request, next Next) (*http.Response, error)

// Intercept calls f(req, next)
func (f InterceptorFunc) Intercept(req *http.Request, next Next) (*http.Response, error) {
	return f(req, next)
}

// Chain runs a request through its stages and finally the transport
type Chain struct {
	transport http.RoundTripper
	stages    []Interceptor
}

// NewChain creates a chain over transport. A nil transport means http.DefaultTransport.
func NewChain(transport http.RoundTripper, stages ...Interceptor) *Chain {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Chain{
		transport: transport,
		stages:    append([]Interceptor(nil), stages...),
	}
}

// RoundTrip implements http.RoundTripper
func (c *Chain) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.call(0, req)
}

func (c *Chain) call(i int, req *http.Request) (*http.Response, error) {
	if i == len(c.stages) {
		return c.transport.RoundTrip(req)
	}
	return c.stages[i].Intercept(req, func(r *http.Request) (*http.Response, error) {
		return c.call(i+1, r)
	})
}
