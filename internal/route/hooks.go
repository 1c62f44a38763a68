package route

import (
	"net/http"
	"net/url"
)

// OutboundRequest is the handle passed to RewriteRequest hooks. It wraps
// the proxy request about to be sent upstream plus the inbound request
// and upstream target for context.
type OutboundRequest struct {
	Upstream    *http.Request
	Inbound     *http.Request
	UpstreamURL *url.URL
}

// InboundResponse is the handle passed to RewriteResponse hooks.
type InboundResponse struct {
	Upstream *http.Response
	Inbound  *http.Request
	Writer   http.ResponseWriter
}

// HandlerRequest is what a route.Handler receives.
type HandlerRequest struct {
	Request *http.Request
	Writer  http.ResponseWriter
}

// HandlerResult is a handler's computed body. Handlers that need to defer
// their computation return a Deferred channel instead of Body; the
// dispatcher awaits either form uniformly.
type HandlerResult struct {
	Body     string
	Deferred <-chan DeferredResult
}

// DeferredResult is sent on HandlerResult.Deferred once a deferred
// handler computation resolves.
type DeferredResult struct {
	Body string
	Err  error
}

// Resolved reports whether this result is already a plain value (as
// opposed to a deferred computation to await).
func (r *HandlerResult) Resolved() bool {
	return r.Deferred == nil
}
