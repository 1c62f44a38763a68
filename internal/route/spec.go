// Package route holds the route specification, pattern matcher, and
// route table used by the admission pipeline and dispatcher.
package route

import "context"

// RewriteRequest mutates the outbound proxy request before it leaves.
// The return value carries only an error; header mutation happens on req.
type RewriteRequest interface {
	RewriteRequest(ctx context.Context, req *OutboundRequest) error
}

// RewriteResponse mutates the inbound proxy response's headers before it
// is returned downstream. Body rewriting is out of scope.
type RewriteResponse interface {
	RewriteResponse(ctx context.Context, resp *InboundResponse) error
}

// Handler computes a response body for a matched route. Target implements
// this when the route dispatches to user code instead of an upstream.
type Handler interface {
	Handle(ctx context.Context, req *HandlerRequest) (*HandlerResult, error)
}

// Target is a tagged union of upstream remote, remote pool, static file,
// or in-process handler. Exactly one field is populated.
type Target struct {
	Remote     string   // single upstream origin URL
	RemotePool []string // list of upstream origin URLs, one picked at random
	File       string   // path following the "file:" scheme, already stripped
	Handler    Handler
}

// Kind reports which variant a Target holds.
type Kind int

const (
	KindNone Kind = iota
	KindRemote
	KindRemotePool
	KindFile
	KindHandler
)

func (t Target) Kind() Kind {
	switch {
	case t.Handler != nil:
		return KindHandler
	case t.File != "":
		return KindFile
	case len(t.RemotePool) > 0:
		return KindRemotePool
	case t.Remote != "":
		return KindRemote
	default:
		return KindNone
	}
}

// Spec is a route specification: a pattern, a target, and the set of
// admission and rewrite rules that apply to requests matching it.
type Spec struct {
	Pattern         string
	Target          Target
	Priority        *int // nil = lowest priority (+inf)
	Hostnames       []string
	RewriteRequest  RewriteRequest
	RewriteResponse RewriteResponse
	Secure          bool
	WebSocket       bool
	AllowedCIDRs    []string // nil = unrestricted; non-nil empty = deny all
	IgnoreProxiedIP bool
	ContentType     string
	EnableCORS      bool
}

// HasCIDRRestriction reports whether AllowedCIDRs was present on the
// route (as opposed to simply unset): a nil slice means unrestricted, a
// non-nil empty slice means deny all.
func (s Spec) HasCIDRRestriction() bool {
	return s.AllowedCIDRs != nil
}

func priorityOf(s Spec) int {
	if s.Priority == nil {
		return int(^uint(0) >> 1) // +inf sentinel (max int)
	}
	return *s.Priority
}
