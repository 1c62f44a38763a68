// Package admission implements the ordered admission checks: rate limit
// -> path allow-list -> route resolve -> CIDR check for regular
// requests; route resolve -> CIDR check for WebSocket upgrades.
package admission

import (
	"net"
	"net/http"

	"github.com/bnema/gordon/internal/cidrguard"
	"github.com/bnema/gordon/internal/ratelimit"
	"github.com/bnema/gordon/internal/route"
	"github.com/bnema/gordon/pkg/logger"
)

// Verdict is the result of running the pipeline on a request.
type Verdict struct {
	Spec    route.Spec
	Allowed bool

	// Reason and FallbackKey are set when Allowed is false, identifying
	// which check failed so the caller can emit the right status/body
	// via internal/httperr.
	Status      int
	FallbackKey string
	Reason      string
}

// Pipeline ties the route table, rate limiter, and blacklist together.
type Pipeline struct {
	Table     *route.Table
	Limiter   *ratelimit.Limiter
	Soft      *ratelimit.SoftMonitor
	Blacklist *cidrguard.Blacklist
}

// New builds a Pipeline from its construction-time dependencies, kept
// explicit rather than reaching for package-level globals.
func New(table *route.Table, limiter *ratelimit.Limiter, soft *ratelimit.SoftMonitor, blacklist *cidrguard.Blacklist) *Pipeline {
	return &Pipeline{Table: table, Limiter: limiter, Soft: soft, Blacklist: blacklist}
}

// Admit runs the full pipeline for a non-upgrade request.
func (p *Pipeline) Admit(req *http.Request) Verdict {
	if !p.Limiter.Allow() {
		return Verdict{Status: http.StatusForbidden, FallbackKey: "403-flood", Reason: "rate limit exceeded"}
	}
	if p.Soft != nil {
		p.Soft.Observe()
	}

	path := req.URL.Path
	if !p.Table.AllowListed(path) {
		return Verdict{Status: http.StatusNotFound, FallbackKey: "404", Reason: "path not in any pattern"}
	}

	spec, ok := p.Table.Resolve(req.URL, req.Host)
	if !ok {
		return Verdict{Status: http.StatusNotFound, FallbackKey: "404", Reason: "no route after host narrowing"}
	}

	if v := p.checkCIDR(req, spec); !v.Allowed {
		return v
	}

	return Verdict{Spec: spec, Allowed: true}
}

// AdmitUpgrade runs the reduced pipeline for a WebSocket upgrade: rate
// limiting and the path allow-list are skipped, since upgraded
// connections are long-lived and outside the per-request rate budget.
func (p *Pipeline) AdmitUpgrade(req *http.Request) Verdict {
	spec, ok := p.Table.Resolve(req.URL, req.Host)
	if !ok {
		return Verdict{Status: http.StatusNotFound, FallbackKey: "404", Reason: "no route after host narrowing"}
	}

	if v := p.checkCIDR(req, spec); !v.Allowed {
		return v
	}

	return Verdict{Spec: spec, Allowed: true}
}

func (p *Pipeline) checkCIDR(req *http.Request, spec route.Spec) Verdict {
	peerIP := peerIPOf(req)

	if p.Blacklist != nil && p.Blacklist.Blocked(peerIP) {
		p.Blacklist.LogBlocked(peerIP, req.URL.Path)
		return Verdict{Status: http.StatusForbidden, FallbackKey: "403-banned", Reason: "blacklisted"}
	}

	forwardedFor := req.Header.Get("x-forwarded-for")
	if !cidrguard.Check(spec.AllowedCIDRs, peerIP, forwardedFor, spec.IgnoreProxiedIP) {
		logger.Debug("cidr admission rejected", "peer", peerIP, "forwarded_for", forwardedFor, "pattern", spec.Pattern)
		return Verdict{Status: http.StatusForbidden, FallbackKey: "403-banned", Reason: "ip banned"}
	}

	return Verdict{Spec: spec, Allowed: true}
}

func peerIPOf(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
