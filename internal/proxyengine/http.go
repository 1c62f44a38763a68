// Package proxyengine implements the HTTP reverse proxy engine: forwards
// a matched request to an upstream origin, injecting x-forwarded-*
// headers, running the route's rewrite hooks, and reflecting CORS
// headers when enabled.
package proxyengine

import (
	"context"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bnema/gordon/internal/route"
	"github.com/bnema/gordon/pkg/logger"
)

// Engine is the shared, stateless HTTP reverse proxy. One instance is
// safe to use across all requests.
type Engine struct {
	// DialTimeout bounds the upstream connect; ResponseTimeout bounds the
	// whole upstream exchange, including streaming the response body.
	// Expiry before the response starts surfaces as 502.
	DialTimeout     time.Duration
	ResponseTimeout time.Duration
}

// New builds an Engine with sane upstream timeouts.
func New() *Engine {
	return &Engine{
		DialTimeout:     10 * time.Second,
		ResponseTimeout: 30 * time.Second,
	}
}

// Proxy forwards c's request to upstreamOrigin (scheme is forced to
// https when spec.Secure is set), running rewrite hooks and CORS
// reflection around the handoff.
func (e *Engine) Proxy(c echo.Context, spec route.Spec, upstreamOrigin string) error {
	target, err := url.Parse(upstreamOrigin)
	if err != nil {
		logger.Warn("invalid upstream target", "target", upstreamOrigin, "error", err)
		return err
	}
	if spec.Secure {
		target.Scheme = "https"
	}

	req := c.Request()
	peerIP := c.RealIP()

	rp := &httputil.ReverseProxy{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: e.DialTimeout}).DialContext,
		},
		// Rewrite (rather than Director) keeps ReverseProxy from appending
		// the client address to the x-forwarded-for value set below.
		Rewrite: func(pr *httputil.ProxyRequest) {
			out := pr.Out
			out.URL.Scheme = target.Scheme
			out.URL.Host = target.Host
			out.Host = target.Host

			out.Header.Set("x-forwarded-for", peerIP)
			out.Header.Set("x-forwarded-host", req.Host)

			if spec.RewriteRequest != nil {
				hookReq := &route.OutboundRequest{Upstream: out, Inbound: req, UpstreamURL: target}
				if err := spec.RewriteRequest.RewriteRequest(req.Context(), hookReq); err != nil {
					logger.Warn("rewriteRequest hook failed", "error", err)
				}
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			applyCORS(c, spec, req)

			if spec.RewriteResponse != nil {
				hookResp := &route.InboundResponse{Upstream: resp, Inbound: req, Writer: c.Response()}
				if err := spec.RewriteResponse.RewriteResponse(req.Context(), hookResp); err != nil {
					return err
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("upstream proxy error", "target", target.String(), "error", err)
			// Handled by the caller via the returned error from ServeHTTP
			// is not possible with httputil.ReverseProxy; surface a 502
			// directly here since this is the library's only error hook.
			if !c.Response().Committed {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("server error"))
			}
		},
	}

	ctx, cancel := context.WithTimeout(req.Context(), e.ResponseTimeout)
	defer cancel()

	rp.ServeHTTP(c.Response(), req.WithContext(ctx))
	return nil
}

// applyCORS reflects the requested CORS headers onto the downstream
// response, before any rewriteResponse hook runs.
func applyCORS(c echo.Context, spec route.Spec, req *http.Request) {
	if !spec.EnableCORS {
		return
	}

	h := c.Response().Header()
	if m := req.Header.Get("access-control-request-method"); m != "" {
		h.Set("access-control-allow-methods", m)
	}
	if hdrs := req.Header.Get("access-control-request-headers"); hdrs != "" {
		h.Set("access-control-allow-headers", hdrs)
	}
	if origin := req.Header.Get("origin"); origin != "" {
		h.Set("access-control-allow-origin", origin)
		h.Set("access-control-allow-credentials", "true")
	}
}
