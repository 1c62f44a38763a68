// Package dispatch implements the dispatcher: given a resolved route, it
// picks one of static-file, handler, or proxy-engine dispatch and emits
// the response (or hands off to a proxy engine).
package dispatch

import (
	"context"
	"math/rand"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/bnema/gordon/internal/route"
	"github.com/bnema/gordon/pkg/logger"
)

// ProxyEngine hands a matched request off to the HTTP reverse proxy
// engine for a resolved upstream origin.
type ProxyEngine interface {
	Proxy(c echo.Context, spec route.Spec, upstreamOrigin string) error
}

// WebSocketEngine hands an upgrade request off to the WebSocket reverse
// proxy engine.
type WebSocketEngine interface {
	Proxy(c echo.Context, spec route.Spec, upstreamOrigin string) error
}

// Dispatcher selects and executes a dispatch mode for a resolved route.
type Dispatcher struct {
	HTTP      ProxyEngine
	WebSocket WebSocketEngine
}

// New builds a Dispatcher wired to the given proxy engines.
func New(http ProxyEngine, ws WebSocketEngine) *Dispatcher {
	return &Dispatcher{HTTP: http, WebSocket: ws}
}

// ErrNoTarget is returned when a route resolves but its target is
// unusable or missing.
var ErrNoTarget = errNoTarget{}

type errNoTarget struct{}

func (errNoTarget) Error() string { return "route has no usable target" }

// ErrFileUnreadable is returned when a file target's path cannot be
// read, whether because it was removed or never existed. Callers map
// this to a 404, distinct from an upstream/dispatch failure.
var ErrFileUnreadable = errFileUnreadable{}

type errFileUnreadable struct{}

func (errFileUnreadable) Error() string { return "file target unreadable" }

// Dispatch executes spec's target against the given request, for either
// a regular request or a WebSocket upgrade (isUpgrade).
func (d *Dispatcher) Dispatch(c echo.Context, spec route.Spec, isUpgrade bool) error {
	target := spec.Target

	if isUpgrade {
		if !spec.WebSocket || target.Kind() != route.KindRemote {
			return ErrNoTarget
		}
		return d.WebSocket.Proxy(c, spec, target.Remote)
	}

	switch target.Kind() {
	case route.KindHandler:
		return dispatchHandler(c, spec, target.Handler)
	case route.KindFile:
		return dispatchFile(c, spec, target.File)
	case route.KindRemote:
		return d.HTTP.Proxy(c, spec, target.Remote)
	case route.KindRemotePool:
		pick := target.RemotePool[rand.Intn(len(target.RemotePool))]
		return d.HTTP.Proxy(c, spec, pick)
	default:
		return ErrNoTarget
	}
}

func contentType(spec route.Spec) string {
	if spec.ContentType != "" {
		return spec.ContentType
	}
	return "text/plain"
}

func dispatchFile(c echo.Context, spec route.Spec, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("file target unreadable", "path", path, "error", err)
		return ErrFileUnreadable
	}
	return c.Blob(http.StatusOK, contentType(spec), data)
}

func dispatchHandler(c echo.Context, spec route.Spec, h route.Handler) error {
	req := &route.HandlerRequest{Request: c.Request(), Writer: c.Response()}

	result, err := h.Handle(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if !result.Resolved() {
		select {
		case deferred := <-result.Deferred:
			if deferred.Err != nil {
				return deferred.Err
			}
			return c.Blob(http.StatusOK, contentType(spec), []byte(deferred.Body))
		case <-c.Request().Context().Done():
			return context.Canceled
		}
	}

	return c.Blob(http.StatusOK, contentType(spec), []byte(result.Body))
}
