// Package httperr implements the error responder: a status code maps to
// a configured static body if one is registered, otherwise a short
// plain-text fallback.
package httperr

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bnema/gordon/pkg/logger"
)

// Store is the static response store: decimal status code string -> body
// bytes, loaded from ./responses/<code>.html.
type Store struct {
	bodies map[string][]byte
}

// NewStore wraps a pre-loaded status-code -> body map.
func NewStore(bodies map[string][]byte) *Store {
	if bodies == nil {
		bodies = map[string][]byte{}
	}
	return &Store{bodies: bodies}
}

var fallbacks = map[string]string{
	"403-flood":  "Flood protection",
	"403-banned": "ip banned",
	"403-config": "Path incorrectly configured",
	"404":        "not found",
	"502":        "server error",
}

// Respond writes status with the store's configured body if one exists
// for that code, otherwise one of the short plain-text fallbacks. It is
// best-effort: if the response has already started streaming, the write
// is abandoned rather than panicking.
func (s *Store) Respond(c echo.Context, status int, fallbackKey string) error {
	if c.Response().Committed {
		return nil
	}

	code := strconv.Itoa(status)
	if body, ok := s.bodies[code]; ok {
		return c.Blob(status, "text/html", body)
	}

	msg, ok := fallbacks[fallbackKey]
	if !ok {
		msg = http.StatusText(status)
	}
	return c.String(status, msg)
}

// LogAndRespond records the failure via the logger before writing the
// response, so proxy/admission errors are logged at the point they turn
// into a client-visible status.
func (s *Store) LogAndRespond(c echo.Context, status int, fallbackKey, reason string, kv ...interface{}) error {
	args := append([]interface{}{"status", status, "reason", reason, "path", c.Request().URL.Path}, kv...)
	logger.Warn("request rejected", args...)
	return s.Respond(c, status, fallbackKey)
}
