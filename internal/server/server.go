// Package server assembles the admission pipeline, dispatcher, and proxy
// engines behind a single TLS-terminating HTTP listener.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crypto/tls"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bnema/gordon/internal/admission"
	"github.com/bnema/gordon/internal/certstore"
	"github.com/bnema/gordon/internal/dispatch"
	"github.com/bnema/gordon/internal/httperr"
	"github.com/bnema/gordon/pkg/logger"
)

// RequestIDKey is the echo context key holding the per-request
// correlation ID set by the ID middleware.
const RequestIDKey = "request_id"

// Server wires the admission pipeline and dispatcher behind a TLS
// listener.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	pipeline   *admission.Pipeline
	dispatcher *dispatch.Dispatcher
	errors     *httperr.Store
}

// New builds a Server. certs backs the TLS listener's SNI resolution.
func New(pipeline *admission.Pipeline, dispatcher *dispatch.Dispatcher, errs *httperr.Store, certs *certstore.Store, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// The proxy is edge-facing: RealIP must resolve to the direct peer,
	// never a client-supplied X-Forwarded-For/X-Real-IP value.
	e.IPExtractor = echo.ExtractIPDirect()
	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := uuid.NewString()
			c.Set(RequestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	})

	s := &Server{
		echo:       e,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		errors:     errs,
	}

	e.Any("/*", s.handle)

	s.httpServer = &http.Server{
		Handler: e,
		TLSConfig: &tls.Config{
			GetCertificate: certs.GetCertificate,
			MinVersion:     tls.VersionTLS12,
		},
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	s.httpServer.Addr = ":" + strconv.Itoa(port)

	return s
}

// handle is the single entry point for every inbound request: it
// demultiplexes upgrade vs. regular traffic, runs the matching admission
// path, and dispatches on success.
func (s *Server) handle(c echo.Context) error {
	req := c.Request()

	if isUpgrade(req) {
		closeConn := func() {
			if hj, ok := c.Response().Writer.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
		}
		verdict := s.pipeline.AdmitUpgrade(req)
		if !verdict.Allowed {
			logger.Debug("websocket admission rejected", "reason", verdict.Reason)
			closeConn()
			return nil // upgrade failures close the socket silently, no HTTP body
		}
		if err := s.dispatcher.Dispatch(c, verdict.Spec, true); err != nil {
			logger.Debug("websocket dispatch failed", "error", err)
			closeConn()
		}
		return nil
	}

	verdict := s.pipeline.Admit(req)
	if !verdict.Allowed {
		return s.errors.LogAndRespond(c, verdict.Status, verdict.FallbackKey, verdict.Reason)
	}

	if err := s.dispatcher.Dispatch(c, verdict.Spec, false); err != nil {
		switch err {
		case dispatch.ErrNoTarget:
			return s.errors.LogAndRespond(c, http.StatusForbidden, "403-config", "route has no usable target")
		case dispatch.ErrFileUnreadable:
			return s.errors.LogAndRespond(c, http.StatusNotFound, "404", "file target unreadable")
		}
		return s.errors.LogAndRespond(c, http.StatusBadGateway, "502", "dispatch failed", "error", err.Error())
	}
	return nil
}

func isUpgrade(req *http.Request) bool {
	return req.Method == http.MethodGet &&
		strings.EqualFold(req.Header.Get("Upgrade"), "websocket") &&
		containsToken(req.Header.Get("Connection"), "upgrade")
}

func containsToken(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

// Start begins serving TLS traffic. It returns once the listener fails
// to start; a clean Stop produces http.ErrServerClosed, which is not an
// error from the caller's perspective.
func (s *Server) Start() error {
	logger.Info("starting proxy listener", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServeTLS("", "")
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the listener down within the given context.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping proxy listener")
	return s.httpServer.Shutdown(ctx)
}
