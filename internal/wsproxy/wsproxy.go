// Package wsproxy implements the WebSocket reverse proxy engine:
// upgrades the downstream connection, dials the upstream origin as a
// WebSocket client, and pumps frames both directions until either side
// closes.
package wsproxy

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bnema/gordon/internal/route"
	"github.com/bnema/gordon/pkg/logger"
)

// Engine is the shared, stateless WebSocket reverse proxy.
type Engine struct {
	upgrader websocket.Upgrader
	dialer   websocket.Dialer
}

// New builds an Engine. Origin checking is left to the upstream; the
// proxy only relays frames.
func New() *Engine {
	return &Engine{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Proxy upgrades the downstream connection and relays it to
// upstreamOrigin. Failures here close the socket silently rather than
// emitting an HTTP error body: there is no handshake response left to
// attach one to once the upgrade has started.
func (e *Engine) Proxy(c echo.Context, spec route.Spec, upstreamOrigin string) error {
	req := c.Request()

	closeConn := func() {
		if hj, ok := c.Response().Writer.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
	}

	target, err := url.Parse(upstreamOrigin)
	if err != nil {
		logger.Debug("websocket upgrade failed: bad upstream url", "error", err)
		closeConn()
		return nil
	}
	target.Scheme = wsScheme(spec.Secure)
	target.Path = req.URL.Path
	target.RawQuery = req.URL.RawQuery

	upstreamHeader := http.Header{}
	for k, v := range req.Header {
		if isHopByHop(k) {
			continue
		}
		upstreamHeader[k] = v
	}
	upstreamHeader.Set("x-forwarded-for", c.RealIP())
	upstreamHeader.Set("x-forwarded-host", req.Host)

	upstreamConn, _, err := e.dialer.Dial(target.String(), upstreamHeader)
	if err != nil {
		logger.Debug("websocket upgrade failed: upstream dial error", "target", target.String(), "error", err)
		closeConn()
		return nil
	}
	defer upstreamConn.Close()

	upgrader := e.upgrader
	upgrader.Error = func(http.ResponseWriter, *http.Request, int, error) { closeConn() }
	clientConn, err := upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed: client handshake error", "error", err)
		return nil
	}
	defer clientConn.Close()

	pump(clientConn, upstreamConn)
	return nil
}

func wsScheme(secure bool) string {
	if secure {
		return "wss"
	}
	return "ws"
}

// isHopByHop reports headers the gorilla dialer sets itself for the
// upgrade handshake; everything else, including Sec-WebSocket-*, passes
// through untouched.
func isHopByHop(header string) bool {
	switch strings.ToLower(header) {
	case "connection", "upgrade", "sec-websocket-key", "sec-websocket-version":
		return true
	}
	return false
}

// pump relays frames in both directions until either side closes.
func pump(client, upstream *websocket.Conn) {
	var wg sync.WaitGroup
	wg.Add(2)

	copyFrames := func(dst, src *websocket.Conn) {
		defer wg.Done()
		defer dst.Close()
		for {
			mt, data, err := src.ReadMessage()
			if err != nil {
				return
			}
			if err := dst.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}

	go copyFrames(upstream, client)
	go copyFrames(client, upstream)
	wg.Wait()
}
