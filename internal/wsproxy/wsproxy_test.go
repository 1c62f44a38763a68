package wsproxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gordon/internal/route"
)

func TestWsScheme(t *testing.T) {
	assert.Equal(t, "wss", wsScheme(true))
	assert.Equal(t, "ws", wsScheme(false))
}

func TestIsHopByHop(t *testing.T) {
	assert.True(t, isHopByHop("Connection"))
	assert.True(t, isHopByHop("upgrade"))
	assert.True(t, isHopByHop("Sec-WebSocket-Key"))
	assert.True(t, isHopByHop("sec-websocket-version"))
	assert.False(t, isHopByHop("Sec-WebSocket-Protocol"))
	assert.False(t, isHopByHop("X-Custom"))
}

func TestProxyRelaysFramesBothWays(t *testing.T) {
	var gotForwardedFor string
	upgrader := websocket.Upgrader{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotForwardedFor = r.Header.Get("x-forwarded-for")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, append([]byte("echo:"), data...)); err != nil {
				return
			}
		}
	}))
	defer upstream.Close()
	upstreamWSURL := "ws" + strings.TrimPrefix(upstream.URL, "http")

	engine := New()
	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return engine.Proxy(c, route.Spec{}, upstreamWSURL)
		}
	})
	downstream := httptest.NewServer(e)
	defer downstream.Close()
	downstreamWSURL := "ws" + strings.TrimPrefix(downstream.URL, "http")

	header := http.Header{}
	header.Set("x-forwarded-for", "10.0.0.1")
	client, _, err := websocket.DefaultDialer.Dial(downstreamWSURL, header)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "echo:hello", string(msg))

	assert.NotEqual(t, "10.0.0.1", gotForwardedFor, "the peer address must win over a client-supplied header")
	assert.NotEmpty(t, gotForwardedFor)
}

func TestProxyBadUpstreamURLClosesSilently(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/socket", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	engine := New()
	assert.NoError(t, engine.Proxy(c, route.Spec{}, "://not-a-url"))
}

func TestProxyUnreachableUpstreamClosesSilently(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/socket", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	engine := New()
	assert.NoError(t, engine.Proxy(c, route.Spec{}, "ws://127.0.0.1:1"))
}
