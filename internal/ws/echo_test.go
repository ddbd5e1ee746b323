package ws

import (
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoServer(t *testing.T, delay time.Duration) (*Manager, string) {
	t.Helper()
	m := NewManager(nil)
	srv := httptest.NewServer(NewEcho(m, delay, nil))
	t.Cleanup(func() {
		m.Close()
		srv.Close()
	})
	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn, timeout time.Duration) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	return string(data)
}

func TestEcho_DelayedReply(t *testing.T) {
	_, url := newEchoServer(t, DefaultEchoDelay)
	conn := dial(t, url)

	start := time.Now()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	got := readText(t, conn, 5*time.Second)

	assert.Equal(t, "Echo: hello", got)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestEcho_KeepsOrder(t *testing.T) {
	_, url := newEchoServer(t, 20*time.Millisecond)
	conn := dial(t, url)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	}
	for _, want := range []string{"Echo: one", "Echo: two", "Echo: three"} {
		assert.Equal(t, want, readText(t, conn, 2*time.Second))
	}
}

func TestEcho_IgnoresBinaryFrames(t *testing.T) {
	_, url := newEchoServer(t, 0)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("text")))
	assert.Equal(t, "Echo: text", readText(t, conn, 2*time.Second))
}

func TestEcho_DisconnectAndBroadcast(t *testing.T) {
	m, url := newEchoServer(t, 0)
	a := dial(t, url)
	b := dial(t, url)
	c := dial(t, url)

	require.Eventually(t, func() bool { return m.Count() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return m.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, m.Broadcast("x"))
	assert.Equal(t, "x", readText(t, a, 2*time.Second))
	assert.Equal(t, "x", readText(t, b, 2*time.Second))
}

func TestEcho_CloseAbortsPendingReply(t *testing.T) {
	m, url := newEchoServer(t, time.Minute)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return m.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("never")))
	m.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed, not idle")
	}
}
