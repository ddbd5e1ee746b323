package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultEchoDelay - пауза перед эхо-ответом.
const DefaultEchoDelay = time.Second

// Echo отвечает на каждое текстовое сообщение строкой "Echo: <текст>" после задержки.
// Сообщения одного соединения обрабатываются строго по очереди.
type Echo struct {
	manager *Manager
	delay   time.Duration
	log     *zap.Logger
}

func NewEcho(manager *Manager, delay time.Duration, log *zap.Logger) *Echo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Echo{manager: manager, delay: delay, log: log}
}

func (e *Echo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := e.manager.Connect(w, r)
	if err != nil {
		e.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	e.serve(c)
}

func (e *Echo) serve(c *Client) {
	defer e.manager.Disconnect(c)

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				e.log.Warn("websocket error", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		e.log.Debug("received message", zap.String("client_id", c.ID), zap.Int("bytes", len(data)))

		if !e.wait() {
			return
		}
		e.manager.SendTo(c, "Echo: "+string(data))
	}
}

// wait выдерживает задержку; false, если менеджер остановили раньше.
func (e *Echo) wait() bool {
	if e.delay <= 0 {
		return true
	}
	t := time.NewTimer(e.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.manager.Done():
		return false
	}
}
