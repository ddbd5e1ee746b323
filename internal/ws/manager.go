// Package ws - WebSocket-канал сервиса: реестр соединений и эхо-обработчик.
package ws

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 64 << 10
)

// ErrManagerClosed возвращается при подключении после Close.
var ErrManagerClosed = errors.New("connection manager is closed")

// Conn - та часть *websocket.Conn, которой пользуется менеджер.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client - одно активное соединение.
type Client struct {
	ID   string
	conn Conn
	// gorilla допускает только одного писателя на соединение.
	writeMu sync.Mutex
}

func (c *Client) write(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Manager хранит множество активных клиентов.
type Manager struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	done      chan struct{}
	closeOnce sync.Once

	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewManager - конструктор менеджера соединений.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		clients: make(map[*Client]struct{}),
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS открыт и для REST, проверять Origin незачем.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Connect завершает handshake и регистрирует клиента. При ошибке апгрейда
// ответ клиенту уже отправлен upgrader'ом.
func (m *Manager) Connect(w http.ResponseWriter, r *http.Request) (*Client, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	return m.register(conn)
}

func (m *Manager) register(conn Conn) (*Client, error) {
	c := &Client{ID: uuid.NewString(), conn: conn}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close()
		return nil, ErrManagerClosed
	}
	m.clients[c] = struct{}{}
	active := len(m.clients)
	m.mu.Unlock()

	m.log.Info("websocket connection established", zap.String("client_id", c.ID), zap.Int("active", active))
	return c, nil
}

// Disconnect убирает клиента и закрывает соединение. Повторный вызов ничего не делает.
func (m *Manager) Disconnect(c *Client) {
	m.mu.Lock()
	_, ok := m.clients[c]
	delete(m.clients, c)
	active := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}
	_ = c.conn.Close()
	m.log.Info("websocket connection closed", zap.String("client_id", c.ID), zap.Int("active", active))
}

// SendTo отправляет текст одному клиенту. Ошибка записи не возвращается:
// клиент просто отключается.
func (m *Manager) SendTo(c *Client, text string) {
	if err := c.write(text); err != nil {
		m.log.Warn("error sending message", zap.String("client_id", c.ID), zap.Error(err))
		m.Disconnect(c)
	}
}

// Broadcast отправляет текст всем клиентам и возвращает число успешных доставок.
// Отвалившиеся клиенты отключаются после прохода, а не во время него.
func (m *Manager) Broadcast(text string) int {
	m.mu.RLock()
	snapshot := make([]*Client, 0, len(m.clients))
	for c := range m.clients {
		snapshot = append(snapshot, c)
	}
	m.mu.RUnlock()

	var failed []*Client
	for _, c := range snapshot {
		if err := c.write(text); err != nil {
			m.log.Warn("error broadcasting to connection", zap.String("client_id", c.ID), zap.Error(err))
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		m.Disconnect(c)
	}
	return len(snapshot) - len(failed)
}

// Count - число активных клиентов.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Done закрывается при остановке менеджера.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Close отключает всех клиентов и прерывает ожидающие эхо-ответы.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		snapshot := make([]*Client, 0, len(m.clients))
		for c := range m.clients {
			snapshot = append(snapshot, c)
		}
		m.mu.Unlock()

		close(m.done)
		for _, c := range snapshot {
			m.Disconnect(c)
		}
	})
}
