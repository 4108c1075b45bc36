package www

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is one websocket subscriber of new reports. It only receives,
// anything it sends besides control frames is discarded.
type Client struct {
	logger *slog.Logger
	hub    *Hub
	conn   *ws.Conn
	send   chan []byte
	name   string
}

func NewClient(hub *Hub, w http.ResponseWriter, r *http.Request, name string) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		logger: hub.logger.With(slog.String("client", name)),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		name:   name,
	}, nil
}

// ReadPump keeps the read deadline moving on pongs and unregisters the client
// once the connection is gone.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	if err := extend(""); err != nil {
		c.logger.Warn("websocket set read deadline failed", slog.Any("error", err))
		return
	}
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", slog.Any("error", err))
			}
			return
		}
	}
}

// WritePump delivers queued messages and pings until the send channel is
// closed by the hub or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var msgType int
		var payload []byte

		select {
		case message, ok := <-c.send:
			if !ok {
				c.write(ws.CloseMessage, []byte{})
				return
			}
			msgType, payload = ws.TextMessage, message
		case <-ticker.C:
			msgType, payload = ws.PingMessage, nil
		}

		if err := c.write(msgType, payload); err != nil {
			return
		}
	}
}

func (c *Client) write(msgType int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("websocket set write deadline failed", slog.Any("error", err))
		return err
	}
	if err := c.conn.WriteMessage(msgType, payload); err != nil {
		c.logger.Warn("websocket write failed", slog.Int("type", msgType), slog.Any("error", err))
		return err
	}
	return nil
}

// Hub tracks the connected clients and broadcasts messages to them.
type Hub struct {
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client

	logger  *slog.Logger
	mu      sync.Mutex
	clients map[*Client]struct{}
	done    chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register reports false when the hub has stopped.
func (h *Hub) register(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unregister does not block once the hub has stopped.
func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) snapshot() []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, c := range h.snapshot() {
			h.remove(c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.Register:
			h.logger.Debug("registering client", slog.String("client", c.name))
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.Unregister:
			h.logger.Debug("unregistering client", slog.String("client", c.name))
			h.remove(c)

		case message := <-h.Broadcast:
			for _, c := range h.snapshot() {
				select {
				case c.send <- message:
				default:
					h.logger.Warn("client send buffer full, dropping message", slog.String("client", c.name))
				}
			}
		}
	}
}
