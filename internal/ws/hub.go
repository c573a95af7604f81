package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const broadcastBuffer = 256

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans committed stock events out to every connected client.
type Hub struct {
	clients    map[Conn]bool
	register   chan Conn
	unregister chan Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[Conn]bool),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			n := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("client connected", zap.Int("clients", n))

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.log.Debug("dropping client after write error", zap.Error(err))
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish encodes event as JSON and queues it for broadcast. It never
// blocks; events are dropped when the queue is full.
func (h *Hub) Publish(event interface{}) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Register(conn Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *Hub) Unregister(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// Handler registers each websocket connection and keeps it open until the
// client goes away.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.Register(c)
		defer h.Unregister(c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
