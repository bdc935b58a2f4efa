package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wonny/tradejournal/pkg/logger"
	"github.com/wonny/tradejournal/pkg/redis"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	sendBuffer = 16
)

// Hub fans events out to websocket clients, per user
// ⭐ SSOT: 실시간 알림 전송은 Hub에서만 (다중 인스턴스는 Redis pub/sub 중계)
type Hub struct {
	logger   *logger.Logger
	redis    *redis.Client
	origin   string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// NewHub creates a hub; rc may be nil or disabled for single-process use
func NewHub(rc *redis.Client, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		logger: log.Component("notify"),
		redis:  rc,
		origin: uuid.NewString(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS 미들웨어가 Origin을 검사함
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

// Publish delivers locally and relays through Redis when enabled
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.deliver(ev)

	if h.redis == nil || !h.redis.Enabled() {
		return nil
	}
	if err := h.redis.Publish(ctx, redis.EventsChannel, envelope{Origin: h.origin, Event: ev}); err != nil {
		return fmt.Errorf("relay %s: %w", ev.Type, err)
	}
	return nil
}

// Run relays events published by other processes until ctx is done
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil || !h.redis.Enabled() {
		<-ctx.Done()
		return
	}

	h.logger.Info("Relaying events from Redis")
	for payload := range h.redis.Subscribe(ctx, redis.EventsChannel) {
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			h.logger.WithError(err).Warn("Dropping malformed event")
			continue
		}
		if env.Origin == h.origin {
			continue
		}
		h.deliver(env.Event)
	}
}

// ClientCount returns the connected clients of a user
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) deliver(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return
	}

	// send와 close는 같은 락 아래에서만 (닫힌 채널 전송 방지)
	var slow []*client
	h.mu.RLock()
	send := func(c *client) {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	if ev.UserID == "" {
		for _, set := range h.clients {
			for c := range set {
				send(c)
			}
		}
	} else {
		for c := range h.clients[ev.UserID] {
			send(c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.WithField("user_id", c.userID).Warn("Client send buffer full, disconnecting")
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// ServeWS upgrades the request and streams userID's events until the client leaves
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	h.logger.WithField("user_id", userID).Debug("Client connected")

	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

// readLoop discards client messages and keeps the read deadline fresh
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.logger.WithField("user_id", c.userID).Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
