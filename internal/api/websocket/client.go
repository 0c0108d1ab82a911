package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/auth"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the auth message after connecting
	authWait = 10 * time.Second

	maxMessageSize = 8192
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. It receives every workbench event
// until it subscribes to specific workbenches.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	authenticated bool
	registered    bool
	principal     auth.Principal

	mu            sync.Mutex
	closed        bool
	subscriptions map[string]bool
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// wants reports whether the client should receive a message for the
// workbench.
func (c *Client) wants(workbenchID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions) == 0 || workbenchID == "" || c.subscriptions[workbenchID]
}

// enqueue queues data without blocking. It fails when the client is closed
// or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal reply", zap.Error(err))
		return
	}
	c.enqueue(data)
}

func (c *Client) readPump() {
	defer func() {
		if c.registered {
			select {
			case c.hub.unregister <- c:
			case <-c.hub.done:
			}
		}
		c.closeSend()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if !c.authenticated {
		c.conn.SetReadDeadline(time.Now().Add(authWait))
	}

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("remote_addr", c.remoteAddr()))
			}
			return
		}

		// First message MUST be authentication
		if !c.authenticated {
			if !c.authenticate(msg) {
				return
			}
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) authenticate(msg clientMessage) bool {
	if msg.Type != clientAuth {
		c.reply(NewMessage(MessageTypeAuthFailed, map[string]string{"reason": "First message must be authentication"}))
		return false
	}
	if msg.Token == "" {
		c.reply(NewMessage(MessageTypeAuthFailed, map[string]string{"reason": "Missing token in auth message"}))
		return false
	}

	principal, err := c.hub.authenticator.Authenticate(context.Background(), msg.Token, c.remoteAddr(), "")
	if err != nil {
		c.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remote_addr", c.remoteAddr()))
		c.reply(NewMessage(MessageTypeAuthFailed, map[string]string{"reason": "Invalid or expired token"}))
		return false
	}

	c.authenticated = true
	c.principal = principal
	c.conn.SetReadDeadline(time.Time{})
	c.reply(NewMessage(MessageTypeAuthSuccess, map[string]any{"permissions": principal.Permissions}))
	c.logger.Info("WebSocket client authenticated",
		zap.String("remote_addr", c.remoteAddr()),
		zap.String("username", principal.Username))

	c.registered = true
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

func (c *Client) handleMessage(msg clientMessage) {
	switch msg.Type {
	case clientSubscribe, clientUnsubscribe:
		if msg.WorkbenchID == "" {
			c.reply(NewMessage(MessageTypeError, map[string]string{"reason": "workbench_id is required"}))
			return
		}
		c.mu.Lock()
		if msg.Type == clientSubscribe {
			c.subscriptions[msg.WorkbenchID] = true
		} else {
			delete(c.subscriptions, msg.WorkbenchID)
		}
		c.mu.Unlock()

		ack := MessageTypeSubscribed
		if msg.Type == clientUnsubscribe {
			ack = MessageTypeUnsubscribed
		}
		reply := NewMessage(ack, nil)
		reply.WorkbenchID = msg.WorkbenchID
		c.reply(reply)

	default:
		c.logger.Debug("Unknown client message",
			zap.String("remote_addr", c.remoteAddr()),
			zap.String("type", msg.Type))
		c.reply(NewMessage(MessageTypeError, map[string]string{"reason": "unknown message type " + msg.Type}))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// ServeWs upgrades the request and starts the client's pumps. Without an
// authenticator the client is registered immediately.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		logger:        hub.logger,
		subscriptions: make(map[string]bool),
	}

	if hub.authenticator == nil {
		client.authenticated = true
		client.registered = true
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}
	}

	go client.writePump()
	go client.readPump()
}
