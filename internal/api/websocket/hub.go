package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KevinKickass/OpenPedalCore/internal/auth"
	"github.com/KevinKickass/OpenPedalCore/internal/events"
	"go.uber.org/zap"
)

// Authenticator resolves the token of a client's auth message.
type Authenticator interface {
	Authenticate(ctx context.Context, token, ipAddress, userAgent string) (auth.Principal, error)
}

// Hub maintains active WebSocket clients and forwards workbench events to
// them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger *zap.Logger

	// nil accepts clients without an auth message.
	authenticator Authenticator

	streamer *events.Streamer
	stopCh   chan struct{}
	done     chan struct{}
}

func NewHub(logger *zap.Logger, authenticator Authenticator, streamer *events.Streamer) *Hub {
	return &Hub{
		broadcast:     make(chan Message, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		logger:        logger,
		authenticator: authenticator,
		streamer:      streamer,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)

	var feed <-chan events.Event
	if h.streamer != nil {
		feed = h.streamer.Subscribe(events.All)
		defer h.streamer.Unsubscribe(events.All, feed)
	}

	h.logger.Info("WebSocket Hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered",
				zap.String("remote_addr", client.remoteAddr()),
				zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.logger.Info("WebSocket client unregistered",
					zap.String("remote_addr", client.remoteAddr()),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()

		case ev, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			h.deliver(FromEvent(ev))

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.stopCh:
			h.mu.Lock()
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub stopped")
			return
		}
	}
}

func (h *Hub) deliver(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.wants(message.WorkbenchID) {
			continue
		}
		if !client.enqueue(data) {
			// slow or dead client
			client.closeSend()
			delete(h.clients, client)
			h.logger.Warn("Client send buffer full, unregistering",
				zap.String("remote_addr", client.remoteAddr()))
		}
	}
}

// Broadcast queues a message for every client interested in it.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	close(h.stopCh)
	<-h.done
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
