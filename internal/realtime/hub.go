package realtime

import (
	"context"
	"sync"

	"prism/internal/logging"
)

// Hub tracks connected browser clients and routes messages to them by
// channel id.
type Hub struct {
	clientMu sync.RWMutex
	clients  map[string]*Client // channel id -> client

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new client hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 1),
		unregister: make(chan *Client, 1),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientMu.Lock()
	if prev, ok := h.clients[c.ID]; ok && prev != c {
		// A reconnect with the same channel id replaces the old socket.
		prev.Close()
	}
	h.clients[c.ID] = c
	h.clientMu.Unlock()
	logging.Infof("client connected: channel=%s user=%s", c.ID, c.UserID)
}

func (h *Hub) removeClient(c *Client) {
	h.clientMu.Lock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
	}
	h.clientMu.Unlock()
	c.Close()
	logging.Infof("client disconnected: channel=%s", c.ID)
}

// Get returns the client bound to a channel id, nil when offline.
func (h *Hub) Get(channelID string) *Client {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return h.clients[channelID]
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msg *Message) {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	for _, c := range h.clients {
		if err := c.SendMessage(msg); err != nil {
			logging.Debugf("broadcast to %s dropped: %v", c.ID, err)
		}
	}
}
