// Package ws implements the realtime messaging and notification fan-out
// engine: authenticated websocket connections, room-based subscriptions, and
// message routing backed by the conversation and notification stores.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/dmateos/courtside/internal/store"
)

// Hub tracks every live connection and both subscription spaces:
// conversation rooms keyed by conversation id and notification rooms keyed
// by user id. One coarse mutex guards all three maps.
type Hub struct {
	mu         sync.Mutex
	clients    map[int64]*Client
	rooms      map[string]map[*Client]bool
	notifRooms map[int64]map[*Client]bool

	store  store.Store
	logger *zap.Logger
}

func NewHub(st store.Store, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		rooms:      make(map[string]map[*Client]bool),
		notifRooms: make(map[int64]map[*Client]bool),
		store:      st,
		logger:     logger,
	}
}

// Register admits an authenticated connection. When the same identity
// connects twice the identity index keeps the newest connection; the earlier
// one stays live and keeps whatever room subscriptions it holds.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.userID] = c
	h.mu.Unlock()
	h.logger.Info("client connected", zap.Int64("userId", c.userID))
}

// Unregister tears a connection down everywhere: the identity index, every
// conversation room, and every notification room. Calling it again for the
// same client is a no-op.
func (h *Hub) Unregister(c *Client) {
	if !c.markClosed() {
		return
	}

	h.mu.Lock()
	if h.clients[c.userID] == c {
		delete(h.clients, c.userID)
	}
	for id, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
	for id, room := range h.notifRooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.notifRooms, id)
		}
	}
	h.mu.Unlock()

	close(c.send)
	h.logger.Info("client disconnected", zap.Int64("userId", c.userID))
}

// IsConnected reports whether any connection is currently registered for the
// identity.
func (h *Hub) IsConnected(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[userID] != nil
}

// JoinConversation adds a connection to a conversation room. Authorization
// happens in the router before this is called. Joining twice is the same as
// joining once.
func (h *Hub) JoinConversation(conversationID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[*Client]bool)
		h.rooms[conversationID] = room
	}
	room[c] = true
}

// JoinNotifications adds a connection to its holder's notification room.
func (h *Hub) JoinNotifications(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.notifRooms[userID]
	if room == nil {
		room = make(map[*Client]bool)
		h.notifRooms[userID] = room
	}
	room[c] = true
}

func (h *Hub) inConversation(conversationID string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[conversationID][c]
}

// broadcastToConversation delivers a payload to every live member of a
// conversation room. Unreachable members are skipped, not evicted; eviction
// only ever happens through Unregister.
func (h *Hub) broadcastToConversation(conversationID string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("broadcast marshal failed", zap.String("chatId", conversationID), zap.Error(err))
		return
	}
	for _, c := range h.roomSnapshot(conversationID) {
		c.trySend(payload)
	}
}

// SendNotification delivers a payload to every connection subscribed to a
// user's notification room, if any.
func (h *Hub) SendNotification(userID int64, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("notification marshal failed", zap.Int64("userId", userID), zap.Error(err))
		return
	}
	h.mu.Lock()
	members := make([]*Client, 0, len(h.notifRooms[userID]))
	for c := range h.notifRooms[userID] {
		members = append(members, c)
	}
	h.mu.Unlock()
	for _, c := range members {
		c.trySend(payload)
	}
}

func (h *Hub) roomSnapshot(conversationID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		members = append(members, c)
	}
	return members
}

// sendTo replies to a single caller. Best effort, like every other delivery.
func (h *Hub) sendTo(c *Client, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("reply marshal failed", zap.Int64("userId", c.userID), zap.Error(err))
		return
	}
	c.trySend(payload)
}
