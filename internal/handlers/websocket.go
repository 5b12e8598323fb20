package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/logging"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WSHub keeps the open websocket connections of every topic.
type WSHub struct {
	connections map[uuid.UUID]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[uuid.UUID]map[*websocket.Conn]bool)}
}

type postEvent struct {
	Event   string    `json:"event"`
	PostID  uuid.UUID `json:"post_id"`
	TopicID uuid.UUID `json:"topic_id"`
	Author  string    `json:"author"`
	HTML    string    `json:"html"`
}

func (h *WSHub) Register(topicID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[topicID] == nil {
		h.connections[topicID] = make(map[*websocket.Conn]bool)
	}
	h.connections[topicID][conn] = true
}

func (h *WSHub) Unregister(topicID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	conns, ok := h.connections[topicID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.connections, topicID)
	}
}

func (h *WSHub) Subscribers(topicID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[topicID])
}

// BroadcastPost sends a new post to every connection watching its topic.
// Connections that fail the write are dropped.
func (h *WSHub) BroadcastPost(post *models.Post) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, exists := h.connections[post.TopicID]
	if !exists {
		return
	}

	message, err := json.Marshal(postEvent{
		Event:   "post_created",
		PostID:  post.ID,
		TopicID: post.TopicID,
		Author:  post.AuthorName,
		HTML:    string(post.MessageHTML()),
	})
	if err != nil {
		logging.Errorf("failed to marshal post event: %v", err)
		return
	}

	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logging.Warnf("dropping websocket subscriber of topic %s: %v", post.TopicID, err)
			delete(conns, conn)
			conn.Close()
		}
	}
	if len(conns) == 0 {
		delete(h.connections, post.TopicID)
	}
}

// checkOrigin allows every origin when AllowedOrigins is empty.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	return false
}

// TopicSocket streams the posts written in a topic while the connection
// stays open. Incoming messages are read only to notice the close.
func (h *Handler) TopicSocket(w http.ResponseWriter, r *http.Request) {
	if h.WSHub == nil {
		sendError(w, "Live updates are disabled", http.StatusNotFound)
		return
	}
	topicID, ok := pathID(r, "topic_id")
	if !ok {
		sendError(w, "Topic not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	_, err := h.TopicRepo.GetByID(ctx, topicID)
	cancel()
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Topic not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Errorf("failed to load topic %s: %v", topicID, err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.Warnf("websocket upgrade failed: %v", err)
		return
	}

	h.WSHub.Register(topicID, conn)
	defer func() {
		h.WSHub.Unregister(topicID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debugf("websocket closed: %v", err)
			}
			return
		}
	}
}
