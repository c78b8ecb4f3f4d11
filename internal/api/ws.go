package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// OverlayEvent is pushed to subscribers whenever a document's overlay
// is re-rendered. A version of 0 means the document's annotations
// were invalidated wholesale (text replaced); clients reload from
// scratch.
type OverlayEvent struct {
	DocID   string `json:"doc_id"`
	Version int64  `json:"version"`
}

// Hub fans overlay change events out to websocket subscribers, one
// subscription set per document. It implements engine.Notifier.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]bool
	log  *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[*websocket.Conn]bool),
		log:  log,
	}
}

// OverlayUpdated broadcasts an event to every subscriber of the
// document. Connections that fail to accept the write are dropped.
func (h *Hub) OverlayUpdated(docID string, version int64) {
	payload, err := json.Marshal(OverlayEvent{DocID: docID, Version: version})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs[docID] {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("dropping websocket subscriber", "doc_id", docID, "error", err)
			conn.Close()
			delete(h.subs[docID], conn)
		}
	}
}

func (h *Hub) subscribe(docID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[docID] == nil {
		h.subs[docID] = make(map[*websocket.Conn]bool)
	}
	h.subs[docID][conn] = true
}

func (h *Hub) unsubscribe(docID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[docID], conn)
	if len(h.subs[docID]) == 0 {
		delete(h.subs, docID)
	}
}

// handleWS upgrades the connection and subscribes it to overlay
// events for one document (doc_id query parameter). The read loop
// exists only to detect disconnects; clients do not send messages.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc_id")
	if docID == "" {
		jsonError(w, "doc_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.hub.subscribe(docID, conn)
	defer func() {
		s.hub.unsubscribe(docID, conn)
		conn.Close()
	}()

	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
