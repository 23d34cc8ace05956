package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/session"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler feeds frames received over a WebSocket into a session and
// streams every resulting output back to the client.
type StreamHandler struct {
	sessions *session.Manager
	log      *slog.Logger
}

// NewStreamHandler creates a new StreamHandler for the given session manager.
func NewStreamHandler(sessions *session.Manager, log *slog.Logger) *StreamHandler {
	return &StreamHandler{sessions: sessions, log: log}
}

// ServeHTTP handles WebSocket upgrade requests for /api/sessions/{id}/ws.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "session", id, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	c := &streamConn{conn: conn}
	outputs, cancel := sess.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for out := range outputs {
			if err := c.writeJSON(out); err != nil {
				return
			}
		}
		// Channel closed by session deletion.
		c.close(websocket.CloseNormalClosure, "session ended")
	}()

	h.log.Debug("stream opened", "session", id)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		frame, err := pose.DecodeFrame(data)
		if err != nil {
			c.writeJSON(map[string]string{"error": err.Error()})
			continue
		}
		if _, err := sess.Feed(frame); err != nil {
			c.writeJSON(map[string]string{"error": err.Error()})
			break
		}
	}

	cancel()
	<-done
	h.log.Debug("stream closed", "session", id)
}

// streamConn serializes writes; gorilla connections allow one concurrent writer.
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *streamConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *streamConn) close(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	// Unblock the reader if the client never answers the close.
	c.conn.SetReadDeadline(time.Now().Add(writeWait))
}
