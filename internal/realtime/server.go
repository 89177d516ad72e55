// Package realtime streams scanning state to browser clients over WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	sendBuffer    = 64
)

// TypeState is the message type for state updates.
const TypeState = "state"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StateMessage is the JSON document sent for every state change.
type StateMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	State     string    `json:"state"`
	Payload   string    `json:"payload,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StateSource is a read-only view of a scanner's state.
type StateSource interface {
	SessionID() string
	Subscribe() (<-chan model.ScanningState, func())
}

// Server fans scanning state out to WebSocket clients. Clients cannot
// change anything; their messages are read and dropped.
type Server struct {
	log *logger.Logger
	now func() time.Time

	clients   map[*client]bool
	clientsMu sync.RWMutex

	lastMu sync.RWMutex
	last   *StateMessage
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// New creates a new realtime server.
func New(log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		log:     log,
		now:     time.Now,
		clients: make(map[*client]bool),
	}
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /state", s.handleState)
	return mux
}

// ListenAndServe serves Handler on addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info(ctx, "state feed listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if e := <-errCh; !errors.Is(e, http.ErrServerClosed) && err == nil {
			err = e
		}
		return err
	}
}

// Follow forwards every state of src until src stops publishing or ctx ends.
// It returns immediately.
func (s *Server) Follow(ctx context.Context, src StateSource) {
	ch, cancel := src.Subscribe()
	id := src.SessionID()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-ch:
				if !ok {
					return
				}
				s.Publish(id, st)
			}
		}
	}()
}

// Publish records state as the latest snapshot and broadcasts it.
func (s *Server) Publish(sessionID string, state model.ScanningState) {
	msg := &StateMessage{
		Type:      TypeState,
		SessionID: sessionID,
		State:     state.Kind.String(),
		Payload:   state.Payload,
		Message:   state.Message,
		Timestamp: s.now(),
	}

	s.lastMu.Lock()
	s.last = msg
	s.lastMu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.broadcast(data)
}

// Snapshot returns the latest published state message, if any.
func (s *Server) Snapshot() (StateMessage, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return StateMessage{}, false
	}
	return *s.last, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.Snapshot()
	if !ok {
		msg = StateMessage{
			Type:      TypeState,
			State:     model.StateUndetermined.String(),
			Timestamp: s.now(),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		s.log.Warn(r.Context(), "encoding state", "error", err)
	}
}

// handleWebSocket upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		server: s,
	}

	s.clientsMu.Lock()
	s.clients[c] = true
	if msg, ok := s.Snapshot(); ok {
		if data, err := json.Marshal(msg); err == nil {
			c.send <- data
		}
	}
	s.clientsMu.Unlock()

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection so control frames are processed.
func (c *client) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.Debug(context.Background(), "websocket read error", "error", err)
			}
			return
		}
	}
}

// writePump writes messages to the WebSocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeClient cleans up a disconnected client.
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

// broadcast sends data to all connected clients.
func (s *Server) broadcast(data []byte) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, skip.
		}
	}
}
