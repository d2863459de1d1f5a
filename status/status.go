package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bosley/parley/pipeline"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxBacklog = 256
	sendBuffer = maxBacklog + 16
)

// Server exposes pipeline progress over HTTP and a websocket feed. It
// implements pipeline.Reporter.
type Server struct {
	addr     string
	router   *mux.Router
	server   *http.Server
	upgrader websocket.Upgrader

	mu          sync.Mutex
	events      []pipeline.Event
	subscribers map[*wsConnection]struct{}
}

type wsConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	server    *Server
	closeOnce sync.Once
}

func New(addr string) *Server {
	s := &Server{
		addr:        addr,
		subscribers: make(map[*wsConnection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/events", s.handleListEvents).Methods("GET")
	router.HandleFunc("/api/runs/{runID}", s.handleGetRun).Methods("GET")
	router.HandleFunc("/ws", s.handleWebSocket)
	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Status server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeSubscribers()
	return s.server.Shutdown(shutdownCtx)
}

// Report records e and forwards it to every websocket subscriber.
func (s *Server) Report(e pipeline.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		slog.Error("Failed to encode event", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	if len(s.events) > maxBacklog {
		s.events = s.events[len(s.events)-maxBacklog:]
	}
	for c := range s.subscribers {
		select {
		case c.send <- msg:
		default:
			slog.Warn("Dropping slow websocket subscriber")
			delete(s.subscribers, c)
			c.close()
		}
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := append([]pipeline.Event(nil), s.events...)
	s.mu.Unlock()

	writeJSON(w, events)
}

// handleGetRun returns every recorded event of one run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]
	if _, err := uuid.Parse(runID); err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	var events []pipeline.Event
	s.mu.Lock()
	for _, e := range s.events {
		if e.RunID == runID {
			events = append(events, e)
		}
	}
	s.mu.Unlock()

	if len(events) == 0 {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	wsConn := &wsConnection{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		server: s,
	}

	// Backlog first, then live events, under one lock so nothing is missed.
	s.mu.Lock()
	for _, e := range s.events {
		if msg, err := json.Marshal(e); err == nil {
			wsConn.send <- msg
		}
	}
	s.subscribers[wsConn] = struct{}{}
	s.mu.Unlock()

	go wsConn.writePump()
	go wsConn.readPump()
}

func (s *Server) unregister(c *wsConnection) {
	s.mu.Lock()
	delete(s.subscribers, c)
	s.mu.Unlock()
}

func (s *Server) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.subscribers {
		delete(s.subscribers, c)
		c.close()
	}
}

func (c *wsConnection) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *wsConnection) writePump() {
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

func (c *wsConnection) readPump() {
	defer func() {
		c.server.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			return
		}
	}
}
