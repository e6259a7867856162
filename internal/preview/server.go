// Package preview streams console activity to browser clients over
// WebSocket.
//
// The published site only re-renders on its own schedule, so an operator
// editing content has no immediate feedback that a save landed. The preview
// server closes that gap: every save attempt and every refreshed document
// snapshot is broadcast to connected clients, and a small preview page can
// re-render the affected section the moment a write succeeds.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/eliphany/siteadmin/internal/session"
)

// MessageType classifies a preview broadcast.
type MessageType string

const (
	// MessageTypeHello greets a newly connected client.
	MessageTypeHello MessageType = "hello"

	// MessageTypeSaveResult reports a finished save attempt.
	MessageTypeSaveResult MessageType = "save_result"

	// MessageTypeDocument carries a refreshed document snapshot.
	MessageTypeDocument MessageType = "document"
)

// Message is one preview broadcast.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SaveResultData is the wire form of a save attempt notification.
type SaveResultData struct {
	AttemptID     string `json:"attempt_id"`
	DocID         string `json:"doc_id"`
	DocType       string `json:"doc_type"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
	UploadedCount int    `json:"uploaded_count,omitempty"`
}

// DocumentData carries a document snapshot for re-rendering.
type DocumentData struct {
	DocID    string         `json:"doc_id"`
	DocType  string         `json:"doc_type"`
	Document map[string]any `json:"document"`
}

// Config holds server configuration.
type Config struct {
	// Port to listen on. Zero asks the OS for a free port (default 7777
	// via DefaultConfig).
	Port int

	// Logger for server activity (nil disables logging).
	Logger *zap.SugaredLogger
}

// DefaultConfig returns the default preview server configuration.
func DefaultConfig() *Config {
	return &Config{Port: 7777}
}

// Server broadcasts preview messages to connected WebSocket clients.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *zap.SugaredLogger
}

// NewServer creates a preview server.
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      fmt.Sprintf(":%d", config.Port),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 64),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start begins listening and serving WebSocket clients.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Infow("preview server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Errorw("preview server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down preview server: %w", err)
	}

	s.wg.Wait()
	return nil
}

// Addr returns the listening address once the server has started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast queues a message for all connected clients. Messages are
// dropped rather than queued unbounded when the channel is full; the
// preview feed is advisory and must never slow down a save.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Warnw("preview broadcast channel full, dropping message", "type", msg.Type)
	}
}

// BroadcastSaveResult publishes a finished save attempt.
func (s *Server) BroadcastSaveResult(result session.SaveResult) {
	data := SaveResultData{
		AttemptID:     result.AttemptID.String(),
		DocID:         result.DocID,
		DocType:       result.DocType,
		Outcome:       result.Outcome,
		UploadedCount: result.UploadedCount,
	}
	if result.Err != nil {
		data.Error = result.Err.Error()
	}

	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Errorw("failed to marshal save result", "error", err)
		return
	}
	s.Broadcast(Message{Type: MessageTypeSaveResult, Timestamp: result.Timestamp, Data: payload})
}

// BroadcastDocument publishes a refreshed document snapshot.
func (s *Server) BroadcastDocument(docType, docID string, doc map[string]any) {
	payload, err := json.Marshal(DocumentData{DocID: docID, DocType: docType, Document: doc})
	if err != nil {
		s.logger.Errorw("failed to marshal document snapshot", "error", err)
		return
	}
	s.Broadcast(Message{Type: MessageTypeDocument, Data: payload})
}

// SaveCompleted implements session.Listener, so a server can be attached
// directly to an editing session.
func (s *Server) SaveCompleted(result session.SaveResult) {
	s.BroadcastSaveResult(result)
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Errorw("failed to marshal preview message", "error", err)
				continue
			}

			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				conns = append(conns, conn)
			}
			s.clientsMu.RUnlock()

			// Writes happen outside the lock so a slow client cannot
			// stall new connections.
			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	count := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Infow("preview client connected", "clients", count)

	hello, _ := json.Marshal(Message{Type: MessageTypeHello, Timestamp: time.Now()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, hello)
	cancel()

	go s.readLoop(conn)
}

// readLoop drains client frames, which are ignored, and detects disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		count := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Infow("preview client disconnected", "clients", count)
		return
	}
	s.clientsMu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Site Admin Preview</title>
</head>
<body>
    <h1>Site Admin Preview Feed</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Health check: <a href="/health">/health</a></p>
    <p>Connect a WebSocket client to receive save results and document snapshots.</p>
</body>
</html>`, r.Host)
}
