package bridge

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/statekit-dev/statekit/pkg/devtools"
)

// Config configures the bridge server.
type Config struct {
	// ReadTimeout bounds how long a connection may stay silent before it
	// is considered dead.
	ReadTimeout time.Duration

	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration

	// SendBuffer is the per-connection outbound queue. A connection that
	// falls this far behind is dropped rather than stalling the store.
	SendBuffer int

	// CheckOrigin validates the WebSocket origin. The default accepts
	// any origin: the bridge is a development tool, not a production
	// surface.
	CheckOrigin func(r *http.Request) bool

	// Logger for connection lifecycle and protocol errors.
	Logger *slog.Logger
}

// DefaultConfig returns the bridge defaults.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   64,
		CheckOrigin:  func(*http.Request) bool { return true },
		Logger:       slog.Default(),
	}
}

// Server relays recorded commits to connected inspectors and applies
// inspector commands to the store through the recorder.
type Server struct {
	rec      *devtools.Recorder
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	unsubscribe func()
}

// New creates a bridge server over rec. The server starts relaying as
// soon as it is created; Close detaches it from the recorder.
func New(rec *devtools.Recorder, config Config) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultConfig().ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	if config.CheckOrigin == nil {
		config.CheckOrigin = DefaultConfig().CheckOrigin
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		rec:    rec,
		config: config,
		logger: config.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[*client]struct{}),
	}
	s.unsubscribe = rec.OnRecord(s.broadcastEntry)
	return s
}

// Handler returns the HTTP handler exposing the bridge endpoints:
// GET /ws for inspector connections and GET /healthz.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

// Close detaches the bridge from the recorder and drops every connection.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	s.unsubscribe()
	for _, c := range clients {
		c.close()
	}
}

// ClientCount returns the number of connected inspectors.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("bridge: websocket upgrade failed", "error", err)
		return
	}

	c := newClient(s, conn)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	// Bring the inspector up to date before streaming commits.
	if entry, ok := s.rec.History().Latest(); ok {
		c.enqueue(encodeFrame(frame{
			Type:   frameInit,
			Seq:    entry.Seq,
			Action: entry.Action,
			State:  entry.State,
		}))
	}

	go c.writePump()
	c.readLoop()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// broadcastEntry relays one recorded commit to every connected inspector.
// Slow consumers are dropped so a stuck inspector never stalls the store's
// notification path.
func (s *Server) broadcastEntry(e devtools.Entry) {
	msg := encodeFrame(frame{
		Type:   frameState,
		Seq:    e.Seq,
		Action: e.Action,
		State:  e.State,
	})

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if !c.enqueue(msg) {
			s.logger.Warn("bridge: dropping slow inspector connection")
			c.close()
		}
	}
}

func encodeFrame(f frame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		// Frames are built from already-serialized state; this cannot
		// fail for well-formed entries.
		return []byte(`{"type":"error","error":"frame encode failed"}`)
	}
	return b
}
