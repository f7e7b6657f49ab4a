// Package remote provides a WebSocket frontend that streams frames to
// connected clients and receives their key events.
package remote

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/retroenv/retrochip8/internal/runner"
	"github.com/retroenv/retrogolib/log"
)

// Default server settings.
const (
	DefaultListen = "127.0.0.1:8088"
	DefaultPath   = "/chip8"
)

const (
	clientQueueSize = 4
	writeTimeout    = time.Second
	shutdownTimeout = 2 * time.Second
)

//go:embed index.html
var indexPage []byte

// Server is the WebSocket frontend.
type Server struct {
	logger   *log.Logger
	runner   *runner.Runner
	path     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// New returns a new WebSocket frontend serving the endpoint at path.
func New(logger *log.Logger, r *runner.Runner, path string) *Server {
	if path == "" {
		path = DefaultPath
	}
	return &Server{
		logger:  logger,
		runner:  r,
		path:    path,
		clients: map[*client]struct{}{},
	}
}

// Handler returns the HTTP handler serving the browser client page and the
// WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveClient)
	mux.HandleFunc("/", s.serveIndex)
	return mux
}

// Run listens on the given address and executes the machine until the
// context is cancelled or the machine fails.
func (s *Server) Run(ctx context.Context, listen string) error {
	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listen, err)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(listener)
	}()
	s.logger.Info("Started WebSocket server",
		log.String("address", listener.Addr().String()),
		log.String("path", s.path))

	runErr := s.runner.Run(ctx, s.broadcast)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Shutting down WebSocket server failed", log.Err(err))
	}
	s.closeClients()

	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return runErr
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *Server) serveClient(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", log.Err(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
		addr: conn.RemoteAddr().String(),
	}
	s.logger.Info("Client connected", log.String("client", c.addr))

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop queues the key events of a client until the connection fails or
// the client sends an invalid message.
func (s *Server) readLoop(c *client) {
	defer s.removeClient(c)

	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("Reading client message failed", log.String("client", c.addr), log.Err(err))
			}
			return
		}
		if typ != websocket.BinaryMessage {
			s.logger.Error("Closing client connection", log.String("client", c.addr),
				log.Err(errors.New("expected binary message")))
			return
		}

		key, pressed, err := DecodeKey(msg)
		if err != nil {
			s.logger.Error("Closing client connection", log.String("client", c.addr), log.Err(err))
			return
		}
		s.runner.QueueKey(key, pressed)
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			s.logger.Debug("Writing client message failed", log.String("client", c.addr), log.Err(err))
			_ = c.conn.Close()
			return
		}
	}
}

// broadcast sends the frame to all clients. Clients that do not keep up
// miss frames.
func (s *Server) broadcast(frame runner.Frame) {
	msg := EncodeFrame(&frame)

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()

	if ok {
		close(c.send)
		_ = c.conn.Close()
		s.logger.Info("Client disconnected", log.String("client", c.addr))
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}
