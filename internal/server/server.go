package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/noisefield/internal/server/config"
	"github.com/OCharnyshevich/noisefield/internal/server/conn"
	"github.com/OCharnyshevich/noisefield/internal/server/packet"
	"github.com/OCharnyshevich/noisefield/internal/server/session"
	"github.com/OCharnyshevich/noisefield/internal/server/world"
)

const shutdownTimeout = 5 * time.Second

// Server serves field samples over HTTP and tiles over WebSocket.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	world    *world.World
	sessions *session.Manager
	upgrader websocket.Upgrader
}

// New creates a new Server with the given config, logger and world.
func New(cfg *config.Config, log *slog.Logger, w *world.World) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		world:    w,
		sessions: session.NewManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /sample", s.handleSample)
	mux.HandleFunc("GET /sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.sessions.Snapshot())
	})
	mux.HandleFunc("GET /tiles", s.handleTiles)
	return mux
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := strconv.ParseFloat(q.Get("x"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, packet.NewError(fmt.Errorf("parse x: %w", err)))
		return
	}
	y, err := strconv.ParseFloat(q.Get("y"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, packet.NewError(fmt.Errorf("parse y: %w", err)))
		return
	}
	tag := q.Get("tag")

	v, err := s.world.Sample(x, y, tag)
	if err != nil {
		s.log.Error("sample field", "error", err)
		writeJSON(w, http.StatusInternalServerError, packet.NewError(err))
		return
	}
	writeJSON(w, http.StatusOK, packet.Value{Type: packet.TypeValue, X: x, Y: y, Tag: tag, Value: v})
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade", "error", err)
		return
	}
	conn.NewConnection(r.Context(), ws, s.cfg, s.log, s.world, s.sessions).Handle()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start begins listening for connections and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Sessions observe server shutdown through their request context.
		BaseContext: func(net.Listener) context.Context { return ctx },
		ErrorLog:    slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	s.log.Info("server started",
		"port", s.cfg.Port,
		"seed", s.cfg.Seed,
		"kernel", s.cfg.Kernel,
		"octaves", s.cfg.Octaves,
		"tileSize", s.cfg.TileSize,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("server shutting down", "sessions", s.sessions.Count(), "accepted", s.sessions.Accepted())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
