package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"vibetab/client/gemini"
	"vibetab/gateway"
	"vibetab/logger"
	"vibetab/metrics"
	"vibetab/types"
)

// Daemon is the long-running server process. It owns the shared gateway
// and tracker; each websocket connection gets its own session and engine.
type Daemon struct {
	cfg      types.Config
	gateway  *gateway.Gateway
	tracker  *metrics.Tracker
	upgrader websocket.Upgrader
}

// NewDaemon wires the provider client, gateway and tracker from config.
func NewDaemon(cfg types.Config) *Daemon {
	client := gemini.NewClient(cfg.ProviderURL, cfg.ProviderKey, cfg.ProviderModel)
	gw := gateway.New(client, gateway.Config{
		CacheSize:        cfg.CacheSize,
		CacheTTL:         cfg.CacheTTL,
		RequestsPerMin:   cfg.RequestsPerMin,
		MinCompletionLen: cfg.MinSuggestionLen,
	})
	return &Daemon{
		cfg:     cfg,
		gateway: gw,
		tracker: metrics.NewTracker(""),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Sessions are local editor connections; the daemon binds to
			// loopback by default and performs no origin-based auth.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/session", d.handleSession)
	mux.HandleFunc("/healthz", d.handleHealth)
	mux.HandleFunc("/stats", d.handleStats)

	srv := &http.Server{
		Addr:    d.cfg.Addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s (model %s)", d.cfg.Addr, d.cfg.ProviderModel)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (d *Daemon) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	sess := newSession(newSafeConn(conn), d.gateway, d.tracker, d.cfg)
	sess.run(r.Context())
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (d *Daemon) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Gateway     gateway.Stats    `json:"gateway"`
		Suggestions metrics.Counters `json:"suggestions"`
	}{
		Gateway:     d.gateway.Stats(),
		Suggestions: d.tracker.Counters(),
	})
}

// safeConn wraps a websocket connection with a write mutex. The engine's
// editor callbacks and the session read loop both write to the peer;
// gorilla connections do not allow concurrent writers.
type safeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

func newSafeConn(conn *websocket.Conn) *safeConn {
	return &safeConn{conn: conn}
}

func (sc *safeConn) WriteJSON(v any) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	return sc.conn.WriteJSON(v)
}

func (sc *safeConn) ReadJSON(v any) error {
	return sc.conn.ReadJSON(v)
}

func (sc *safeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}
