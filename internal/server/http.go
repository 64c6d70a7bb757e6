package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/joseph-ayodele/venue-planner/internal/syncer"
)

// HTTPConfig lists the handlers served next to the gRPC API. Nil handlers
// are not mounted.
type HTTPConfig struct {
	Addr    string
	Metrics http.Handler
	Notify  http.Handler
	Sync    func() syncer.ConnectionStatus
	Logger  *slog.Logger
}

type healthResponse struct {
	Status string                  `json:"status"`
	Sync   syncer.ConnectionStatus `json:"sync"`
}

// NewHTTPHandler mounts /healthz, /metrics and /ws.
func NewHTTPHandler(cfg HTTPConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok"}
		if cfg.Sync != nil {
			resp.Sync = cfg.Sync()
		} else {
			resp.Sync = syncer.ConnectionStatus{State: syncer.StateDisconnected, Backend: "none"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	if cfg.Notify != nil {
		mux.Handle("/ws", cfg.Notify)
	}
	return mux
}

// HTTP wraps the companion http.Server.
type HTTP struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewHTTP(cfg HTTPConfig) *HTTP {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHTTPHandler(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Serve blocks until the listener fails or Shutdown is called.
func (h *HTTP) Serve(lis net.Listener) error {
	h.logger.Info("http.serving", "addr", lis.Addr().String())
	if err := h.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *HTTP) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
