// Package server exposes the dashboard over HTTP. It builds fresh payloads
// on demand and falls back to the latest stored snapshot when the upstream
// API is unavailable for reasons other than authorization.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gramboard/instagram-insights/client"
	"github.com/gramboard/instagram-insights/common"
	"github.com/gramboard/instagram-insights/dashboard"
	"github.com/gramboard/instagram-insights/model"
	"github.com/gramboard/instagram-insights/state"
)

// Server wires the dashboard builder, snapshot store and HTTP handlers.
type Server struct {
	builder   *dashboard.Builder
	store     state.SnapshotStore
	accountID string
	cfg       common.Config

	mu          sync.Mutex
	cached      *model.DashboardPayload
	cachedAt    time.Time
	cacheMaxAge time.Duration
}

// New creates a Server. The snapshot store may be nil, in which case no
// persistence or fallback is available.
func New(builder *dashboard.Builder, store state.SnapshotStore, cfg common.Config) *Server {
	cfg.ApplyDefaults()
	return &Server{
		builder:     builder,
		store:       store,
		accountID:   cfg.UserID,
		cfg:         cfg,
		cacheMaxAge: 5 * time.Minute,
	}
}

// Handler returns the HTTP routing table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/media", s.handleMedia)
	mux.HandleFunc("/api/aggregates", s.handleAggregates)
	mux.HandleFunc("/api/snapshots", s.handleSnapshots)
	mux.HandleFunc("/healthz", s.handleHealth)
	return s.logRequests(mux)
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}
}

// payload returns a dashboard to serve. Fresh builds are cached briefly so a
// burst of requests does not hammer the Graph API. When a fresh build fails
// for a non-auth reason the latest snapshot is served instead, with a
// message explaining the substitution. Auth errors are never masked.
func (s *Server) payload(ctx context.Context) (*model.DashboardPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.cachedAt) < s.cacheMaxAge {
		return s.cached, nil
	}

	built, err := s.builder.Build(ctx)
	if err == nil {
		s.cached = built
		s.cachedAt = time.Now()
		s.saveSnapshot(ctx, built)
		return built, nil
	}

	if client.IsAuthError(err) {
		return nil, err
	}

	log.Warn().Err(err).Msg("Dashboard build failed, trying snapshot fallback")
	if s.store == nil {
		return nil, err
	}
	snap, snapErr := s.store.Latest(ctx, s.accountID)
	if snapErr != nil || snap.Payload == nil {
		return nil, err
	}
	payload := snap.Payload
	payload.Messages = append(payload.Messages,
		fmt.Sprintf("serving snapshot from %s because the live fetch failed: %v",
			snap.CreatedAt.Format(time.RFC3339), err))
	return payload, nil
}

func (s *Server) saveSnapshot(ctx context.Context, payload *model.DashboardPayload) {
	if s.store == nil {
		return
	}
	snap := &state.Snapshot{AccountID: s.accountID, Payload: payload}
	if err := s.store.Save(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("Failed to save dashboard snapshot")
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
