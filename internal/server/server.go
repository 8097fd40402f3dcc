// Package server is a reference backend for the rejection-code REST contract.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"qadmin/internal/log"

	"github.com/go-chi/chi/v5"
)

// Config holds server configuration.
type Config struct {
	Addr  string
	Token string
	Repo  Repository
}

// NewRouter registers every route under /api/v1.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := NewHandler(cfg.Repo)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.Token))

		r.Get("/rejection_codes", h.ListRejectionCodes)
		r.Post("/rejection_codes", h.CreateRejectionCode)
		r.Get("/rejection_codes/{key}", h.GetRejectionCode)
		r.Put("/rejection_codes/{key}", h.UpdateRejectionCode)
		r.Delete("/rejection_codes/{key}", h.DeleteRejectionCode)

		r.Post("/functions/bulk_upload_tools/execute", h.BulkUpload)
	})
	return r
}

// Serve runs until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, cfg Config) error {
	srv := &http.Server{
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Infof("serving rejection codes API on http://%s/api/v1", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
