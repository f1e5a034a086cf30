package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/nickfinder/internal/finder"
	"github.com/MikeSquared-Agency/nickfinder/internal/report"
)

// Server exposes a loaded result file read-only.
type Server struct {
	router  *chi.Mux
	port    int
	doc     *report.Document
	summary report.Summary
}

func NewServer(port int, doc *report.Document) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		doc:     doc,
		summary: report.Summarize(doc.Result),
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/nicknames", func(r chi.Router) {
		r.Get("/", s.listRecords)
		r.Get("/summary", s.getSummary)
		r.Get("/{nickname}", s.getNickname)
	})

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.doc)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"distinct":  s.summary.Distinct(),
		"nicknames": s.summary.Nicknames,
	})
}

func (s *Server) getNickname(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")

	records := []finder.Record{}
	for _, rec := range s.doc.Result {
		if rec.Nickname == nickname {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "nickname not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nickname": nickname,
		"count":    len(records),
		"records":  records,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
