package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"leaderflow/internal/config"
	appLog "leaderflow/internal/log"
	"leaderflow/internal/store"
)

const dateLayout = "2006-01-02"

// Refresher is the part of refresh.Refresher the API triggers.
type Refresher interface {
	Run(ctx context.Context) error
}

// Server exposes the calendar layout engine and the event store over
// HTTP.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	refresher Refresher
	loc       *time.Location
	now       func() time.Time
}

// NewServer constructs a Server. refresher may be nil when no feeds are
// configured.
func NewServer(cfg *config.Config, st *store.Store, refresher Refresher) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		refresher: refresher,
		loc:       cfg.Location(),
		now:       time.Now,
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.basicAuthEnabled() {
			r.Use(s.basicAuth)
		}

		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)
			r.Put("/", s.handleImportEvents)
			r.Get("/{id}", s.handleGetEvent)
			r.Put("/{id}", s.handleUpdateEvent)
			r.Delete("/{id}", s.handleDeleteEvent)
		})

		r.Get("/api/week", s.handleWeek)
		r.Get("/api/month", s.handleMonth)

		r.Post("/api/drag/{id}", s.handleBeginDrag)
		r.Delete("/api/drag", s.handleCancelDrag)
		r.Post("/api/drop/week", s.handleDropWeek)
		r.Post("/api/drop/month", s.handleDropMonth)

		r.Post("/api/refresh", s.handleRefresh)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
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
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="LeaderFlow", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Microsecond),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeJSON(w, http.StatusOK, map[string]any{"refreshed": false})
		return
	}
	if err := s.refresher.Run(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}

// parseDay reads a YYYY-MM-DD value in the display zone. Empty means
// today.
func (s *Server) parseDay(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		y, m, d := s.now().In(s.loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, s.loc), nil
	}
	return time.ParseInLocation(dateLayout, v, s.loc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeStoreError maps store sentinels onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrNoDrag):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("store operation failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
