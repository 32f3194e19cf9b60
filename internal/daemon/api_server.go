package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/logging"
	"github.com/Kirkezz/parkour-analyzer/internal/services"
)

const (
	defaultEventsLimit = 200
	maxEventsWait      = 30 * time.Second
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  cfg.Paths.APIToken,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(srv.token, srv.handleStatus))
	mux.HandleFunc("/api/log", authMiddleware(srv.token, srv.handleLog))
	mux.HandleFunc("/api/location", authMiddleware(srv.token, srv.handleLocation))
	mux.HandleFunc("/api/paths", authMiddleware(srv.token, srv.handlePaths))
	mux.HandleFunc("/api/validate", authMiddleware(srv.token, srv.handleValidate))
	mux.HandleFunc("/api/probe", authMiddleware(srv.token, srv.handleProbe))
	mux.HandleFunc("/api/events", authMiddleware(srv.token, srv.handleEvents))
	// Browsers cannot set Authorization headers on websocket dials, so the
	// handler accepts a token query parameter as well.
	mux.HandleFunc("/api/events/ws", srv.handleEventsWS)

	srv.server = &http.Server{
		Handler:           tagRequests(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// tagRequests annotates every API request with a transport label and a fresh
// request identifier, echoed back in the X-Request-ID header.
func tagRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := services.WithTransport(r.Context(), services.TransportAPI)
		ctx = services.WithRequestID(ctx, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		SessionID:    status.SessionID,
		StartedAt:    api.FormatTime(status.StartedAt),
		SocketPath:   status.SocketPath,
		LockFilePath: status.LockFilePath,
		LogPath:      status.LogPath,
		APIBind:      status.APIBind,
		Watch:        api.FromWatchStatus(status.Watch),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path, snap, err := s.daemon.LogContent(r.Context())
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LogContentResponse{
		Path:        path,
		Content:     snap.Content,
		Fingerprint: snap.Fingerprint,
	})
}

func (s *apiServer) handleLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path, err := s.daemon.LogLocation(r.Context())
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LogLocationResponse{Path: path})
}

func (s *apiServer) handlePaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	candidates := s.daemon.DefaultPaths()
	active := ""
	if path, err := s.daemon.LogLocation(r.Context()); err == nil {
		active = path
	}
	s.writeJSON(w, http.StatusOK, api.PathsResponse{
		Candidates: api.FromCandidates(candidates, s.daemon.ValidatePath),
		Active:     active,
	})
}

func (s *apiServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ValidateResponse{
		Path:  path,
		Valid: s.daemon.ValidatePath(path),
	})
}

func (s *apiServer) handleProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.daemon.Probe(r.Context(), req.Path); err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hub := s.daemon.EventStream()

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = defaultEventsLimit
	}
	tail := query.Get("tail") == "1" || strings.EqualFold(query.Get("tail"), "true")
	waitMs, _ := strconv.ParseInt(query.Get("wait_ms"), 10, 64)

	if tail && since == 0 && waitMs <= 0 {
		batch, next := hub.Tail(limit)
		s.writeJSON(w, http.StatusOK, api.EventsResponse{
			Events: batch,
			Next:   next,
			First:  hub.FirstSequence(),
		})
		return
	}

	ctx := r.Context()
	wait := waitMs > 0
	if wait {
		waitFor := time.Duration(waitMs) * time.Millisecond
		if waitFor > maxEventsWait {
			waitFor = maxEventsWait
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, waitFor)
		defer cancel()
	}

	batch, next, err := hub.Fetch(ctx, since, limit, wait)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.EventsResponse{
		Events: batch,
		Next:   next,
		First:  hub.FirstSequence(),
	})
}

// statusForError maps service error markers onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
