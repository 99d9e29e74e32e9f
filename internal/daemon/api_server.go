package daemon

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

	"easel/internal/api"
	"easel/internal/config"
	"easel/internal/provider"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	service *api.Service
	daemon  *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, service *api.Service, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    cfg.Paths.APIBind,
		logger:  logger,
		service: service,
		daemon:  d,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("GET /config", authMiddleware(token, srv.handleGetConfig))
	mux.HandleFunc("POST /config", authMiddleware(token, srv.handleUpdateConfig))
	mux.HandleFunc("POST /config/sync", authMiddleware(token, srv.handleSyncConfig))
	mux.HandleFunc("GET /providers", authMiddleware(token, srv.handleListProviders))
	mux.HandleFunc("GET /providers/{name}/config", authMiddleware(token, srv.handleGetProviderConfig))
	mux.HandleFunc("POST /providers/{name}/config", authMiddleware(token, srv.handleSetProviderConfig))
	mux.HandleFunc("POST /providers/{name}/test", authMiddleware(token, srv.handleTestProvider))
	mux.HandleFunc("POST /providers/{name}/refresh", authMiddleware(token, srv.handleRefreshProvider))
	mux.HandleFunc("GET /api/status", authMiddleware(token, srv.handleStatus))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Refresh responses wait for the download pass to finish.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

// Handler exposes the route table for tests.
func (s *apiServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
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

func (s *apiServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.service.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResolved(resolved))
}

func (s *apiServer) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	patch, ok := s.decodePatch(w, r)
	if !ok {
		return
	}
	resolved, fieldErrs, err := s.service.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(fieldErrs) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: fieldErrs,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResolved(resolved))
}

func (s *apiServer) handleSyncConfig(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.service.SyncFromFile(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResolved(resolved))
}

func (s *apiServer) handleListProviders(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ProviderList{Providers: s.service.ListProviders()})
}

func (s *apiServer) handleGetProviderConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	values, err := s.service.GetProviderConfig(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProviderConfigResponse{Name: name, Config: values})
}

func (s *apiServer) handleSetProviderConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	patch, ok := s.decodePatch(w, r)
	if !ok {
		return
	}
	fieldErrs, err := s.service.SetProviderConfig(r.Context(), name, patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: fieldErrs,
		})
		return
	}
	values, err := s.service.GetProviderConfig(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ProviderConfigResponse{Name: name, Config: values})
}

func (s *apiServer) handleTestProvider(w http.ResponseWriter, r *http.Request) {
	ok, message, err := s.service.TestProvider(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TestResult{OK: ok, Message: message})
}

func (s *apiServer) handleRefreshProvider(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.service.RefreshProvider(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

// decodePatch reads a JSON object of setting values, accepting strings,
// numbers, and booleans as the dashboard sends them.
func (s *apiServer) decodePatch(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	patch := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			patch[key] = v
		case bool:
			patch[key] = strconv.FormatBool(v)
		case float64:
			patch[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported value for %q", key))
			return nil, false
		}
	}
	return patch, true
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []config.FieldError `json:"fields,omitempty"`
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, provider.ErrConfigInvalid):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response", slog.String("error", err.Error()))
	}
}
