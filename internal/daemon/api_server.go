package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"spool/internal/api"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
)

// apiServer serves the JSON API over a plain net/http server bound to the
// configured loopback address.
type apiServer struct {
	service  *api.Service
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, service *api.Service, logger *slog.Logger) (*apiServer, error) {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, err
	}

	s := &apiServer{
		service:  service,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		listener: listener,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/items", s.handleList)
	mux.HandleFunc("POST /api/items", s.handleSubmit)
	mux.HandleFunc("GET /api/items/{id}", s.handleDescribe)
	mux.HandleFunc("GET /api/items/{id}/debug", s.handleDebug)
	mux.HandleFunc("POST /api/items/{id}/cancel", s.handleCancel)
	mux.HandleFunc("DELETE /api/items/{id}", s.handleRemove)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server terminated", logging.Error(err))
		}
	}()
	return s, nil
}

func (s *apiServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *apiServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("api server shutdown", logging.Error(err))
	}
}

type submitRequest struct {
	SourceRef string `json:"sourceRef"`
	OwnerID   string `json:"ownerId"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.List(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	item, err := s.service.Submit(r.Context(), req.SourceRef, req.OwnerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *apiServer) handleDescribe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := s.service.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *apiServer) handleDebug(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	info, err := s.service.Debug(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cancelled, err := s.service.Cancel(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: cancelled})
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.service.Remove(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	message := services.Details(err).Message
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: message})
	case errors.Is(err, services.ErrInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
	case errors.Is(err, services.ErrConflict), errors.Is(err, queue.ErrDuplicateSource):
		writeJSON(w, http.StatusConflict, errorResponse{Error: message})
	default:
		s.logger.Error("api request failed", logging.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid item id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
