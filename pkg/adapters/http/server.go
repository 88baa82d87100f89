package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller is the part of the pilot exposed over HTTP.
type Controller interface {
	Arm(ctx context.Context, req domain.PaymentRequest) error
	Reset(ctx context.Context) error
	Snapshot() domain.Snapshot
	Gatherer() prometheus.Gatherer
}

// StatusResponse is the body of GET /status and of every SSE message.
type StatusResponse struct {
	Phase     domain.Phase           `json:"phase"`
	Status    string                 `json:"status"`
	Terminal  bool                   `json:"terminal"`
	Armed     bool                   `json:"armed"`
	Request   *domain.PaymentRequest `json:"request,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewStatusResponse maps a snapshot to its wire form.
func NewStatusResponse(snap domain.Snapshot) StatusResponse {
	return StatusResponse{
		Phase:     snap.Phase,
		Status:    snap.Phase.Status(),
		Terminal:  snap.Terminal(),
		Armed:     snap.Armed(),
		Request:   snap.Request,
		UpdatedAt: snap.UpdatedAt,
	}
}

// Server serves the pilot's control and observation endpoints.
type Server struct {
	Controller Controller
	Streams    *StreamManager
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager so snapshots can be pushed from outside.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the pilot.
func NewHandler(c Controller, opts ...Option) http.Handler {
	server := &Server{
		Controller: c,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/status", server.GetStatus)
	r.Get("/events", server.SubscribeEvents)
	r.Post("/payments", server.CreatePayment)
	r.Post("/reset", server.Reset)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "ussdpilot-http",
		"version": strings.TrimSpace(ussdpilot.Version),
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NewStatusResponse(s.Controller.Snapshot()))
}

// CreatePayment handles the POST /payments request. It arms the pilot.
func (s *Server) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var body domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreatePayment: invalid request body", "err", err)
		return
	}
	body.Amount = strings.TrimSpace(body.Amount)
	body.DestinationID = strings.TrimSpace(body.DestinationID)
	body.DisplayName = strings.TrimSpace(body.DisplayName)

	if err := s.Controller.Arm(r.Context(), body); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) || errors.Is(err, domain.ErrInvalidDestination) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Arm error: %v", err), http.StatusInternalServerError)
		s.logger.Error("CreatePayment failed", "err", err)
		return
	}

	status := NewStatusResponse(s.Controller.Snapshot())
	s.Publish(status)
	s.writeJSON(w, http.StatusCreated, status)
}

// Reset handles the POST /reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	if err := s.Controller.Reset(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Reset failed", "err", err)
		return
	}
	s.Publish(NewStatusResponse(s.Controller.Snapshot()))
	w.WriteHeader(http.StatusNoContent)
}

// Publish pushes a status to every SSE subscriber.
func (s *Server) Publish(status StatusResponse) {
	data, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("failed to encode status", "err", err)
		return
	}
	s.Streams.Broadcast(string(data))
}

// PhaseHooks returns hooks that push the current status to sm on every phase
// change, for pilots driven outside the HTTP handlers.
func PhaseHooks(sm *StreamManager, snapshot func() domain.Snapshot) domain.LifecycleHooks {
	s := &Server{Streams: sm, logger: sm.logger}
	return domain.LifecycleHooks{
		OnPhaseChange: func(ctx context.Context, _ *domain.PhaseEvent) {
			s.Publish(NewStatusResponse(snapshot()))
		},
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager fans status messages out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber. The returned func unregisters it.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast delivers msg to every subscriber, dropping it for slow clients.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}
