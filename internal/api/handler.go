package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/molkiya/spectra/internal/hub"
	"github.com/molkiya/spectra/internal/models"
	"github.com/molkiya/spectra/internal/service"
	"github.com/molkiya/spectra/pkg/logger"
)

// requestTimeout bounds REST calls. The socket route is not subject to it.
const requestTimeout = 10 * time.Second

// Options carries the flags reported by the health check and the socket
// origin policy.
type Options struct {
	MockMode       bool
	DemoMode       bool
	AllowedOrigins []string
}

// Handler holds all HTTP handlers
type Handler struct {
	orch   *service.Orchestrator
	hub    *hub.Hub
	opts   Options
	logger *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(orch *service.Orchestrator, h *hub.Hub, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		orch:   orch,
		hub:    h,
		opts:   opts,
		logger: log.Named("api"),
	}
}

// Routes sets up all routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Health check
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/api/session/create", h.CreateSession)
		r.Get("/api/session/{id}/state", h.GetState)
		r.Post("/api/session/{id}/start", h.StartTimer)
		r.Delete("/api/session/{id}", h.EndSession)
		r.Get("/api/timeline/{id}", h.GetTimeline)
	})

	// Long-lived; kept out of the timeout group
	r.Get("/ws/session/{id}", h.SessionSocket)

	return r
}

// Health handles health check requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:   "ok",
		MockMode: h.opts.MockMode,
		DemoMode: h.opts.DemoMode,
	})
}

// CreateSession handles session creation requests
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.orch.CreateSession(r.Context())
	h.respondJSON(w, http.StatusOK, models.SessionCreatedResponse{SessionID: session.ID})
}

// GetState handles session state requests
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	session, err := h.orch.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SessionStateResponse{
		SessionID:     session.ID,
		Phase:         session.Phase,
		TimeRemaining: session.TimeRemaining,
		Score:         session.Score,
		DecisionsMade: session.DecisionsMade,
		Active:        session.Active,
	})
}

// StartTimer handles countdown start requests
func (h *Handler) StartTimer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	h.logger.Info("Starting timer", logger.F("session_id", sessionID), logger.F("request_id", GetRequestID(r.Context())))

	session, err := h.orch.StartTimer(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SessionStartedResponse{
		Status:        "started",
		TimeRemaining: session.TimeRemaining,
	})
}

// EndSession handles session cleanup requests
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.orch.EndSession(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// GetTimeline handles timeline requests
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.orch.GetTimeline(r.Context(), chi.URLParam(r, "id")))
}

// respondServiceError maps lifecycle errors to status codes
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		h.respondError(w, http.StatusNotFound, "session not found", err.Error())
	case errors.Is(err, service.ErrSessionNotActive):
		h.respondError(w, http.StatusBadRequest, "session not active", err.Error())
	default:
		h.logger.Error("Request failed", logger.Err(err), logger.F("request_id", GetRequestID(r.Context())))
		h.respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// respondJSON sends a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func (h *Handler) respondError(w http.ResponseWriter, status int, errorMsg, message string) {
	h.respondJSON(w, status, models.ErrorResponse{
		Error:   errorMsg,
		Message: message,
	})
}
