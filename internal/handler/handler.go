package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"heropage/internal/assets"
	"heropage/internal/domain"
	"heropage/internal/render"
	"heropage/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MountResponse is returned when a Hero instance is mounted
type MountResponse struct {
	Session    string               `json:"session"`
	State      service.SessionState `json:"state"`
	PointerURL string               `json:"pointer_url"`
	EventsURL  string               `json:"events_url"`
}

// PointerRequest is the body of a pointer event. Seq numbers the events of
// one page in the order they happened; a request carrying a number at or
// below one already applied is ignored. Zero means unnumbered.
type PointerRequest struct {
	Event string `json:"event"`
	Seq   uint64 `json:"seq,omitempty"`
}

// PointerResponse reports the state after a pointer event
type PointerResponse struct {
	service.SessionState
	Changed bool `json:"changed"`
}

// HeroHandler serves the page and the per-session hero API
type HeroHandler struct {
	svc      *service.HeroService
	sessions *service.SessionManager
	resolver assets.Resolver
	events   http.Handler
	logger   *zap.Logger
}

// NewHeroHandler creates a hero handler. events serves the SSE stream.
func NewHeroHandler(svc *service.HeroService, resolver assets.Resolver, events http.Handler, logger *zap.Logger) *HeroHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeroHandler{
		svc:      svc,
		sessions: svc.Sessions(),
		resolver: resolver,
		events:   events,
		logger:   logger,
	}
}

// Page renders the document in its initial state
func (h *HeroHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Render(r.Context(), "")
	if err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		h.writeError(w, "Failed to render page", err.Error(), statusFor(err))
		return
	}

	w.Header().Set("ETag", page.ETag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatch(r.Header.Get("If-None-Match"), page.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.writeHTML(w, page.Body)
}

// Mount creates a session for a page that has loaded
func (h *HeroHandler) Mount(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Mount()
	if err != nil {
		h.logger.Warn("failed to mount session", zap.Error(err))
		h.writeError(w, "Failed to mount", err.Error(), statusFor(err))
		return
	}

	h.writeJSON(w, MountResponse{
		Session:    st.Session,
		State:      st,
		PointerURL: render.PointerPath(st.Session),
		EventsURL:  render.EventsPath(st.Session),
	}, http.StatusCreated)
}

// Fragment re-renders the Hero of a session at its current state
func (h *HeroHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Fragment(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logger.Error("failed to render fragment", zap.Error(err))
		}
		h.writeError(w, "Failed to render hero", err.Error(), statusFor(err))
		return
	}

	w.Header().Set("ETag", page.ETag)
	w.Header().Set("Cache-Control", "no-store")
	h.writeHTML(w, page.Body)
}

// Unmount destroys a session
func (h *HeroHandler) Unmount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if !h.sessions.Unmount(id) {
		h.writeError(w, "Not found", "session "+id+" not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pointer applies a pointer event to a session
func (h *HeroHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	st, changed, err := h.sessions.DispatchSeq(chi.URLParam(r, "session"), domain.PointerEvent(req.Event), req.Seq)
	if err != nil {
		h.writeError(w, "Failed to apply pointer event", err.Error(), statusFor(err))
		return
	}

	h.writeJSON(w, PointerResponse{SessionState: st, Changed: changed}, http.StatusOK)
}

// State returns the current state of a session
func (h *HeroHandler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.State(chi.URLParam(r, "session"))
	if err != nil {
		h.writeError(w, "Not found", err.Error(), statusFor(err))
		return
	}
	h.writeJSON(w, st, http.StatusOK)
}

// Events opens the SSE stream of a mounted session
func (h *HeroHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		h.writeError(w, "Invalid session", "session query parameter is required", http.StatusBadRequest)
		return
	}
	if err := h.sessions.Touch(id); err != nil {
		h.writeError(w, "Not found", err.Error(), statusFor(err))
		return
	}
	h.events.ServeHTTP(w, r)
}

// Asset returns the resolved variant set for a relative image path
func (h *HeroHandler) Asset(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.writeError(w, "Invalid path", "path query parameter is required", http.StatusBadRequest)
		return
	}

	asset, err := h.resolver.Resolve(r.Context(), path)
	if err != nil {
		if errors.Is(err, assets.ErrAssetNotFound) {
			h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to resolve asset", zap.String("path", path), zap.Error(err))
		h.writeError(w, "Failed to resolve asset", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, asset, http.StatusOK)
}

// Health reports liveness
func (h *HeroHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	}, http.StatusOK)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPointerEvent):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// etagMatch implements the weak comparison of If-None-Match
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (h *HeroHandler) writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (h *HeroHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	writeJSON(w, data, statusCode, h.logger)
}

func (h *HeroHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode, h.logger)
}

func writeJSON(w http.ResponseWriter, data any, statusCode int, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON", zap.Error(err))
	}
}
