package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/service"
	"github.com/utafrali/PaintCatalog/pkg/httputil"
	"github.com/utafrali/PaintCatalog/pkg/logger"
	"github.com/utafrali/PaintCatalog/pkg/middleware"
)

// SessionHandler handles HTTP requests for stateful search sessions. Every
// route is scoped to the caller resolved by the Identity middleware.
type SessionHandler struct {
	service *service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// UpdateQueryRequest replaces the session's free-text query.
type UpdateQueryRequest struct {
	Query string `json:"query" validate:"max=256"`
}

// SetPageRequest moves the session to a result page.
type SetPageRequest struct {
	Page int `json:"page"`
}

// SetSortRequest changes the session's result ordering.
type SetSortRequest struct {
	Sort string `json:"sort" validate:"required"`
}

// SaveSearchRequest names the live query for later reuse.
type SaveSearchRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// --- Handlers ---

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

// Get handles GET /api/v1/sessions/{sid}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	view, err := h.service.View(r.Context(), sid, owner)
	h.writeView(w, r, view, err)
}

// Close handles DELETE /api/v1/sessions/{sid}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	if err := h.service.Close(sid, owner); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateQuery handles PUT /api/v1/sessions/{sid}/query
func (h *SessionHandler) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	var req UpdateQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sid, owner := sessionScope(r)
	view, err := h.service.UpdateQuery(r.Context(), sid, owner, req.Query)
	h.writeView(w, r, view, err)
}

// UpdateFilters handles PUT /api/v1/sessions/{sid}/filters
func (h *SessionHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var f domain.SearchFilters
	if !decodeBody(w, r, &f) {
		return
	}
	sid, owner := sessionScope(r)
	view, err := h.service.UpdateFilters(r.Context(), sid, owner, f)
	h.writeView(w, r, view, err)
}

// ClearFilters handles DELETE /api/v1/sessions/{sid}/filters
func (h *SessionHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	view, err := h.service.ClearFilters(r.Context(), sid, owner)
	h.writeView(w, r, view, err)
}

// SetPage handles PUT /api/v1/sessions/{sid}/page
func (h *SessionHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req SetPageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sid, owner := sessionScope(r)
	view, err := h.service.SetPage(r.Context(), sid, owner, req.Page)
	h.writeView(w, r, view, err)
}

// SetSort handles PUT /api/v1/sessions/{sid}/sort
func (h *SessionHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SetSortRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sid, owner := sessionScope(r)
	view, err := h.service.SetSort(r.Context(), sid, owner, req.Sort)
	h.writeView(w, r, view, err)
}

// Suggestions handles GET /api/v1/sessions/{sid}/suggestions
func (h *SessionHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	suggestions, err := h.service.Suggestions(r.Context(), sid, owner, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// History handles GET /api/v1/sessions/{sid}/history
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	history, err := h.service.History(sid, owner)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"history": history})
}

// ClearHistory handles DELETE /api/v1/sessions/{sid}/history
func (h *SessionHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	if err := h.service.ClearHistory(r.Context(), sid, owner); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SavedSearches handles GET /api/v1/sessions/{sid}/saved
func (h *SessionHandler) SavedSearches(w http.ResponseWriter, r *http.Request) {
	sid, owner := sessionScope(r)
	saved, err := h.service.SavedSearches(sid, owner)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"saved_searches": saved})
}

// SaveSearch handles POST /api/v1/sessions/{sid}/saved
func (h *SessionHandler) SaveSearch(w http.ResponseWriter, r *http.Request) {
	var req SaveSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sid, owner := sessionScope(r)
	saved, err := h.service.SaveSearch(r.Context(), sid, owner, req.Name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, saved)
}

// LoadSavedSearch handles POST /api/v1/sessions/{sid}/saved/{searchID}/load
func (h *SessionHandler) LoadSavedSearch(w http.ResponseWriter, r *http.Request) {
	searchID, ok := httputil.ParseUUID(w, chi.URLParam(r, "searchID"))
	if !ok {
		return
	}
	sid, owner := sessionScope(r)
	view, err := h.service.LoadSavedSearch(r.Context(), sid, owner, searchID.String())
	h.writeView(w, r, view, err)
}

// DeleteSavedSearch handles DELETE /api/v1/sessions/{sid}/saved/{searchID}
func (h *SessionHandler) DeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	searchID, ok := httputil.ParseUUID(w, chi.URLParam(r, "searchID"))
	if !ok {
		return
	}
	sid, owner := sessionScope(r)
	if err := h.service.DeleteSavedSearch(r.Context(), sid, owner, searchID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionLogger tags the request-scoped logger with the session id from the
// route.
func sessionLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithSessionID(r.Context(), chi.URLParam(r, "sid"))
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionScope(r *http.Request) (sid, owner string) {
	return chi.URLParam(r, "sid"), middleware.UserIDFromContext(r.Context())
}

func (h *SessionHandler) writeView(w http.ResponseWriter, r *http.Request, view *service.SessionView, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}
