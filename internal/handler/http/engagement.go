package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/PaintCatalog/internal/service"
	"github.com/utafrali/PaintCatalog/pkg/httputil"
	"github.com/utafrali/PaintCatalog/pkg/middleware"
)

// EngagementHandler handles likes and votes.
type EngagementHandler struct {
	service *service.EngagementService
	logger  *slog.Logger
}

// NewEngagementHandler creates a new engagement HTTP handler.
func NewEngagementHandler(svc *service.EngagementService, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{
		service: svc,
		logger:  logger,
	}
}

// LikeProduct handles POST /api/v1/engagement/products/{id}/like
func (h *EngagementHandler) LikeProduct(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.LikeProduct(r.Context(), chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Vote handles POST /api/v1/engagement/votes/{entityID}
func (h *EngagementHandler) Vote(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Vote(r.Context(), chi.URLParam(r, "entityID"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// Votes handles GET /api/v1/engagement/votes/{entityID}
func (h *EngagementHandler) Votes(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	httputil.WriteData(w, http.StatusOK, service.EngagementResult{EntityID: entityID, Count: h.service.Votes(entityID)})
}
