package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/optimistic"
	"github.com/utafrali/PaintCatalog/internal/service"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
	"github.com/utafrali/PaintCatalog/pkg/httputil"
	"github.com/utafrali/PaintCatalog/pkg/middleware"
)

// CatalogHandler handles HTTP requests for the stateless catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// BulkUpsertRequest is the JSON request body for importing many products.
// Products are validated one by one so a bad entry does not reject the batch.
type BulkUpsertRequest struct {
	Products []domain.Product `json:"products" validate:"required,min=1,max=500"`
}

// BulkUpsertResponse reports how a bulk import went.
type BulkUpsertResponse struct {
	Indexed  int               `json:"indexed"`
	Rejected map[string]string `json:"rejected,omitempty"`
}

// --- Handlers ---

// Search handles GET /api/v1/catalog/products
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// Facets handles GET /api/v1/catalog/facets
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	idx, err := h.service.Facets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, idx)
}

// Suggest handles GET /api/v1/catalog/suggest. The caller has no session, so
// no recent searches are offered.
func (h *CatalogHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	partial := strings.TrimSpace(r.URL.Query().Get("q"))
	suggestions := h.service.Suggest(r.Context(), partial, nil)
	httputil.WriteData(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// UpsertProduct handles POST /api/v1/catalog/products
func (h *CatalogHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if !decodeBody(w, r, &p) {
		return
	}

	created, err := h.service.Upsert(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteData(w, status, map[string]string{"id": p.ID, "status": "indexed"})
}

// BulkUpsert handles POST /api/v1/catalog/products/bulk
func (h *CatalogHandler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	var req BulkUpsertRequest
	if !decodeBody(w, r, &req) {
		return
	}

	indexed, rejected, err := h.service.BulkUpsert(r.Context(), req.Products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, BulkUpsertResponse{Indexed: indexed, Rejected: rejected})
}

// DeleteProduct handles DELETE /api/v1/catalog/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Refresh handles POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Refresh(r.Context())
	if errors.Is(err, optimistic.ErrSuperseded) {
		httputil.WriteError(w, r, apperrors.Conflict("refresh superseded by a newer refresh"), h.logger)
		return
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "catalog refresh requested",
		slog.String("user_id", middleware.UserIDFromContext(r.Context())),
		slog.Int("products", n),
	)
	httputil.WriteData(w, http.StatusOK, map[string]int{"products": n})
}
