package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/studyhub/internal/services"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
)

// AdminServiceInterface defines the dashboard service contract.
type AdminServiceInterface interface {
	GetOverview(ctx context.Context, limit int) (*services.ModerationOverview, error)
}

// AdminHandler handles admin dashboard HTTP requests.
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// GetOverview handles GET /admin/dashboard/overview
// Accepts optional query param ?limit=N (1–20, default 20) for the activity feed.
func (h *AdminHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if _, err := parseIntParam(l, &limit, 1, 20); err != nil {
			limit = 20
		}
	}

	overview, err := h.service.GetOverview(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve moderation overview")
		return
	}

	writeJSON(w, http.StatusOK, overview)
}
