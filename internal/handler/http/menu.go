package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zensushi/zen/internal/service"
	"github.com/zensushi/zen/pkg/httputil"
)

// MenuHandler serves the menu endpoints.
type MenuHandler struct {
	service *service.MenuService
	logger  *slog.Logger
}

// NewMenuHandler creates a new menu HTTP handler.
func NewMenuHandler(svc *service.MenuService, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{service: svc, logger: logger}
}

// ListMenu handles GET /cardapio. The body is the bare JSON array.
func (h *MenuHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMenu(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// GetItem handles GET /cardapio/{id}
func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseIntParam(w, "menu item id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}
