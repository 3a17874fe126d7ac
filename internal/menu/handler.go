package menu

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/foodiebot/orderchat/internal/domain"
)

type menuLister interface {
	ListAvailable(ctx context.Context, category string) ([]domain.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
}

type Handler struct {
	repo   menuLister
	logger *slog.Logger
}

func NewHandler(repo menuLister, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	items, err := h.repo.ListAvailable(r.Context(), category)
	if err != nil {
		h.logger.Error("failed to list menu", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if items == nil {
		items = []domain.MenuItem{}
	}

	h.logger.Info("menu listed", "count", len(items), "category", category)
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.Categories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
