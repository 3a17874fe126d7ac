package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/foodiebot/orderchat/internal/domain"
)

const recentOrdersLimit = 3

type orderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Recent(ctx context.Context, limit int) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type menuGetter interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	store    orderStore
	menu     menuGetter
	producer eventPublisher
	logger   *slog.Logger
}

// NewHandler wires the orders HTTP surface. producer may be nil when no
// broker is configured.
func NewHandler(store orderStore, menu menuGetter, producer eventPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		menu:     menu,
		producer: producer,
		logger:   logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = domain.OrderTypeManual
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ID)
	}

	menuItems, err := h.menu.GetByIDs(r.Context(), ids)
	if err != nil {
		h.logger.Error("failed to load menu items", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Prices come from the menu, never from the request. Unknown items
	// are skipped rather than rejected.
	var total float64
	var items []domain.OrderItem
	for _, reqItem := range req.Items {
		menuItem, ok := menuItems[reqItem.ID]
		if !ok {
			continue
		}
		total += menuItem.Price * float64(reqItem.Quantity)
		items = append(items, domain.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   reqItem.Quantity,
			ItemPrice:  menuItem.Price,
		})
	}

	if len(items) == 0 {
		h.writeError(w, http.StatusBadRequest, "no valid menu items in order")
		return
	}

	order := &domain.Order{
		TotalAmount:     total,
		Status:          domain.OrderStatusConfirmed,
		OrderType:       orderType,
		DeliveryAddress: req.DeliveryAddress,
		Items:           items,
		CreatedAt:       time.Now().UTC(),
	}

	if err := h.store.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:     order.ID,
			OrderType:   order.OrderType,
			Items:       order.Items,
			TotalAmount: order.TotalAmount,
			Timestamp:   order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "order_type", order.OrderType, "total", order.TotalAmount)
	h.writeJSON(w, http.StatusCreated, domain.SubmissionResult{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
		Status:      order.Status,
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.Recent(r.Context(), recentOrdersLimit)
	if err != nil {
		h.logger.Error("failed to list recent orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.store.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
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
