// Package worker simulates the kitchen side of the system: it walks
// every placed order through the fulfillment statuses so the order
// history page has something realistic to show.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/foodiebot/orderchat/internal/domain"
)

var fulfillmentSteps = []domain.OrderStatus{
	domain.OrderStatusPreparing,
	domain.OrderStatusOutForDelivery,
	domain.OrderStatusDelivered,
}

type FulfillmentHandler struct {
	ordersServiceURL string
	httpClient       *http.Client
	logger           *slog.Logger
	stepDelay        time.Duration
}

func NewFulfillmentHandler(ordersServiceURL string, client *http.Client, logger *slog.Logger, stepDelay time.Duration) *FulfillmentHandler {
	return &FulfillmentHandler{
		ordersServiceURL: ordersServiceURL,
		httpClient:       client,
		logger:           logger,
		stepDelay:        stepDelay,
	}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "order_type", event.OrderType)

	for _, status := range fulfillmentSteps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.stepDelay):
		}

		if err := h.updateOrderStatus(ctx, event.OrderID, status); err != nil {
			h.logger.Error("failed to advance order status", "error", err, "order_id", event.OrderID, "status", status)
			return fmt.Errorf("advance order %s to %s: %w", event.OrderID, status, err)
		}

		h.logger.Info("order status advanced", "order_id", event.OrderID, "status", status)
	}

	h.logger.Info("order fulfilled", "order_id", event.OrderID)
	return nil
}

func (h *FulfillmentHandler) updateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	body := map[string]string{
		"status": string(status),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/orders/%s/status", h.ordersServiceURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	return nil
}
