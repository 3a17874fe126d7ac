package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/foodiebot/orderchat/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventPayload(t *testing.T, orderID string) []byte {
	t.Helper()
	data, err := json.Marshal(domain.OrderPlacedEvent{
		OrderID:     orderID,
		OrderType:   domain.OrderTypeChatbot,
		TotalAmount: 347,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return data
}

func TestFulfillmentHandler_Handle(t *testing.T) {
	t.Run("walks the order through every status", func(t *testing.T) {
		var mu sync.Mutex
		var requests []string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("expected PATCH, got %s", r.Method)
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			mu.Lock()
			requests = append(requests, r.URL.Path+" "+body["status"])
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		handler := NewFulfillmentHandler(server.URL, server.Client(), testLogger(), 0)

		if err := handler.Handle(context.Background(), eventPayload(t, "ord-1")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"/orders/ord-1/status preparing",
			"/orders/ord-1/status out_for_delivery",
			"/orders/ord-1/status delivered",
		}
		mu.Lock()
		defer mu.Unlock()
		if len(requests) != len(want) {
			t.Fatalf("expected %d status updates, got %d: %v", len(want), len(requests), requests)
		}
		for i, w := range want {
			if requests[i] != w {
				t.Errorf("step %d: expected %q, got %q", i, w, requests[i])
			}
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		var mu sync.Mutex
		var count int

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			count++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		handler := NewFulfillmentHandler(server.URL, server.Client(), testLogger(), time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := handler.Handle(ctx, eventPayload(t, "ord-1")); err == nil {
			t.Error("expected context error")
		}
		mu.Lock()
		defer mu.Unlock()
		if count != 0 {
			t.Errorf("cancelled handler must not update statuses, got %d", count)
		}
	})

	t.Run("fails on an orders service error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		handler := NewFulfillmentHandler(server.URL, server.Client(), testLogger(), 0)

		if err := handler.Handle(context.Background(), eventPayload(t, "ord-1")); err == nil {
			t.Error("expected error when the orders service fails")
		}
	})

	t.Run("fails on malformed payload", func(t *testing.T) {
		handler := NewFulfillmentHandler("http://unused", http.DefaultClient, testLogger(), 0)

		if err := handler.Handle(context.Background(), []byte("{")); err == nil {
			t.Error("expected error for malformed payload")
		}
	})
}
