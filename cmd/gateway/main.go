package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/foodiebot/orderchat/internal/gateway"
	"github.com/foodiebot/orderchat/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL is required")
		os.Exit(1)
	}

	chatServiceURL := os.Getenv("CHAT_SERVICE_URL")
	if chatServiceURL == "" {
		logger.Error("CHAT_SERVICE_URL is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	ordersProxy := gateway.NewServiceProxy(ordersServiceURL, httpClient)
	chatProxy := gateway.NewServiceProxy(chatServiceURL, httpClient)
	handler := gateway.NewHandler(ordersProxy, chatProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/menu", telemetry.WithHTTPRoute(handler.HandleMenu))
	mux.HandleFunc("GET /api/menu/categories", telemetry.WithHTTPRoute(handler.HandleMenu))
	mux.HandleFunc("POST /api/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/recent", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PATCH /api/orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("POST /api/chat/sessions/{sessionId}/messages", telemetry.WithHTTPRoute(handler.HandleChat))
	mux.HandleFunc("GET /api/chat/sessions/{sessionId}/log", telemetry.WithHTTPRoute(handler.HandleChat))
	mux.HandleFunc("POST /api/chat/sessions/{sessionId}/open", telemetry.WithHTTPRoute(handler.HandleChat))
	mux.HandleFunc("POST /api/chat/sessions/{sessionId}/close", telemetry.WithHTTPRoute(handler.HandleChat))
	mux.HandleFunc("GET /api/chat/sessions/{sessionId}/order", telemetry.WithHTTPRoute(handler.HandleChat))
	mux.HandleFunc("GET /api/health", telemetry.WithHTTPRoute(handler.HandleHealth))

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
