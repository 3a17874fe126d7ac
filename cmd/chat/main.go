package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/foodiebot/orderchat/internal/cart"
	"github.com/foodiebot/orderchat/internal/chat"
	"github.com/foodiebot/orderchat/internal/orders"
	"github.com/foodiebot/orderchat/internal/resolver"
	"github.com/foodiebot/orderchat/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "chat", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("chat", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	resolverServiceURL := os.Getenv("RESOLVER_SERVICE_URL")
	if resolverServiceURL == "" {
		logger.Error("RESOLVER_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	resolverClient := resolver.NewClient(resolverServiceURL, httpClient)
	ordersClient := orders.NewClient(ordersServiceURL, httpClient)

	var engineOpts []chat.Option
	if raw := os.Getenv("NAVIGATE_DELAY"); raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil {
			logger.Error("invalid NAVIGATE_DELAY", "error", err, "value", raw)
			os.Exit(1)
		}
		engineOpts = append(engineOpts, chat.WithNavigateDelay(delay))
	}

	registry := chat.NewRegistry(func() *chat.Engine {
		return chat.NewEngine(cart.New(), resolverClient, ordersClient, logger, engineOpts...)
	})
	defer registry.Stop()

	var turns chat.TurnLogger
	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Warn("POSTGRES_URL not set, conversation logging disabled")
	} else {
		db, err := telemetry.OpenDB("postgres", postgresURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		if err := db.Ping(); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}

		if _, err := db.Exec("SET search_path TO chat"); err != nil {
			logger.Error("failed to set search_path", "error", err)
			os.Exit(1)
		}

		turns = chat.NewLogRepository(db)
	}

	handler, err := chat.NewHandler(registry, turns, logger)
	if err != nil {
		logger.Error("failed to build chat handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/sessions/{sessionId}/messages", telemetry.WithHTTPRoute(handler.HandleMessage))
	mux.HandleFunc("GET /chat/sessions/{sessionId}/log", telemetry.WithHTTPRoute(handler.HandleLog))
	mux.HandleFunc("POST /chat/sessions/{sessionId}/open", telemetry.WithHTTPRoute(handler.HandleOpen))
	mux.HandleFunc("POST /chat/sessions/{sessionId}/close", telemetry.WithHTTPRoute(handler.HandleClose))
	mux.HandleFunc("GET /chat/sessions/{sessionId}/order", telemetry.WithHTTPRoute(handler.HandleLastOrder))
	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "chat",
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
		logger.Info("starting chat service", "port", port)
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
