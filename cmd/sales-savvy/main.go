package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/sales-savvy/internal/api/handlers"
	"github.com/aaravmahajanofficial/sales-savvy/internal/api/middleware"
	"github.com/aaravmahajanofficial/sales-savvy/internal/cache"
	"github.com/aaravmahajanofficial/sales-savvy/internal/config"
	"github.com/aaravmahajanofficial/sales-savvy/internal/events"
	"github.com/aaravmahajanofficial/sales-savvy/internal/health"
	"github.com/aaravmahajanofficial/sales-savvy/internal/metrics"
	repository "github.com/aaravmahajanofficial/sales-savvy/internal/repositories"
	service "github.com/aaravmahajanofficial/sales-savvy/internal/services"
	"github.com/aaravmahajanofficial/sales-savvy/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type eventSink interface {
	service.EventPublisher
	Close() error
}

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := repository.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	productCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	rateLimiter := repository.NewRateLimitRepo(redisClient, &cfg.RateConfig)

	var publisher eventSink = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(&cfg.Kafka)
		slog.Info("Cart events enabled", slog.String("topic", cfg.Kafka.Topic))
	} else {
		slog.Warn("No kafka brokers configured, cart events are dropped")
	}

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	catalog := service.NewCatalogGateway(repos.Product, productCache, cfg.Cache.ProductTTL)
	users := service.NewUserDirectory(repos.User)
	cartService := service.NewCartService(repos.Cart, catalog, users, publisher)
	cartHandler := handlers.NewCartHandler(cartService, users)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	// mutating routes are throttled per user
	limited := func(next http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.Authenticate(middleware.RateLimit(rateLimiter, next))
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/cart/add", limited(cartHandler.AddToCart()))
	routerMux.HandleFunc("GET /api/cart/items", authMiddleware.Authenticate(cartHandler.GetCartItems()))
	routerMux.HandleFunc("PUT /api/cart/update", limited(cartHandler.UpdateCartItem()))
	routerMux.HandleFunc("DELETE /api/cart/delete", limited(cartHandler.DeleteCartItem()))
	routerMux.HandleFunc("GET /api/cart/items/count", authMiddleware.Authenticate(cartHandler.GetCartItemCount()))
	routerMux.HandleFunc("DELETE /api/cart", limited(cartHandler.ClearCart()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining, outermost last
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(routerMux, handler)
	handler = otelhttp.NewHandler(handler, cfg.Otel.ServiceName)

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := publisher.Close(); err != nil {
		slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
	}

	if err := productCache.Close(); err != nil {
		slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
	}

	if err := repos.Close(); err != nil {
		slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Database connection closed")
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}
