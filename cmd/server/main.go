// WhatsApp customer intake service
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/intakelabs/waintake/internal/api"
	"github.com/intakelabs/waintake/internal/config"
	"github.com/intakelabs/waintake/internal/flow"
	"github.com/intakelabs/waintake/internal/lifecycle"
	"github.com/intakelabs/waintake/internal/middleware"
	"github.com/intakelabs/waintake/internal/msglog"
	"github.com/intakelabs/waintake/internal/registry"
	"github.com/intakelabs/waintake/internal/routing"
	"github.com/intakelabs/waintake/internal/store"
	"github.com/intakelabs/waintake/internal/transport"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	wa, err := transport.NewWhatsmeow(context.Background(), cfg.WASessionPath)
	if err != nil {
		slog.Error("Failed to initialize messaging transport", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := wa.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()
	slog.Info("Messaging transport initialized", "session_path", cfg.WASessionPath)

	// Initialize services.
	engine := flow.NewEngine(flow.EngineConfig{
		Resolver:    routing.NewResolver(repo, wa.SelfPhone),
		Contacts:    registry.NewRegistry(repo),
		Log:         msglog.NewLogger(repo),
		Sessions:    flow.NewSessionStore(),
		Sender:      wa,
		CompanyName: cfg.CompanyName,
		ReplyDelay:  cfg.ReplyDelay,
	})
	mgr := lifecycle.NewManager(wa, engine)

	// Initialize handlers.
	handler := api.NewHandler(repo, mgr, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r)

	// Create server.
	// Note: the event-stream websocket requires long-lived connections,
	// so no write timeout is set.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bring the messaging session up at boot. Failures are not fatal: an
	// operator can retry via the start endpoint.
	if _, err := mgr.Start(ctx); err != nil {
		slog.Warn("Messaging session did not start, use the start endpoint to retry", "error", err)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	mgr.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
