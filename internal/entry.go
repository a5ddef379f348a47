// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/agora/internal/api"
	"github.com/starford/agora/internal/events"
	"github.com/starford/agora/internal/forum"
	"github.com/starford/agora/internal/mail"
	"github.com/starford/agora/internal/mcpserver"
	"github.com/starford/agora/internal/notify"
	"github.com/starford/agora/internal/ratelimit"
	"github.com/starford/agora/internal/sse"
	"github.com/starford/agora/internal/store"
)

const rateLimitCleanupInterval = 10 * time.Minute

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("mail_provider", cfg.Mail.Provider),
		slog.String("lock_policy", cfg.Notify.LockPolicy),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	bus := events.NewBus(logger)

	// Subscribers run in order: notification hooks, then live updates.
	hooks, err := newHooks(cfg, app.transport, db, logger)
	if err != nil {
		return err
	}
	bus.Subscribe(hooks.Handle)

	broker := sse.NewBroker(cfg.App.FeedThrottle)
	defer broker.Close()
	bus.Subscribe(broker.Handle)

	limiter := ratelimit.New(cfg.RateLimit.Limits())

	svc, err := newService(cfg, db, bus, limiter, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Evict idle rate limit buckets.
	g.Go(func() error {
		return limiter.Run(gCtx, rateLimitCleanupInterval)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so background loops stop with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the read-only MCP tools on stdio. Logs go to stderr so
// they do not corrupt the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svc, err := newService(cfg, db, nil, nil, logger)
	if err != nil {
		return err
	}
	return mcpserver.New(svc).ServeStdio()
}

func newService(cfg *Config, db *store.DB, bus forum.Publisher, limiter forum.RateLimiter, logger *slog.Logger) (*forum.Service, error) {
	policy, err := cfg.Forum.EmailPolicy()
	if err != nil {
		return nil, err
	}
	opts := []forum.Option{
		forum.WithEmailPolicy(policy),
		forum.WithPageSize(cfg.Forum.PageSize),
		forum.WithLogger(logger),
	}
	if limiter != nil {
		opts = append(opts, forum.WithRateLimiter(limiter))
	}
	return forum.NewService(db, bus, opts...), nil
}

func newHooks(cfg *Config, transport mail.Transport, db *store.DB, logger *slog.Logger) (*notify.Hooks, error) {
	if transport == nil {
		var err error
		if transport, err = newMailTransport(cfg.Mail, logger); err != nil {
			return nil, err
		}
	}
	policy, err := notify.ParseLockPolicy(cfg.Notify.LockPolicy)
	if err != nil {
		return nil, err
	}
	return notify.NewHooks(
		notify.NewResolver(db, logger),
		notify.NewDispatcher(transport, cfg.Mail.Dispatcher(), logger),
		policy,
		logger,
	), nil
}

func newMailTransport(cfg MailConfig, logger *slog.Logger) (mail.Transport, error) {
	switch cfg.Provider {
	case MailProviderLog, "":
		return mail.NewLogTransport(logger), nil
	case MailProviderSMTP:
		return mail.NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password), nil
	case MailProviderBrevo:
		return mail.NewBrevoTransport(cfg.Brevo.APIKey, logger), nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}

// newHTTPHandler mounts the API under /api next to the unauthenticated
// health and metrics endpoints.
func newHTTPHandler(cfg *Config, svc *forum.Service, broker *sse.Broker) http.Handler {
	routerCfg := api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		RateLimit:   cfg.RateLimit.HTTP.Requests,
		RateWindow:  cfg.RateLimit.HTTP.Window,
	}
	if broker != nil {
		routerCfg.SSE = broker
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/api", api.NewRouter(svc, routerCfg))
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
