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

	"github.com/BradenHooton/studyhub/internal/auth"
	"github.com/BradenHooton/studyhub/internal/config"
	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/handlers"
	middlewareCustom "github.com/BradenHooton/studyhub/internal/middleware"
	"github.com/BradenHooton/studyhub/internal/repositories"
	"github.com/BradenHooton/studyhub/internal/routes"
	"github.com/BradenHooton/studyhub/internal/services"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
	pkglogger "github.com/BradenHooton/studyhub/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := pkglogger.New(os.Stdout, os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// .env is only read by config.Load, so the level is applied again here
	logger = pkglogger.New(os.Stdout, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ipConfig, err := pkghttp.ParseIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Server.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, cfg.Database.DSN(), logger)
		cancel()
		if err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories outside a moderation transaction read from the pool
	accountRepo := repositories.NewAccountRepository(db.Pool)
	auditRepo := repositories.NewAuditLogRepository(db.Pool)
	store := repositories.NewPostgresModerationStore(db)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	var notifier services.AccountNotifier = services.NoopNotifier{}
	if cfg.Notify.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ses, err := services.NewSESNotifier(ctx, cfg.Notify.AWSRegion, cfg.Notify.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize SES notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = ses
	}

	auditService := services.NewAuditService(auditRepo, logger)
	moderationService := services.NewModerationService(store, auditService, logger, services.WithNotifier(notifier))
	accountService := services.NewAccountService(accountRepo, logger)
	adminService := services.NewAdminService(accountRepo, auditRepo, logger)
	loginGate := services.NewLoginGate(accountRepo)

	if cfg.Moderation.BootstrapAdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, _, err := accountService.EnsureBootstrapAdmin(ctx, cfg.Moderation.BootstrapAdminEmail, cfg.Moderation.BootstrapAdminName); err != nil {
			logger.Error("failed to ensure bootstrap admin", slog.Any("error", err))
		}
		cancel()
	}

	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router,
		routes.Handlers{
			Moderation: handlers.NewModerationHandler(moderationService),
			Accounts:   handlers.NewAccountHandler(accountService, loginGate),
			Audit:      handlers.NewAuditHandler(auditService),
			Dashboard:  handlers.NewAdminHandler(adminService),
		},
		routes.Guards{
			Tokens:    tokenManager,
			Gate:      loginGate,
			Accounts:  accountRepo,
			RateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Moderation.RequestsPerMinute},
		},
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
