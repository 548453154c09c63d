package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fivvy/server-go/internal/config"
	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/handler"
	"github.com/fivvy/server-go/internal/jobs"
	"github.com/fivvy/server-go/internal/middleware"
	"github.com/fivvy/server-go/internal/redis"
	"github.com/fivvy/server-go/internal/repository"
	"github.com/fivvy/server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("ENVIRONMENT") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.DB)
	clientRepo := repository.NewClientRepository(db.DB)
	projectRepo := repository.NewProjectRepository(db.DB)
	invoiceRepo := repository.NewInvoiceRepository(db.DB)
	portalTokenRepo := repository.NewPortalTokenRepository(db.DB)
	dashboardRepo := repository.NewDashboardRepository(db.DB)
	adminRepo := repository.NewAdminRepository(db.DB)

	authService := service.NewAuthService(
		userRepo, refreshTokenRepo,
		cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry(), cfg.RefreshTokenTTL(),
	)
	clientService := service.NewClientService(clientRepo)
	projectService := service.NewProjectService(projectRepo, clientRepo)
	invoiceService := service.NewInvoiceService(db, invoiceRepo, clientRepo, projectRepo)
	portalService := service.NewPortalService(
		db, portalTokenRepo, clientRepo, projectRepo, invoiceRepo,
		cfg.PortalTokenTTL(), cfg.FrontendBaseURL,
	)
	dashboardService := service.NewDashboardService(dashboardRepo)
	adminService := service.NewAdminService(adminRepo)

	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)
	portalRateLimit := middleware.NewPortalRateLimitMiddleware(redisClient.Client, config.PortalRateLimit)
	loginLimiter := middleware.NewLoginRateLimiter()
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, loginLimiter)
	clientHandler := handler.NewClientHandler(clientService)
	projectHandler := handler.NewProjectHandler(projectService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	portalHandler := handler.NewPortalHandler(portalService, clientRepo)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	adminHandler := handler.NewAdminHandler(adminService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())

		// Token-gated client portal, no account required.
		r.Route("/clients/{clientID}/portal", func(r chi.Router) {
			r.Use(portalRateLimit.Handler)
			r.Mount("/", portalHandler.PortalRoutes())
		})

		// Staff endpoints.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)

			r.Mount("/profile", authHandler.ProfileRoutes())
			r.Mount("/clients", clientHandler.Routes())
			r.Post("/clients/{clientID}/portal-tokens", portalHandler.IssueToken)
			r.Mount("/projects", projectHandler.Routes())
			r.Mount("/invoices", invoiceHandler.Routes())
			r.Mount("/dashboard", dashboardHandler.Routes())

			r.Route("/admin", func(r chi.Router) {
				r.Use(authMiddleware.RequireAdmin)
				r.Mount("/", adminHandler.Routes())
			})
		})
	})

	cleanupJob := jobs.NewCleanupJob(refreshTokenRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
