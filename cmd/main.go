package main

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

	"github.com/Dosada05/league-system/config"
	"github.com/Dosada05/league-system/db"
	"github.com/Dosada05/league-system/esign"
	"github.com/Dosada05/league-system/handlers"
	"github.com/Dosada05/league-system/realtime"
	"github.com/Dosada05/league-system/repositories"
	api "github.com/Dosada05/league-system/routes"
	"github.com/Dosada05/league-system/services"
	"github.com/Dosada05/league-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const (
	staleSweepInterval       = 1 * time.Hour
	staleOfferMaxAge         = 7 * 24 * time.Hour
	unconfirmedAccountMaxAge = 30 * 24 * time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsURL); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	esignClient, err := esign.NewClient(esign.ClientConfig{
		BaseURL:    cfg.ESignBaseURL,
		APIKey:     cfg.ESignAPIKey,
		TemplateID: cfg.ESignTemplateID,
	})
	if err != nil {
		logger.Error("failed to initialize e-signature client", slog.Any("error", err))
		os.Exit(1)
	}

	hub := realtime.NewHub()
	go hub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	seasonRepo := repositories.NewPostgresSeasonRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	offerRepo := repositories.NewPostgresOfferRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)
	logger.Info("repositories initialized")

	emailService := services.NewEmailService(cfg)
	registrationService := services.NewRegistrationService(entryRepo, teamRepo)
	authService := services.NewAuthService(userRepo, logger)
	userService := services.NewUserService(txRunner, userRepo, teamRepo, entryRepo, offerRepo, registrationService, uploader, hub, logger)
	seasonService := services.NewSeasonService(seasonRepo, entryRepo, userRepo)
	teamService := services.NewTeamService(txRunner, teamRepo, seasonRepo, userRepo, entryRepo, offerRepo, registrationService, uploader, hub, logger)
	offerService := services.NewOfferService(txRunner, offerRepo, teamRepo, seasonRepo, userRepo, entryRepo, registrationService, uploader, hub, emailService, logger)
	billingService := services.NewBillingService(txRunner, userRepo, entryRepo, teamRepo, registrationService, esignClient, hub, logger)
	scheduleService := services.NewScheduleService(txRunner, gameRepo, teamRepo, seasonRepo, hub)
	dashboardService := services.NewDashboardService(userRepo, seasonRepo, teamRepo, gameRepo, offerRepo)
	logger.Info("services initialized")

	// Unanswered offers expire after a week; accounts that never confirm
	// their email are dropped after a month.
	go func() {
		ticker := time.NewTicker(staleSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			deleted, err := offerRepo.DeleteStale(context.Background(), staleOfferMaxAge)
			if err != nil {
				logger.Error("stale offer sweep failed", slog.Any("error", err))
			} else if deleted > 0 {
				logger.Info("stale offers removed", slog.Int64("count", deleted))
			}

			purged, err := userService.PurgeUnconfirmedAccounts(context.Background(), unconfirmedAccountMaxAge)
			if err != nil {
				logger.Error("unconfirmed account sweep failed", slog.Any("error", err))
			} else if purged > 0 {
				logger.Info("unconfirmed accounts removed", slog.Int64("count", purged))
			}
		}
	}()

	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, emailService, cfg.JWTSecretKey, logger),
		User:      handlers.NewUserHandler(userService, billingService),
		Team:      handlers.NewTeamHandler(teamService),
		Offer:     handlers.NewOfferHandler(offerService),
		Season:    handlers.NewSeasonHandler(seasonService, teamService),
		Game:      handlers.NewGameHandler(scheduleService),
		Webhook:   handlers.NewWebhookHandler(billingService, cfg.PaymentWebhookSecret, cfg.SignatureWebhookSecret, logger),
		WebSocket: handlers.NewWebSocketHandler(hub, logger),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, h, cfg.JWTSecretKey)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shut down gracefully")
	}
}
