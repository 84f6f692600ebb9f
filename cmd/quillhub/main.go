package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	federationclient "github.com/quillhub/quillhub/internal/adapter/driven/federation"
	sqliteadapter "github.com/quillhub/quillhub/internal/adapter/driven/sqlite"
	httphandler "github.com/quillhub/quillhub/internal/adapter/driving/http"
	"github.com/quillhub/quillhub/internal/application"
	"github.com/quillhub/quillhub/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 0, "listen port, overriding QUILLHUB_LISTEN_ADDR")
	flag.Parse()

	// 1. Load configuration (fail fast on missing required env vars).
	// A .env file supplements but never overrides the real environment.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.OverridePort(*port)
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"service_tag", cfg.ServiceTag,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	userStore := sqliteadapter.NewUserRepo(db)
	publicationStore := sqliteadapter.NewPublicationRepo(db)
	reviewStore := sqliteadapter.NewReviewRepo(db)
	activityStore := sqliteadapter.NewActivityRepo(db)
	socialStore := sqliteadapter.NewSocialRepo(db)
	supergroupStore := sqliteadapter.NewSupergroupRepo(db)
	peerClient := federationclient.NewClient()

	// 6. Wire application services.
	logger := slog.Default()
	authSvc := application.NewAuthService(userStore, []byte(cfg.JWTSecret), logger)
	userSvc := application.NewUserService(userStore, logger)
	publicationSvc := application.NewPublicationService(publicationStore, logger)
	reviewSvc := application.NewReviewService(reviewStore, publicationStore, userStore, logger)
	socialSvc := application.NewSocialService(socialStore, userStore, publicationStore, logger)
	activitySvc := application.NewActivityService(activityStore, logger)
	supergroupSvc := application.NewSupergroupService(supergroupStore, logger)
	userImportSvc := application.NewUserImportService(userStore, supergroupStore, peerClient, logger)
	importSvc := application.NewImportService(reviewStore, publicationStore, userImportSvc, logger)
	federationSvc := application.NewFederationService(reviewStore, publicationStore, userStore, cfg.ServiceTag, logger)

	// 7. Create HTTP handler and register routes through the pipeline.
	apiHandler := httphandler.NewHandler(
		authSvc,
		userSvc,
		publicationSvc,
		reviewSvc,
		socialSvc,
		activitySvc,
		importSvc,
		federationSvc,
		supergroupSvc,
		logger,
	)
	handler := httphandler.NewServeMux(apiHandler, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 8. Log startup complete.
	slog.Info("quillhub started",
		"listen_addr", cfg.ListenAddr,
		"service_tag", cfg.ServiceTag,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
