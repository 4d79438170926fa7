package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlantislabs/atlantis/internal/api/handlers"
	"github.com/atlantislabs/atlantis/internal/config"
	"github.com/atlantislabs/atlantis/internal/database"
	"github.com/atlantislabs/atlantis/internal/jobs"
	"github.com/atlantislabs/atlantis/internal/provider"
	"github.com/atlantislabs/atlantis/internal/repository"
	"github.com/atlantislabs/atlantis/internal/server"
	"github.com/atlantislabs/atlantis/internal/service"
	"github.com/atlantislabs/atlantis/internal/storage"
	"github.com/atlantislabs/atlantis/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the atlantis API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	embedder, err := provider.NewEmbeddingProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	completer, err := provider.NewCompletionProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create completion provider: %w", err)
	}

	sessionRepo := repository.NewSessionRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var archive service.DocumentArchive
	if cfg.HasS3() {
		s3Archive, err := storage.NewArchive(ctx, storage.ArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create document archive: %w", err)
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("document archive bucket '%s' ready", cfg.S3Bucket)
		archive = s3Archive
	}

	sessionSvc := service.NewSessionService(sessionRepo, messageRepo)
	ragSvc := service.NewRAGService(chunkRepo, messageRepo, embedder, completer, service.RAGConfig{
		ContextLimit: cfg.ContextLimit,
		HistoryLimit: cfg.HistoryLimit,
	})
	chatSvc := service.NewChatService(sessionSvc, messageRepo, ragSvc, txRunner, cfg.HistoryLimit)
	ingestionSvc := service.NewIngestionService(sessionRepo, chunkRepo, embedder, archive, service.ChunkConfig{
		Size:    cfg.ChunkSize,
		Overlap: cfg.ChunkOverlap,
	}, cfg.EmbeddingDimensions)

	var backfillWorker *jobs.Worker
	if cfg.BackfillInterval > 0 {
		backfill := jobs.NewBackfillWorker(chunkRepo, embedder, jobs.DefaultBatchSize)
		backfillWorker = jobs.NewWorker("embedding-backfill", backfill, cfg.BackfillInterval)
		go backfillWorker.Start(ctx)
		log.Println("embedding backfill worker started")
	}

	routerCfg := server.RouterConfig{
		ChatHandler:     handlers.NewChatHandler(chatSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestionSvc),
		SessionHandler:  handlers.NewSessionHandler(sessionSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
