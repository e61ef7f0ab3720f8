package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"celltracker/internal/adapters/assets"
	web "celltracker/internal/adapters/http"
	"celltracker/internal/adapters/storage"
	backupStore "celltracker/internal/adapters/storage/backup"
	leaderStore "celltracker/internal/adapters/storage/leader"
	recordStore "celltracker/internal/adapters/storage/servicerecord"
	"celltracker/internal/config"
	"celltracker/internal/domain/leader"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	log.Println("Database initialized successfully!")

	timedDB := storage.NewTimedDB(db, cfg.Database.SlowQuery)
	stores := &web.Stores{
		LeaderStore: leaderStore.NewSQLiteStore(timedDB),
		RecordStore: recordStore.NewSQLiteStore(timedDB),
		BackupStore: backupStore.NewSQLiteStore(timedDB),
	}

	pictures, err := newAssetStore(ctx, cfg.Uploads)
	if err != nil {
		log.Fatalf("failed to configure uploads: %v", err)
	}
	log.Printf("Profile pictures stored with the %s backend", pictures.Backend())

	handler := web.NewRouter(stores, web.Options{
		StaticDir:         cfg.Server.StaticDir,
		Assets:            pictures,
		Directory:         leader.NewDirectory(cfg.Church.Zones, cfg.Church.CellDays),
		AdminPassword:     cfg.Auth.AdminPassword,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		CSRFKey:           cfg.CSRFKey(),
		TrustedOrigins:    cfg.Server.TrustedOrigins,
		SecureCookies:     cfg.Server.SecureCookies,
		SessionTTL:        cfg.Auth.SessionTTL,
		RateLimit:         cfg.Server.RateLimit,
		SlowRequest:       cfg.Server.SlowRequest,
		MaxUploadBytes:    cfg.Uploads.MaxBytes,
		AllowSeed:         !cfg.IsProduction(),
		MetricsEnabled:    cfg.Metrics.Enabled,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Cell tracker %s starting on %s (env=%s)", version, cfg.Server.Addr, cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown_started", "timeout", cfg.Server.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err.Error())
		}
	}
}

// newAssetStore selects the profile picture backend.
func newAssetStore(ctx context.Context, cfg config.UploadsConfig) (assets.Store, error) {
	if cfg.Backend == "s3" {
		return assets.NewS3Store(ctx, assets.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			Prefix:       cfg.S3.Prefix,
			PublicURL:    cfg.S3.PublicURL,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	}
	return assets.NewLocalStore(cfg.Dir, cfg.URLPrefix)
}
