// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-community/internal/cache"
	"github.com/olegiv/ocms-community/internal/config"
	"github.com/olegiv/ocms-community/internal/handler"
	"github.com/olegiv/ocms-community/internal/i18n"
	"github.com/olegiv/ocms-community/internal/logging"
	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/scheduler"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/session"
	"github.com/olegiv/ocms-community/internal/storage"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/version"
	"github.com/olegiv/ocms-community/web"
)

// Build information, set via ldflags.
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Community site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH           SQLite database path (default: ./data/site.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DO_SEED           Create the page tree and admin account on start\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_S3_BUCKET         Store uploaded images in S3 instead of OCMS_UPLOADS_DIR\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL         Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.New(appVersion, appGitCommit, appBuildTime)
	if *showVersion {
		_, _ = fmt.Printf("site %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(textHandler))

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Warnings and errors are mirrored into the event log from here on.
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		var admin *store.SeedAdmin
		if cfg.SeedAdmin() {
			admin = &store.SeedAdmin{
				Email:    cfg.AdminEmail,
				Password: cfg.AdminPassword,
				Phone:    cfg.AdminPhone,
				Iin:      cfg.AdminIIN,
			}
		}
		if err := store.Seed(ctx, db, admin); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		slog.Info("database seeded", "admin", admin != nil)
	}

	if err := i18n.Init(logger, cfg.DefaultLang); err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}

	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	cacheConfig := cache.Config{
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cacheTTL,
		MaxSize:    cfg.CacheMaxSize,
	}
	if cfg.UseRedisCache() {
		cacheConfig.RedisURL = cfg.RedisURL
	}
	cacher := cache.New(cacheConfig)
	defer func() { _ = cacher.Close() }()

	backend, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("media storage ready", "backend", backend.Name())

	body := service.NewBodyRenderer()
	links := service.NewMediaLinker(cfg.MediaURL)
	builder := service.NewContextBuilder(db, body, links, cacher, cacheTTL)
	pages := service.NewPageService(db, body, builder)
	images := service.NewImageService(db, backend, links, builder)
	accounts := service.NewAccountService(db)
	events := service.NewEventService(db)

	sched := scheduler.New(logger)
	retention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
	if err := sched.RegisterDefaults(pages, events, retention); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	sessionManager := session.New(db, cfg.IsDevelopment())

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		SiteName:       cfg.SiteName,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	limiter := middleware.NewIPRateLimiter(cfg.RegisterRatePerMinute)
	defer limiter.Close()

	r := handler.NewRouter(handler.Deps{
		DB:             db,
		SessionManager: sessionManager,
		Renderer:       renderer,
		Accounts:       accounts,
		Pages:          pages,
		Images:         images,
		Events:         events,
		Builder:        builder,
		Jobs:           sched,
		Static:         staticFS,
		RateLimiter:    limiter,
		CSRFKey:        []byte(cfg.SessionSecret)[:32],
		IsDev:          cfg.IsDevelopment(),
		Addr:           cfg.ServerAddr(),
		MediaOrigin:    mediaOrigin(cfg),
		SiteURL:        cfg.SiteURL,
		Version:        info,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // image uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newStorage picks the media backend: S3 when a bucket is configured,
// the uploads directory otherwise.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	if cfg.UseS3() {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to s3: %w", err)
		}
		return s3, nil
	}
	local, err := storage.NewLocal(cfg.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("opening uploads dir: %w", err)
	}
	return local, nil
}

// mediaOrigin returns the origin images are loaded from when it differs
// from the site itself, for the CSP img-src list.
func mediaOrigin(cfg *config.Config) string {
	u, err := url.Parse(cfg.MediaURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
