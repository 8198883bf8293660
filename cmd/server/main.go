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
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"scamdash/internal/config"
	"scamdash/internal/handlers/dashboard"
	apphttp "scamdash/internal/http"
	"scamdash/internal/services/aggregate"
	"scamdash/internal/services/dataloader"
	"scamdash/internal/services/metrics"
	"scamdash/internal/services/session"
	"scamdash/internal/services/storage"
	"scamdash/internal/templates"
	"scamdash/internal/version"
)

var (
	cfg       *config.Config
	store     *storage.Storage
	service   *aggregate.Service
	sessions  *session.Store
	renderer  *templates.Renderer
	loadStats dataloader.LoadStats
)

const (
	sessionSweepInterval = 10 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cfg = config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	info := version.Get()
	logger.Info("Starting scam dashboard", "addr", cfg.ListenAddr, "version", info.String())
	if warning := info.Check(); warning != "" {
		logger.Warn(warning)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store = storage.New()
	if err := unlockDataset(cfg, store); err != nil {
		logger.Error("Cannot unlock dataset", "dataset", cfg.DatasetFile, "error", err)
		os.Exit(1)
	}

	if err := SetupDependencies(cfg); err != nil {
		var pe *dataloader.ParseError
		var se *dataloader.SchemaError
		switch {
		case errors.As(err, &pe):
			logger.Error("Dataset contains an unparseable value", "line", pe.Row, "column", pe.Column, "value", pe.Value)
		case errors.As(err, &se):
			logger.Error("Dataset is missing required columns", "missing", se.Missing, "found", se.Found)
		}
		logger.Error("Failed to load dataset", "dataset", cfg.DatasetFile, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sessions.StartCleanup(ctx, sessionSweepInterval)

	srv := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        SetupRouter(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", "addr", cfg.ListenAddr, "records", loadStats.Rows)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		defer sessions.Stop()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// unlockDataset supplies the dataset passphrase from config or, when the
// dataset is encrypted and stdin is a terminal, from an interactive prompt
func unlockDataset(cfg *config.Config, s *storage.Storage) error {
	if cfg.DatasetPassword != "" {
		return s.Unlock(cfg.DatasetPassword)
	}

	encrypted, err := s.IsEncrypted(cfg.DatasetFile)
	if err != nil || !encrypted {
		// a missing file is reported by the loader with more context
		return nil
	}

	password, err := storage.PromptPassword("Dataset passphrase: ")
	if err != nil {
		return err
	}
	return s.Unlock(password)
}

// SetupDependencies loads the dataset and wires every service and handler
func SetupDependencies(c *config.Config) error {
	cfg = c
	if store == nil {
		store = storage.New()
	}

	loader := dataloader.New(cfg.DatasetFile, store, cfg.AmountPolicy)
	records, stats, err := loader.Load()
	if err != nil {
		return err
	}
	loadStats = stats
	metrics.SetLoadStats(stats.Rows, stats.Skipped)

	service = aggregate.New(records, aggregate.OptionsFromConfig(cfg))
	sessions = session.NewStore(cfg.SessionTTL, session.DefaultMaxSessions)

	renderer, err = templates.New(cfg.TemplatesDirectory, cfg.Debug)
	if err != nil {
		slog.Warn("Could not load templates", "dir", cfg.TemplatesDirectory, "error", err)
		renderer = nil
	}

	dashboard.Initialize(service, sessions, renderer)
	return nil
}

// SetupRouter builds the HTTP router
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware)

	fileServer := http.FileServer(http.Dir(cfg.StaticDirectory))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
	})

	dashboard.RegisterRoutes(r)

	r.Get("/api/health", handleHealth)
	r.Handle("/metrics", metrics.Handler())

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apphttp.JSONResponse(w, map[string]interface{}{
		"status":  "ok",
		"records": service.Records().Len(),
		"skipped": loadStats.Skipped,
		"source":  loadStats.Source,
		"version": version.Get().Version,
	}, http.StatusOK)
}
