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
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"metacat/internal/api"
	"metacat/internal/config"
	internaldb "metacat/internal/db"
	"metacat/internal/db/repository"
	"metacat/internal/middleware"
	"metacat/internal/service/catalog"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present); real env vars take precedence.
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// writeDB: single-connection pool for serialized writes (WAL + txlock=immediate).
	// readDB:  multi-connection pool for concurrent reads.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, cfg.ReadPoolSize)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck

	logger.Info("running catalog migrations", "path", cfg.MetaDBPath)
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	// The lineage service's cycle check must observe every committed edge, so
	// all repositories share the serialized write pool. The read pool serves
	// the search path, which tolerates slightly stale rows.
	datasetRepo := repository.NewDatasetRepo(writeDB)
	lineageRepo := repository.NewLineageRepo(writeDB)
	searchDatasetRepo := repository.NewDatasetRepo(readDB)
	searchLineageRepo := repository.NewLineageRepo(readDB)

	registrySvc := catalog.NewRegistryService(datasetRepo, lineageRepo, logger.With("component", "registry"))
	lineageSvc := catalog.NewLineageService(datasetRepo, lineageRepo, logger.With("component", "lineage"))
	searchSvc := catalog.NewSearchService(searchDatasetRepo, searchLineageRepo, logger.With("component", "search"))

	handler := api.NewHandler(api.HandlerConfig{
		Registry:         registrySvc,
		Lineage:          lineageSvc,
		Search:           searchSvc,
		SearchMaxResults: cfg.SearchMaxResults,
		Logger:           logger.With("component", "api"),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("catalog listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
