package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v9"

	"github.com/akovalev/qa-docgen/pkg/api/handler"
	"github.com/akovalev/qa-docgen/pkg/api/middleware"
	"github.com/akovalev/qa-docgen/pkg/auth"
	"github.com/akovalev/qa-docgen/pkg/database"
	"github.com/akovalev/qa-docgen/pkg/gemini"
	"github.com/akovalev/qa-docgen/pkg/logger"
	"github.com/akovalev/qa-docgen/pkg/repository"
	"github.com/akovalev/qa-docgen/pkg/services"
	"github.com/akovalev/qa-docgen/pkg/workers"
)

type Config struct {
	GeminiAPIKey string   `env:"GEMINI_API_KEY,required"`
	ServerAddr   string   `env:"SERVER_ADDR" envDefault:":8080"`
	APITokens    []string `env:"API_TOKENS" envSeparator:" "`
	PgURL        string   `env:"DATABASE_URL"`
	PgHost       string   `env:"DB_HOST"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	workerGroup, err := setupWorkers()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers() (workers.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	var worker workers.Worker
	var workerGroup workers.Group

	kv, err := setupKeyValueStore(cfg)
	if err != nil {
		return nil, err
	}

	geminiClient, err := gemini.NewClient(cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	runRepository := repository.NewRunRepository()
	historyRepository := repository.NewHistoryRepository(kv)

	generationService := services.NewGenerationService(geminiClient, runRepository, historyRepository)

	generationsHandler := handler.NewGenerations(generationService, runRepository)
	historyHandler := handler.NewHistory(historyRepository)
	exportsHandler := handler.NewExports(historyRepository)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/generations", generationsHandler.Create)
	mux.HandleFunc("/api/v1/generations/", generationsHandler.Resource)
	mux.HandleFunc("/api/v1/history", historyHandler.Collection)
	mux.HandleFunc("/api/v1/history/", exportsHandler.Download)

	authenticator := auth.NewAuthenticator(cfg.APITokens)

	if worker, err = workers.NewHTTPServer(cfg.ServerAddr, middleware.RequestID(authenticator.Middleware(mux))); err == nil {
		workerGroup = append(workerGroup, worker)
	} else {
		return nil, err
	}

	return workerGroup, nil
}

// setupKeyValueStore prefers Postgres when it is configured and falls back to
// the in-memory store, which loses history on restart but needs no setup.
func setupKeyValueStore(cfg Config) (repository.KeyValueStore, error) {
	if cfg.PgURL == "" && cfg.PgHost == "" {
		slog.Info("No database configured, keeping history in memory")
		return repository.NewMemoryKV(), nil
	}

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}
	return repository.NewPostgresKV(db), nil
}
