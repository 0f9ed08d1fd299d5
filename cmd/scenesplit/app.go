package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	// Register LLM providers via init()
	_ "github.com/scenesplit/scenesplit/llm/providers"

	"github.com/scenesplit/scenesplit/analyzer"
	"github.com/scenesplit/scenesplit/config"
	"github.com/scenesplit/scenesplit/llm"
	"github.com/scenesplit/scenesplit/model"
	"github.com/scenesplit/scenesplit/orchestrator"
	"github.com/scenesplit/scenesplit/store"
)

// App wires the orchestrator and its collaborators from configuration.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	natsConn *nats.Conn
	orch     *orchestrator.Orchestrator
}

// NewApp builds the application from loaded configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}

	registry, err := app.buildRegistry()
	if err != nil {
		return nil, err
	}

	client := llm.NewClient(registry,
		llm.WithLogger(logger),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.Model.Timeout}),
	)
	an := analyzer.New(client,
		analyzer.WithWorkers(cfg.Analyzer.Workers),
		analyzer.WithLogger(logger),
	)

	st, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	app.orch = orchestrator.New(st, an, orchestrator.WithLogger(logger))
	return app, nil
}

// Close releases the NATS connection if one was opened.
func (a *App) Close() {
	if a.natsConn != nil {
		a.natsConn.Close()
	}
}

// Orchestrator returns the wired orchestrator.
func (a *App) Orchestrator() *orchestrator.Orchestrator {
	return a.orch
}

func (a *App) buildRegistry() (*model.Registry, error) {
	if a.cfg.Model.RegistryPath == "" {
		return model.NewDefaultRegistry(), nil
	}
	registry, err := model.LoadFromFile(a.cfg.Model.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load model registry %s: %w", a.cfg.Model.RegistryPath, err)
	}
	return registry, nil
}

func (a *App) buildStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Store.Backend {
	case config.BackendNATS:
		conn, err := nats.Connect(a.cfg.Store.URL,
			nats.Timeout(10*time.Second),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS at %s: %w", a.cfg.Store.URL, err)
		}
		a.natsConn = conn

		kv, err := store.NewKVStore(ctx, conn, a.cfg.Store.Bucket, store.WithKVLogger(a.logger))
		if err != nil {
			conn.Close()
			return nil, err
		}
		a.logger.Info("Using NATS state store",
			"url", a.cfg.Store.URL,
			"bucket", a.cfg.Store.Bucket)
		return kv, nil

	default:
		a.logger.Info("Using in-memory state store")
		return store.NewMemoryStore(), nil
	}
}

// printJSON writes v to stdout as indented JSON. Logs go to stderr, so
// stdout stays machine-readable.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
