package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/internal/config"
	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var errNoConfig = errors.New("no configuration file to reload")

// app bundles what every command builds from the configuration.
type app struct {
	path      string
	cfg       config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	workspace *weave.Workspace
	client    *backend.Client
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	a, err := buildApp(cfg)
	if err != nil {
		return nil, err
	}
	a.path = path
	return a, nil
}

func buildApp(cfg config.Config) (*app, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		logger: logging.New(level),
	}

	hooks := observability.LogHooks(a.logger)
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		hooks = observability.Combine(hooks, observability.NewMetrics(a.registry).Hooks())
	}

	opts := []weave.Option{
		weave.WithName(cfg.MCP.Name),
		weave.WithLogger(a.logger),
		weave.WithHooks(hooks),
	}
	if catalog := cfg.Catalog(); catalog != nil {
		opts = append(opts, weave.WithCatalog(catalog))
	}
	a.workspace = weave.New(opts...)

	seed, err := cfg.Graph.Builder()
	if err != nil {
		a.workspace.Close()
		return nil, fmt.Errorf("invalid graph in config: %w", err)
	}
	if err := seed.Apply(a.workspace); err != nil {
		a.workspace.Close()
		return nil, fmt.Errorf("failed to load graph from config: %w", err)
	}
	return a, nil
}

// redis returns the shared client, or nil when redis.addr is not configured.
func (a *app) redis(ctx context.Context) (*backend.Client, error) {
	if a.client != nil || a.cfg.Redis.Addr == "" {
		return a.client, nil
	}
	client := backend.NewClient(&backend.Options{Addr: a.cfg.Redis.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", a.cfg.Redis.Addr, err)
	}
	a.client = client
	return client, nil
}

// reload re-reads the configuration file at path and reconciles the workspace with
// its graph section. Only the graph is reloaded; other settings need a restart.
// Without a file there is nothing to reload; reconciling with the defaults would empty
// the graph.
func (a *app) reload(path string) error {
	if path == "" {
		return errNoConfig
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	b, err := cfg.Graph.Builder()
	if err != nil {
		return fmt.Errorf("invalid graph in config: %w", err)
	}
	diff, err := a.workspace.Reconcile(b.Snapshot(), b.Positions())
	if err != nil {
		return fmt.Errorf("failed to reload graph: %w", err)
	}
	a.logger.Info("Configuration reloaded", "path", path, "unchanged", diff.IsEmpty())
	a.cfg.Graph = cfg.Graph
	return nil
}

func (a *app) Close() {
	a.workspace.Close()
	if a.client != nil {
		a.client.Close()
	}
}
