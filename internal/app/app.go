package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/datumgraph/internal/config"
	"github.com/vk/datumgraph/internal/ctxlog"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/expr"
	"github.com/vk/datumgraph/internal/metrics"
	"github.com/vk/datumgraph/internal/registry"
	"github.com/vk/datumgraph/internal/uihook"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Collector
	graph      *datum.Graph
	forwarder  *uihook.Forwarder
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger, registry and metrics collector. Modules
// default to the built-in node catalog.
func NewApp(logW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  metrics.New(),
	}, nil
}

// Context returns the context carrying the app's logger.
func (a *App) Context() context.Context { return a.ctx }

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry { return a.registry }

// Metrics returns the collector observing the graph.
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// Graph returns the graph built by Open, or nil before it.
func (a *App) Graph() *datum.Graph { return a.graph }

// Open loads the configured document and builds the graph from it. The
// hooks are attached to the graph along with the notify forwarder when a
// notify URL is configured.
func (a *App) Open(loader config.Loader, hooks ...datum.Hook) error {
	if a.config.DocumentPath == "" {
		return fmt.Errorf("no document path configured")
	}
	doc, err := loader.Load(a.ctx, a.config.DocumentPath)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	a.logger.Debug("Document loaded.", "path", a.config.DocumentPath, "nodes", len(doc.Nodes))

	if a.config.NotifyURL != "" {
		f, err := uihook.Dial(a.ctx, a.config.NotifyURL, a.config.InsecureSkipVerify)
		if err != nil {
			return err
		}
		a.forwarder = f
		hooks = append(hooks, f)
	}

	opts := []datum.Option{
		datum.WithObserver(a.metrics),
		datum.WithParser(expr.NewParser(a.config.ParseCacheSize)),
	}
	for _, h := range hooks {
		opts = append(opts, datum.WithHook(h))
	}
	a.graph = datum.New(opts...)

	if err := Build(a.ctx, doc, a.registry, a.graph); err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	a.logger.Info("Graph ready.", "nodes", len(a.graph.Nodes()))
	return nil
}

// Start starts the health and metrics server when a port is configured.
func (a *App) Start() {
	if a.config.MetricsPort > 0 {
		a.startServer(a.config.MetricsPort)
	}
}

// Close stops the server and disconnects the notify forwarder.
func (a *App) Close() error {
	if a.forwarder != nil {
		a.forwarder.Close()
	}
	return a.closeServer()
}
