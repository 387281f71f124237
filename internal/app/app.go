package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/okhsunrog/llm-relay/internal/proxy"
)

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	cfg    Config
	health *Health
	proxy  *proxy.Proxy
}

// New resolves upstream credentials and creates the proxy described by cfg.
// Extra proxy options are applied after the configured ones.
func New(ctx context.Context, cfg Config, opts ...proxy.Option) (*App, error) {
	store, err := cfg.Upstream.NewCredentialStore()
	if err != nil {
		return nil, err
	}
	apiKey, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	clientCfg, err := cfg.Upstream.ClientConfig(apiKey)
	if err != nil {
		return nil, err
	}

	health := NewHealth()
	proxyOpts := append([]proxy.Option{
		proxy.WithMaxRequestBytes(cfg.Server.MaxRequestBytes),
		proxy.WithModels(cfg.Upstream.ModelList()...),
		proxy.WithCacheControl(cfg.Proxy.CacheControl),
		proxy.WithNamespacedTools(cfg.Proxy.NamespaceTools),
	}, opts...)

	proxyServer, err := proxy.New(clientCfg, health, proxyOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	return &App{
		cfg:    cfg,
		health: health,
		proxy:  proxyServer,
	}, nil
}

// Health returns the readiness state served by the health endpoints.
func (a *App) Health() *Health {
	return a.health
}

// Start starts all services and blocks until ctx is cancelled or a service fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting proxy server",
		"addr", a.cfg.Server.Addr,
		"provider", a.cfg.Upstream.Provider,
		"model", a.cfg.Upstream.Model,
	)
	proxyErrCh, err := a.proxy.Start(gCtx, a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)
	a.health.SetReady(true)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()
	a.health.SetReady(false)

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
