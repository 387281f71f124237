package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/okhsunrog/llm-relay/internal/llm/client"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
	"github.com/okhsunrog/llm-relay/internal/observability/middleware"
	"github.com/okhsunrog/llm-relay/internal/openaiadapter/anthropicclaude"
	"github.com/okhsunrog/llm-relay/internal/tokensource"
)

// DefaultMaxRequestBytes bounds request bodies when no limit is configured.
const DefaultMaxRequestBytes int64 = 32 << 20

// ReadinessChecker reports whether the application can serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Proxy serves OpenAI- and Anthropic-compatible endpoints backed by one configured upstream.
type Proxy struct {
	handler http.Handler
	server  *http.Server
}

// Compile-time check to ensure Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

type options struct {
	transport       http.RoundTripper
	maxRequestBytes int64
	models          []string
	cacheControl    bool
	namespaceTools  bool
	logger          *slog.Logger
}

// Option configures a Proxy.
type Option func(*options)

// WithTransport sets the base transport for upstream requests. Authentication is layered on top.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) { o.transport = transport }
}

// WithMaxRequestBytes limits the size of request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(o *options) { o.maxRequestBytes = n }
}

// WithModels sets the model list served by /v1/models. Defaults to the configured model.
func WithModels(models ...string) Option {
	return func(o *options) { o.models = models }
}

// WithCacheControl enables automatic prompt-cache breakpoints on chat completions.
func WithCacheControl(enabled bool) Option {
	return func(o *options) { o.cacheControl = enabled }
}

// WithNamespacedTools enables tool-name namespacing on chat completions.
func WithNamespacedTools(enabled bool) Option {
	return func(o *options) { o.namespaceTools = enabled }
}

// WithLogger sets the logger used for request logs. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a proxy for the upstream described by cfg.
//
// Routes:
//
//	POST /v1/chat/completions  OpenAI chat completions (Anthropic upstream only)
//	POST /v1/messages          Anthropic Messages, served through the client for any upstream
//	GET  /v1/models            configured model list
//	GET  /health/live          liveness probe
//	GET  /health/ready         readiness probe
func New(cfg client.Config, health ReadinessChecker, opts ...Option) (*Proxy, error) {
	if health == nil {
		return nil, fmt.Errorf("readiness checker cannot be nil")
	}

	o := options{
		transport:       http.DefaultTransport,
		maxRequestBytes: DefaultMaxRequestBytes,
		models:          []string{cfg.Model},
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	llm, err := client.New(cfg, client.WithTransport(o.transport))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	mux := http.NewServeMux()

	if cfg.Provider == types.ProviderAnthropic {
		mux.Handle("POST /v1/chat/completions", &CreateChatCompletionsHandler{
			Adapter: anthropicclaude.NewCreateChatCompletionAdapter(
				anthropicclaude.WithBaseURL(cfg.BaseURL),
				anthropicclaude.WithDefaultModel(cfg.Model),
				anthropicclaude.WithDefaultMaxTokens(cfg.MaxTokens),
				anthropicclaude.WithTimeout(cfg.Timeout),
				anthropicclaude.WithCacheControl(o.cacheControl),
				anthropicclaude.WithNamespacedTools(o.namespaceTools),
			),
			Transport: upstreamTransport(cfg, o.transport),
		})
	}
	mux.Handle("POST /v1/messages", &MessagesHandler{Client: llm})
	mux.Handle("GET /v1/models", modelsHandler(cfg.Provider, o.models))
	mux.Handle("GET /health/live", livenessHandler())
	mux.Handle("GET /health/ready", readinessHandler(health))

	handler := applyMiddlewares(mux,
		Recovery,
		middleware.RequestIDGeneration,
		middleware.Logging(o.logger),
		middleware.RequestIDPropagation,
		middleware.TraceContextExtraction,
		RequestSizeLimit(o.maxRequestBytes),
	)

	return &Proxy{handler: handler}, nil
}

// upstreamTransport layers upstream authentication on top of base.
func upstreamTransport(cfg client.Config, base http.RoundTripper) http.RoundTripper {
	if cfg.OAuth {
		return tokensource.NewTransport(tokensource.NewTokenSource(cfg.APIKey), base)
	}
	return tokensource.NewAPIKeyTransport(cfg.APIKey, base)
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. The returned channel receives
// the serve error, or nil after a graceful shutdown, and is then closed.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p.server = &http.Server{
		Handler:           p.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	slog.InfoContext(ctx, "proxy listening", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	return errCh, nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx is done.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}
