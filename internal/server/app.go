package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/butter/internal/shared"
)

// App assembles the gateway: OAuth routes, proxy, health and metrics behind one router.
type App struct {
	config  *shared.Config
	logger  *log.Logger
	router  *BasicRouter
	metrics *Metrics
	tracing *Tracing
}

// AppOpts contains dependencies for [NewApp]. Nil fields get defaults.
type AppOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	HTTPClient *http.Client
	Metrics    *Metrics
	Tracing    *Tracing
}

// NewApp wires every handler from configuration.
func NewApp(opts AppOpts) *App {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Transport: opts.Tracing.Transport(nil)}
	}

	cfg := opts.Config

	exchanger := NewExchanger(ExchangeOptions{
		AuthorizeURL: cfg.Clover.AuthorizeURL,
		TokenURL:     cfg.Clover.TokenURL,
		ClientID:     cfg.Clover.ClientID,
		ClientSecret: cfg.Clover.ClientSecret,
		Timeout:      cfg.Clover.ExchangeTimeout.Duration,
		HTTPClient:   opts.HTTPClient,
	})

	oauth := NewOAuthHandler(exchanger, OAuthOptions{
		CallbackPath:      cfg.Server.CallbackPath,
		PublicURL:         cfg.Server.PublicURL,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, shared.WithLogger(opts.Logger, "component", "oauth"), opts.Metrics)

	proxy := NewProxyHandler(ProxyOptions{
		UpstreamBase: cfg.Clover.APIBaseURL,
		MountPrefix:  cfg.Proxy.MountPrefix,
		Timeout:      cfg.Proxy.Timeout.Duration,
		Envelope:     cfg.Proxy.Envelope,
		HTTPClient:   opts.HTTPClient,
	}, shared.WithLogger(opts.Logger, "component", "proxy"), opts.Metrics)

	router := NewBasicRouter()
	router.Use(
		RequestID(),
		Recover(opts.Logger),
		opts.Tracing.Middleware(),
		RequestLogger(shared.WithLogger(opts.Logger, "component", "server")),
	)
	router.Handler(NewHealthHandler(cfg.Clover.Configured()))
	router.Handler(oauth)
	router.Handler(proxy)
	router.Handler(opts.Metrics)

	return &App{
		config:  cfg,
		logger:  opts.Logger,
		router:  router,
		metrics: opts.Metrics,
		tracing: opts.Tracing,
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if !a.config.Clover.Configured() {
		a.logger.Warn("CLOVER_CLIENT_ID / CLOVER_CLIENT_SECRET not set; OAuth routes will answer 503")
	}

	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", srv.Addr, "callback", a.config.Server.CallbackPath,
			"upstream", a.config.Clover.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := a.tracing.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("tracing shutdown failed", "err", err)
	}
	return nil
}
