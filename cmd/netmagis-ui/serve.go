package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/netmagis/netmagis-ui/internal/config"
	"github.com/netmagis/netmagis-ui/internal/errors"
	"github.com/netmagis/netmagis-ui/internal/menu"
	"github.com/netmagis/netmagis-ui/pkg/remote"
	"github.com/netmagis/netmagis-ui/pkg/session"
	"github.com/netmagis/netmagis-ui/pkg/ui"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		listen string
		page   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the UI host",
		Long: `Start the UI host.

The host fetches capabilities and translations from the backend
derived from the page URL, then serves the interface on / and keeps
connected browsers up to date over /ws.

Examples:
  netmagis-ui serve
  netmagis-ui serve --page=https://netmagis.example.org/nm/index.html
  netmagis-ui serve --listen=127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.UI.Listen = listen
			}
			if page != "" {
				cfg.SetPage(page)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config)")
	cmd.Flags().StringVarP(&page, "page", "p", "", "Application page URL (default from config)")

	return cmd
}

// host wires the session store to the UI server.
type host struct {
	client   *remote.Client
	store    *session.Store
	server   *ui.Server
	registry *prometheus.Registry
}

func newHost(cfg *config.Config, logger *slog.Logger) (*host, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, errors.New("N102").Wrap(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clientOpts := []remote.Option{
		remote.WithLogger(logger),
		remote.WithTimeout(timeout),
		remote.WithRegisterer(reg),
	}
	if cfg.UI.TracerName != "" {
		clientOpts = append(clientOpts, remote.WithTracerName(cfg.UI.TracerName))
	}
	client, err := remote.New(cfg.UI.Page, clientOpts...)
	if err != nil {
		return nil, errors.New("N102").WithDetail("ui.page: " + cfg.UI.Page).Wrap(err)
	}

	storeOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLanguage(cfg.UI.Language),
	}
	if cfg.UI.DiscardSuperseded {
		storeOpts = append(storeOpts, session.WithDiscardSuperseded())
	}
	store := session.New(client, storeOpts...)

	root := ui.NewRoot(store, menu.New(menu.DefaultItems, cfg.UI.Languages), ui.WithRootLogger(logger))

	serverOpts := []ui.ServerOption{
		ui.WithTitle(cfg.UI.Title),
		ui.WithServerLogger(logger),
	}
	if cfg.UI.Metrics {
		serverOpts = append(serverOpts, ui.WithMetrics(reg, reg))
	}
	if len(cfg.UI.AllowedOrigins) > 0 {
		serverOpts = append(serverOpts, ui.WithCheckOrigin(originChecker(cfg.UI.AllowedOrigins)))
	}

	return &host{
		client:   client,
		store:    store,
		server:   ui.NewServer(root, serverOpts...),
		registry: reg,
	}, nil
}

// originChecker accepts websocket upgrades from the listed origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(allowed, u.Scheme+"://"+u.Host)
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	h, err := newHost(cfg, logger)
	if err != nil {
		return err
	}
	if err := h.store.Start(); err != nil {
		return err
	}
	defer h.store.Close()

	srv := &http.Server{
		Addr:              cfg.UI.Listen,
		Handler:           h.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return listenAndServe(ctx, srv, logger, "ui host listening", "backend", h.client.Base().String())
}

// listenAndServe runs srv until ctx ends or SIGINT/SIGTERM arrives.
func listenAndServe(ctx context.Context, srv *http.Server, logger *slog.Logger, msg string, attrs ...any) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info(msg, append([]any{"addr", srv.Addr}, attrs...)...)

	select {
	case err := <-errCh:
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.New("N122").WithDetail(srv.Addr + " is already in use").Wrap(err)
		}
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.FromError(err, "N121")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.FromError(err, "N121")
	}
	return nil
}
