package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"heropage/internal/handler"
	"heropage/internal/hub"
	"heropage/internal/service"
	"heropage/internal/watcher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server. The image directory (or manifest) is ingested into
the catalog on start, and again on every change when images.watch is set.`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address override (e.g. :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger := a.logger
	logger.Info("configuration", zap.String("summary", cfg.Summary()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	content := a.content()
	var sessions *service.SessionManager
	sseHub := hub.New(
		hub.WithLogger(logger.Named("hub")),
		hub.OnDisconnect(func(id string) { sessions.Release(id, cfg.Sessions.ReconnectGrace.Duration()) }),
		hub.OnClientCount(a.metrics.SetClients),
	)
	sessions = a.sessionManager(content, service.WithAlive(sseHub.Connected))
	defer sessions.Close()

	heroSvc, err := a.heroService(content, sessions)
	if err != nil {
		return err
	}

	if err := ingest(ctx, heroSvc, cfg.Images.Dir, cfg.Images.Manifest); err != nil {
		// serving continues with whatever the catalog already holds
		logger.Warn("initial ingest failed", zap.Error(err))
	}

	h := handler.NewHeroHandler(heroSvc, a.catalog, sseHub, logger.Named("http"))
	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.NewRouter(h, handler.RouterConfig{
			Metrics:        a.metrics,
			MetricsPath:    cfg.Metrics.Path,
			RequestTimeout: cfg.Server.WriteTimeout.Duration(),
			ImagesDir:      cfg.Images.Dir,
			ImagesPrefix:   cfg.Images.URLPrefix,
			Logger:         logger.Named("http"),
		}),
		ReadTimeout: cfg.Server.ReadTimeout.Duration(),
		// no WriteTimeout: event streams stay open
		IdleTimeout: cfg.Server.IdleTimeout.Duration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sseHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.bus.Relay(gctx, sseHub)
		return nil
	})
	g.Go(func() error {
		sessions.RunSweeper(gctx, cfg.Sessions.SweepInterval.Duration(), cfg.Sessions.IdleTimeout.Duration())
		return nil
	})
	if cfg.Images.Watch {
		w := watcher.New(cfg.Images.Dir, func(ctx context.Context, path string) {
			if err := ingest(ctx, heroSvc, cfg.Images.Dir, cfg.Images.Manifest); err != nil {
				logger.Warn("re-ingest failed", zap.String("trigger", path), zap.Error(err))
			}
		},
			watcher.WithFile(cfg.Images.Manifest),
			watcher.WithLogger(logger.Named("watcher")),
		)
		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watcher: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
