package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orangeuaswe/portfolio-web/internal/config"
	"github.com/orangeuaswe/portfolio-web/internal/content"
	"github.com/orangeuaswe/portfolio-web/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flag.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	flag.StringVar(&cfg.Site.TemplatesDir, "templates", cfg.Site.TemplatesDir, "templates directory")
	flag.StringVar(&cfg.Site.PublicDir, "public", cfg.Site.PublicDir, "public assets directory")
	flag.StringVar(&cfg.Site.ContentFile, "content", cfg.Site.ContentFile, "portfolio content YAML (embedded default when empty)")
	flag.Parse()

	var logOpts []observability.LoggerOption
	if cfg.Site.DevMode {
		logOpts = append(logOpts, observability.WithConsole())
	}
	logger, err := observability.NewLogger(cfg.Log.Level, logOpts...)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := content.NewStore(cfg.Site.ContentFile, logger.Named("content"))
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	a, err := newApp(cfg, logger, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("dev_mode", cfg.Site.DevMode),
			zap.String("env", cfg.Site.Environment),
			zap.Bool("same_origin_contact", cfg.API.BaseURL == ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.poller.Run(gctx)
	})
	if cfg.Site.DevMode && store.Path() != "" {
		g.Go(func() error {
			if err := store.Watch(gctx); err != nil {
				logger.Warn("content watcher stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
