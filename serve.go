package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jalad-shrimali/callmatch/config"
	"github.com/jalad-shrimali/callmatch/handlers"
	"github.com/jalad-shrimali/callmatch/logger"
	"github.com/jalad-shrimali/callmatch/metrics"
)

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appLogger := logger.New(cfg.Log.Level).With("service", "callmatch")
	appLogger.Info("callmatch starting",
		"addr", cfg.Server.Addr(),
		"metrics_enabled", cfg.Metrics.Enabled,
		"metrics_port", cfg.Metrics.Port,
		"log_level", cfg.Log.Level,
	)

	h, err := handlers.New(appLogger, handlers.Options{
		PreviewRows:    cfg.Upload.PreviewRows,
		MaxUploadBytes: cfg.Upload.MaxBytes(),
		Region:         cfg.Phone.Region,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("init handlers: %w", err)
	}

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr(),
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}}
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: metricsMux,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, groupCtx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			appLogger.Info("HTTP server starting", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			appLogger.Info("HTTP server shut down gracefully", "address", srv.Addr)
			return nil
		})
	}

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()

		var shutdownErrors error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return shutdownErrors
	})

	return g.Wait()
}
