package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Spok95/material-tracker/internal/config"
	"github.com/Spok95/material-tracker/internal/domain/materials"
	httpx "github.com/Spok95/material-tracker/internal/infra/http"
	"github.com/Spok95/material-tracker/internal/infra/logger"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Open the store and serve health/metrics until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.App.Env)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg, log, prometheus.DefaultRegisterer)
			if err != nil {
				log.Error("store init failed", "err", err)
				return err
			}
			defer st.close()

			if n, err := st.svc.CountNearExpiry(ctx); err != nil {
				log.Error("near expiry count failed", "err", err)
			} else {
				log.Info("near expiry materials", "count", n, "horizon_days", materials.NearExpiryDays)
			}

			srv := httpx.New(httpx.Options{
				Addr:          cfg.HTTP.Addr,
				ExposeMetrics: cfg.Metrics.Enabled,
				Ready:         st.ping,
			})
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("http server error", "err", err)
					stop()
				}
			}()
			log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			log.Info("graceful shutdown complete")
			return nil
		},
	}
}
