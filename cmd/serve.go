package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/krisalay/datacache/logging"
	"github.com/krisalay/datacache/metrics"
	"github.com/krisalay/datacache/parish"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached content over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}
			warm, _ := cmd.Flags().GetBool("warm")

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m, err := metrics.NewPrometheus(reg, "parish")
			if err != nil {
				return err
			}

			site, err := a.newSite(m)
			if err != nil {
				return err
			}
			defer site.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.Component(a.logger, "http")
			if warm {
				if err := site.Warm(ctx); err != nil {
					log.Warn().Err(err).Msg("warm-up incomplete")
				}
			}

			mux := http.NewServeMux()
			mux.Handle("/", parish.NewHandler(site, log))
			mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Str("content", site.Source().Dir()).Msg("listening")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides config)")
	cmd.Flags().Bool("warm", false, "load all content before accepting requests")
	return cmd
}
