package cli

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/AbdouB/dialogue/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host    string
		port    int
		enhance bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the response engine and the scenario library over HTTP.
Prometheus metrics are exposed on /metrics.

Example:
  dialogue serve --port 9090
  DIALOGUE_ENHANCE=true dialogue serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			h, err := server.NewHandlers(a.engine(enhance), server.HandlersConfig{
				Store:            store,
				Metrics:          server.MustNewMetrics(reg),
				Logger:           a.logger,
				CacheSize:        a.cfg.Cache.DerivedMetricsSize,
				EnhanceByDefault: enhance || a.cfg.Enhancement.Enabled,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, a.cfg.Server.Addr(), server.SetupRoutes(h, a.cfg.Server.AllowedOrigins, reg), a.logger)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().BoolVar(&enhance, "enhance", false, "Enhance responses unless a request opts out")
	return cmd
}
