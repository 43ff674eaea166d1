package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/raoulx24/ghee/internal/config"
	"github.com/raoulx24/ghee/internal/daemon"
	"github.com/raoulx24/ghee/internal/metrics"
)

func newDaemonCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the configured schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := getGlobalOptions(cmd)
			cfg, log, err := e.loadConfig(g)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			m := metrics.New()

			if cfg.Metrics.Listen != "" {
				srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: metricsMux(m), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					log.Info("serving metrics", "addr", cfg.Metrics.Listen)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("metrics server failed", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			load := func() (*config.Config, error) {
				return config.Load(g.ConfigPath)
			}
			run := func(ctx context.Context, cfg *config.Config, t daemon.Trigger) error {
				return e.invoke(ctx, g, cfg, log, m, t.Mode, t.Groups)
			}

			return daemon.New(g.ConfigPath, load, run, log.With("component", "daemon")).Run(ctx)
		},
	}
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
