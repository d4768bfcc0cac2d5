package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getreplayd/replayd/pkg/capture"
	"github.com/getreplayd/replayd/pkg/metrics"
	"github.com/getreplayd/replayd/pkg/proxy"
)

var (
	observePort        int
	observeMetricsPort int
	observeDuration    time.Duration
	observeOutput      string
	observeTarget      string
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Run the interception proxy and capture traffic",
	Long: `Observe starts an HTTP proxy that records every exchange into the capture
file. With --target, requests are forwarded to the real backend and the
real responses are captured; without it, the proxy acknowledges each
request with a synthetic response.

Prometheus metrics are served on a separate port so /metrics never shadows
a captured path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		port := observePort
		if port == 0 {
			port = cfg.Observe.Port
		}
		metricsPort := observeMetricsPort
		if metricsPort == 0 {
			metricsPort = cfg.Observe.MetricsPort
		}
		output := observeOutput
		if output == "" {
			output = cfg.Store.Path
		}
		target := observeTarget
		if target == "" {
			target = cfg.Observe.Target
		}

		store, err := capture.Open(output)
		if err != nil {
			return fmt.Errorf("opening capture store: %w", err)
		}
		defer func() { _ = store.Close() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if observeDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, observeDuration)
			defer cancel()
		}

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", metricsPort),
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()

		p := proxy.New(proxy.Options{
			Store:  store,
			Target: target,
			Logger: logger,
		})

		logger.Info("observing traffic",
			"port", port,
			"output", output,
			"target", target,
			"metrics_port", metricsPort)

		if err := p.Serve(ctx, fmt.Sprintf(":%d", port)); err != nil {
			return fmt.Errorf("proxy: %w", err)
		}

		count, err := store.Count()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Captured %d exchanges in %s\n", count, output)
		return nil
	},
}

func init() {
	observeCmd.Flags().IntVarP(&observePort, "port", "P", 0, "Port to listen on (default from config)")
	observeCmd.Flags().IntVar(&observeMetricsPort, "metrics-port", 0, "Port for Prometheus metrics (default from config)")
	observeCmd.Flags().DurationVarP(&observeDuration, "duration", "d", 0, "Stop after this long (0 = run until interrupted)")
	observeCmd.Flags().StringVarP(&observeOutput, "output", "o", "", "Capture file path (default from config)")
	observeCmd.Flags().StringVarP(&observeTarget, "target", "t", "", "Backend base URL to forward traffic to")
	rootCmd.AddCommand(observeCmd)
}
