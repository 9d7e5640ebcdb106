// Package cmd is the command line front end of the engine.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Chative-multiagent/server/internal/agent/completion"
	"github.com/Chative-multiagent/server/internal/agent/metrics"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

const defaultEnvFile = ".env"

// clientFactory builds the completion client for a loaded configuration.
type clientFactory func(ctx context.Context, cfg *AppConfig, m *metrics.Metrics) (completion.Client, error)

// app carries the state shared by every subcommand of one process.
type app struct {
	envFile     string
	metricsAddr string
	logLevel    string

	out       io.Writer
	in        io.Reader
	newClient clientFactory

	cfg      *AppConfig
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	server   *http.Server
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCommand(&app{out: os.Stdout, in: os.Stdin, newClient: newCompletionClient}).ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "multiagent",
		Short: "Route questions to specialised completion agents",
		Long: `multiagent classifies each question into one of eight categories
(general, coding, grammar, research, planning, creative, math, conversation)
and answers it with the matching specialised agent.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}
	root.SetOut(a.out)
	root.SetIn(a.in)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", envOr("METRICS_ADDR", ""), "serve Prometheus metrics on this address (empty disables)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", envOr("LOG_LEVEL", ""), "log level override (debug, info, warn, error)")

	root.AddCommand(newAskCommand(a), newChatCommand(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: a.logLevel})

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if a.metrics, err = metrics.New(a.registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if a.metricsAddr != "" {
		a.serveMetrics()
	}
	return nil
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	a.server = &http.Server{
		Addr:              a.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", a.metricsAddr).Msg("Serving metrics")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}

func (a *app) shutdown() error {
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}
