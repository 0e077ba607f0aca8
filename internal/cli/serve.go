package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/agent"
	"github.com/lucasnoah/scapagent/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent: scheduled scans plus the HTTP API",
	Long: `Start the agent. The first scheduled scan runs immediately and then every
agent.scan_interval (0 disables scheduling). Results are reported to
reporter.api_url when set; with reporter.spool_path set, undelivered results are
queued and retried before each scheduled scan.

The HTTP API serves /health, /scan, /scan/oscap, /scan/profiles and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		executor := newExecutor(cfg, log)
		if !executor.Available() {
			log.Warn("scanner binary not found; scans will return mock results", zap.String("binary", executor.Binary()))
		}
		orch := newOrchestrator(cfg, log, executor)

		opts := []agent.Option{
			agent.WithSchedule(cfg.ScanInterval(), cfg.RetryDelay()),
			agent.WithLogger(log),
		}
		if client := newReporter(cfg, log); client != nil {
			if !client.Health(cmd.Context()) {
				log.Warn("collector health check failed; results will be retried or dropped", zap.String("api_url", cfg.Reporter.APIURL))
			}
			opts = append(opts, agent.WithReporter(client))
		} else {
			log.Warn("reporter.api_url not set; scan results will not be reported")
		}

		db, err := openSpool(cfg)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
			opts = append(opts, agent.WithOutbox(db))
			log.Info("report outbox enabled", zap.String("path", db.Path()))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("agent configured",
			zap.String("default_profile", orch.DefaultProfile()),
			zap.String("listen", cfg.ListenAddr()),
		)
		a := agent.New(orch, opts...)
		if err := a.Start(ctx); err != nil {
			return fmt.Errorf("start agent: %w", err)
		}
		defer a.Stop()

		return web.NewServer(a, cfg.ListenAddr(), version, log).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on (overrides server.port)")
}
