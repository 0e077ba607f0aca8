package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/config"
	"github.com/lucasnoah/scapagent/internal/content"
	"github.com/lucasnoah/scapagent/internal/logging"
	"github.com/lucasnoah/scapagent/internal/oscap"
	"github.com/lucasnoah/scapagent/internal/report"
	"github.com/lucasnoah/scapagent/internal/scan"
	"github.com/lucasnoah/scapagent/internal/spool"
	"github.com/lucasnoah/scapagent/internal/sysinfo"
)

// resolveConfigPath makes an explicit --config path absolute and checks that
// it exists. An empty flag is returned unchanged so Load searches the
// default locations.
func resolveConfigPath(flag string) (string, error) {
	if flag == "" {
		return "", nil
	}
	abs, err := filepath.Abs(flag)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("config file not found: %s", abs)
	}
	return abs, nil
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath(configFile)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// setup loads and validates configuration and builds the logger. Logs go to
// the command's stderr so stdout stays parseable.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, nil, fmt.Errorf("invalid configuration: %w", errors.Join(joined...))
	}
	log, err := logging.NewWithWriter(cfg.Logger, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func newLocator(cfg *config.Config, log *zap.Logger) *content.Locator {
	opts := content.Options{
		Roots:         cfg.SearchRoots(),
		CacheDir:      cfg.Content.CacheDir,
		Glob:          cfg.Content.Glob,
		OSReleasePath: cfg.Content.OSReleasePath,
		DefaultName:   cfg.Content.DefaultDatastream,
	}
	if cfg.Content.FetchEnabled {
		opts.Fetcher = content.NewArchiveFetcher(cfg.Content.ArchiveURL, cfg.Content.FetchRetryMax, log)
	}
	return content.NewLocator(opts, log)
}

func newExecutor(cfg *config.Config, log *zap.Logger) *oscap.Executor {
	return oscap.NewExecutor(&oscap.ExecRunner{},
		oscap.WithBinary(cfg.Scanner.Binary),
		oscap.WithTimeout(cfg.ScannerTimeout()),
		oscap.WithLogger(log),
	)
}

func newOrchestrator(cfg *config.Config, log *zap.Logger, executor *oscap.Executor) *scan.Orchestrator {
	opts := []scan.Option{scan.WithLogger(log)}
	if !cfg.Agent.ExtendedSysInfo {
		opts = append(opts, scan.WithSysInfo(sysinfo.Hostname))
	}
	return scan.NewOrchestrator(newLocator(cfg, log), executor,
		cfg.Content.ResultsDir, cfg.Agent.DefaultProfile, opts...)
}

// newReporter returns nil when no collector is configured.
func newReporter(cfg *config.Config, log *zap.Logger) *report.Client {
	if cfg.Reporter.APIURL == "" {
		return nil
	}
	return report.NewClient(cfg.Reporter.APIURL, cfg.Reporter.APIToken,
		cfg.ReporterTimeout(), cfg.Reporter.RetryMax, log)
}

// openSpool returns nil when the outbox is disabled.
func openSpool(cfg *config.Config) (*spool.DB, error) {
	if cfg.Reporter.SpoolPath == "" {
		return nil, nil
	}
	db, err := spool.Open(cfg.Reporter.SpoolPath)
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate spool: %w", err)
	}
	return db, nil
}
