package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/content"
	"github.com/lucasnoah/scapagent/internal/metrics"
	"github.com/lucasnoah/scapagent/internal/oscap"
	"github.com/lucasnoah/scapagent/internal/sysinfo"
	"github.com/lucasnoah/scapagent/internal/xccdf"
)

// Resolver finds the datastream for a scan.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*content.Reference, error)
}

// Executor runs one evaluation.
type Executor interface {
	Execute(ctx context.Context, req oscap.Request) (*oscap.Outcome, error)
}

// Orchestrator performs scans one at a time.
type Orchestrator struct {
	resolver       Resolver
	executor       Executor
	resultsDir     string
	defaultProfile string
	collect        sysinfo.Collector
	newID          func() string
	now            func() time.Time
	log            *zap.Logger

	slot chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSysInfo replaces the host fact collector.
func WithSysInfo(c sysinfo.Collector) Option {
	return func(o *Orchestrator) { o.collect = c }
}

// WithIDGenerator replaces the scan id generator.
func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

// WithClock replaces the timestamp source.
func WithClock(f func() time.Time) Option {
	return func(o *Orchestrator) { o.now = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = l.Named("scan") }
}

// NewOrchestrator creates an Orchestrator writing per-scan files into resultsDir.
func NewOrchestrator(resolver Resolver, executor Executor, resultsDir, defaultProfile string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:       resolver,
		executor:       executor,
		resultsDir:     resultsDir,
		defaultProfile: defaultProfile,
		collect:        sysinfo.Collect,
		newID:          uuid.NewString,
		now:            time.Now,
		log:            zap.NewNop(),
		slot:           make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DefaultProfile returns the profile used when a request names none.
func (o *Orchestrator) DefaultProfile() string { return o.defaultProfile }

// PerformScan runs one scan and always returns a result; failures are
// recorded in Status and Error. Scans are serialised: a caller whose ctx ends
// while another scan holds the slot gets a failed result.
func (o *Orchestrator) PerformScan(ctx context.Context, req Request) *Result {
	start := time.Now()
	profile := req.Profile
	if profile == "" {
		profile = o.defaultProfile
	}
	res := &Result{
		ScanID:     o.newID(),
		Timestamp:  o.now().UTC(),
		Profile:    profile,
		Datastream: req.Datastream,
	}
	log := o.log.With(zap.String("scan_id", res.ScanID), zap.String("profile", profile))

	select {
	case o.slot <- struct{}{}:
		func() {
			defer func() { <-o.slot }()
			o.run(ctx, log, res, req.Datastream)
		}()
	case <-ctx.Done():
		o.fail(log, res, fmt.Errorf("waiting for running scan: %w", ctx.Err()))
	}

	res.SystemInfo = o.collect(context.WithoutCancel(ctx))
	o.observe(res, time.Since(start))
	log.Info("scan finished",
		zap.String("status", string(res.Status)),
		zap.String("datastream", res.Datastream),
		zap.Duration("duration", time.Since(start)),
	)
	return res
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, res *Result, datastream string) {
	ref, err := o.resolver.Resolve(ctx, datastream)
	if errors.Is(err, content.ErrNotFound) {
		log.Warn("no scap content, returning mock result", zap.Error(err))
		o.mock(res, ReasonNoContent)
		return
	}
	if err != nil {
		o.fail(log, res, fmt.Errorf("resolve content: %w", err))
		return
	}
	res.Datastream = ref.Name

	if err := os.MkdirAll(o.resultsDir, 0o755); err != nil {
		o.fail(log, res, fmt.Errorf("create results dir: %w", err))
		return
	}
	res.ResultsFile = filepath.Join(o.resultsDir, fmt.Sprintf("results_%s.xml", res.ScanID))
	res.ReportFile = filepath.Join(o.resultsDir, fmt.Sprintf("report_%s.html", res.ScanID))

	log.Info("starting scan", zap.String("datastream", ref.Path))
	outcome, err := o.executor.Execute(ctx, oscap.Request{
		Content:     ref.Path,
		Profile:     res.Profile,
		ResultsPath: res.ResultsFile,
		ReportPath:  res.ReportFile,
	})
	if errors.Is(err, oscap.ErrToolNotInstalled) {
		log.Warn("oscap not installed, returning mock result", zap.Error(err))
		res.ResultsFile, res.ReportFile = "", ""
		o.mock(res, ReasonNoTool)
		return
	}
	if err != nil {
		o.fail(log, res, fmt.Errorf("execute oscap: %w", err))
		return
	}
	res.Outcome = outcome

	if _, err := os.Stat(res.ResultsFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("results file not found", zap.String("path", res.ResultsFile), zap.Int("exit_code", outcome.ExitCode))
			res.Status = StatusCompletedNoResults
			res.Summary = emptySummary()
			return
		}
		o.fail(log, res, fmt.Errorf("stat results: %w", err))
		return
	}

	res.Status = StatusCompleted
	summary, err := xccdf.ParseFile(res.ResultsFile)
	if err != nil {
		log.Error("failed to parse results", zap.String("path", res.ResultsFile), zap.Error(err))
		res.Summary = emptySummary()
		res.Error = err.Error()
		return
	}
	res.Summary = summary
}

func (o *Orchestrator) fail(log *zap.Logger, res *Result, err error) {
	log.Error("scan failed", zap.Error(err))
	res.Status = StatusFailed
	res.Summary = nil
	res.Error = err.Error()
}

func (o *Orchestrator) observe(res *Result, d time.Duration) {
	status := string(res.Status)
	metrics.ScansTotal.WithLabelValues(status).Inc()
	metrics.ScanDuration.WithLabelValues(status).Observe(d.Seconds())
	if res.Status == StatusCompleted && res.Error == "" && res.Summary != nil {
		metrics.ComplianceScore.WithLabelValues(res.Profile).Set(res.Summary.Score)
	}
}

func emptySummary() *xccdf.Summary {
	return &xccdf.Summary{Rules: []xccdf.RuleOutcome{}}
}
