package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/metrics"
	"github.com/lucasnoah/scapagent/internal/scan"
	"github.com/lucasnoah/scapagent/internal/spool"
)

// ErrAlreadyRunning is returned by Start on a running agent.
var ErrAlreadyRunning = errors.New("agent already running")

// Scanner performs one scan.
type Scanner interface {
	PerformScan(ctx context.Context, req scan.Request) *scan.Result
}

// Reporter delivers results to the collector.
type Reporter interface {
	Submit(ctx context.Context, res *scan.Result) error
	SubmitPayload(ctx context.Context, scanID string, body []byte) error
}

// Outbox holds results the collector has not accepted yet.
type Outbox interface {
	Enqueue(scanID, status string, payload []byte, cause error) error
	Pending(limit int) ([]spool.Entry, error)
	MarkAttempt(id int64, cause error) error
	Delete(id int64) error
	Count() (int, error)
}

// Agent owns the scan schedule. The zero interval disables scheduling; scans
// can still be triggered through PerformScan.
type Agent struct {
	scanner    Scanner
	reporter   Reporter
	outbox     Outbox
	interval   time.Duration
	retryDelay time.Duration
	log        *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures an Agent.
type Option func(*Agent)

// WithReporter enables delivery of scheduled and triggered scans.
func WithReporter(r Reporter) Option {
	return func(a *Agent) { a.reporter = r }
}

// WithOutbox queues undelivered results for retry.
func WithOutbox(o Outbox) Option {
	return func(a *Agent) { a.outbox = o }
}

// WithSchedule sets the scan interval and the wait after a failed scan.
func WithSchedule(interval, retryDelay time.Duration) Option {
	return func(a *Agent) {
		a.interval = interval
		if retryDelay > 0 {
			a.retryDelay = retryDelay
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.log = l.Named("agent") }
}

// New creates a stopped Agent.
func New(scanner Scanner, opts ...Option) *Agent {
	a := &Agent{
		scanner:    scanner,
		retryDelay: time.Minute,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start marks the agent running and launches the scheduler when an interval
// is configured. The first scheduled scan runs immediately.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.running = true

	a.log.Info("starting agent",
		zap.Duration("interval", a.interval),
		zap.Bool("reporting", a.reporter != nil),
		zap.Bool("outbox", a.outbox != nil),
	)
	if a.interval > 0 {
		go a.loop(ctx, a.done)
	} else {
		close(a.done)
	}
	return nil
}

// Stop cancels the scheduler, killing any in-flight scan it started, and
// waits for it to exit.
func (a *Agent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	a.log.Info("stopping agent")
	cancel()
	<-done
}

// Running reports whether Start has been called without a matching Stop.
func (a *Agent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// PerformScan scans with profile (empty for the default) and reports the
// result when a reporter is configured.
func (a *Agent) PerformScan(ctx context.Context, profile string) *scan.Result {
	res := a.scanner.PerformScan(ctx, scan.Request{Profile: profile})
	a.report(ctx, res)
	return res
}

// Scan runs a scan without reporting it.
func (a *Agent) Scan(ctx context.Context, req scan.Request) *scan.Result {
	return a.scanner.PerformScan(ctx, req)
}

func (a *Agent) report(ctx context.Context, res *scan.Result) {
	if a.reporter == nil {
		return
	}
	err := a.reporter.Submit(ctx, res)
	if err == nil {
		return
	}
	a.log.Error("failed to submit scan results", zap.String("scan_id", res.ScanID), zap.Error(err))
	if a.outbox == nil {
		return
	}

	payload, merr := json.Marshal(res)
	if merr != nil {
		a.log.Error("failed to encode result for outbox", zap.Error(merr))
		return
	}
	if qerr := a.outbox.Enqueue(res.ScanID, string(res.Status), payload, err); qerr != nil {
		a.log.Error("failed to queue result", zap.String("scan_id", res.ScanID), zap.Error(qerr))
		return
	}
	a.updateDepth()
}

// FlushOutbox resubmits queued results oldest first, stopping at the first
// delivery failure. It returns how many were delivered.
func (a *Agent) FlushOutbox(ctx context.Context) (int, error) {
	if a.outbox == nil || a.reporter == nil {
		return 0, nil
	}
	entries, err := a.outbox.Pending(0)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, e := range entries {
		if err := a.reporter.SubmitPayload(ctx, e.ScanID, e.Payload); err != nil {
			if merr := a.outbox.MarkAttempt(e.ID, err); merr != nil {
				a.log.Error("failed to record attempt", zap.String("scan_id", e.ScanID), zap.Error(merr))
			}
			a.updateDepth()
			return delivered, fmt.Errorf("resubmit %s: %w", e.ScanID, err)
		}
		if err := a.outbox.Delete(e.ID); err != nil {
			a.updateDepth()
			return delivered, err
		}
		delivered++
	}
	if delivered > 0 {
		a.log.Info("flushed outbox", zap.Int("delivered", delivered))
	}
	a.updateDepth()
	return delivered, nil
}

func (a *Agent) updateDepth() {
	if n, err := a.outbox.Count(); err == nil {
		metrics.SpoolDepth.Set(float64(n))
	}
}

func (a *Agent) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	a.log.Info("scheduled scanning started", zap.Duration("interval", a.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := a.FlushOutbox(ctx); err != nil {
			a.log.Warn("outbox flush incomplete", zap.Error(err))
		}

		res := a.PerformScan(ctx, "")
		wait := a.interval
		if res.Status == scan.StatusFailed {
			a.log.Error("scheduled scan failed", zap.String("scan_id", res.ScanID), zap.String("error", res.Error))
			wait = a.retryDelay
		}
		timer.Reset(wait)
	}
}
