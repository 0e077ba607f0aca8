package oscap

import (
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "oscap"

// Request describes one evaluation.
type Request struct {
	Content     string
	Profile     string
	ResultsPath string
	ReportPath  string
}

// Outcome is the captured result of the child process. ExitCode is not
// interpreted here; whether results were produced is decided by the caller.
type Outcome struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Executor builds the oscap command line and runs it.
type Executor struct {
	runner  CommandRunner
	binary  string
	timeout time.Duration
	log     *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithBinary overrides the oscap binary name or path.
func WithBinary(binary string) Option {
	return func(e *Executor) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithTimeout bounds each evaluation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.log = l.Named("oscap") }
}

// NewExecutor creates an Executor. A nil runner uses ExecRunner.
func NewExecutor(runner CommandRunner, opts ...Option) *Executor {
	if runner == nil {
		runner = &ExecRunner{}
	}
	e := &Executor{
		runner: runner,
		binary: DefaultBinary,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binary returns the configured binary.
func (e *Executor) Binary() string { return e.binary }

// Args returns the argument vector for req, excluding the binary.
func (e *Executor) Args(req Request) []string {
	return []string{
		"xccdf", "eval",
		"--profile", req.Profile,
		"--results", req.ResultsPath,
		"--report", req.ReportPath,
		req.Content,
	}
}

// Execute runs the evaluation. It returns ErrToolNotInstalled (wrapped) when
// the binary is missing, and a wrapped context error when ctx ends first.
func (e *Executor) Execute(ctx context.Context, req Request) (*Outcome, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	e.log.Info("starting evaluation",
		zap.String("profile", req.Profile),
		zap.String("datastream", req.Content),
		zap.String("results", req.ResultsPath),
	)

	stdout, stderr, code, err := e.runner.Run(ctx, e.binary, e.Args(req)...)
	if err != nil {
		return nil, err
	}

	e.log.Info("evaluation finished",
		zap.Int("exit_code", code),
		zap.Duration("duration", time.Since(start)),
	)
	return &Outcome{ExitCode: code, Stdout: stdout, Stderr: stderr}, nil
}

// Available reports whether the binary can be found.
func (e *Executor) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}
