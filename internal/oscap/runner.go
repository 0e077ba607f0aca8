package oscap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// ErrToolNotInstalled means the evaluation binary could not be located or launched.
var ErrToolNotInstalled = errors.New("oscap not installed")

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// ExecRunner implements CommandRunner with os/exec. A non-zero exit status is
// reported through exitCode, not err.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), -1, fmt.Errorf("exec %s: %w", name, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitCode(), nil
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, nil, -1, fmt.Errorf("%w: %v", ErrToolNotInstalled, err)
		}
		return stdoutBuf.Bytes(), stderrBuf.Bytes(), -1, fmt.Errorf("exec %s: %w", name, err)
	}
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}
