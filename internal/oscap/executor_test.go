package oscap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// mockCmd records calls and returns configured results.
type mockCmd struct {
	calls  []mockCall
	result mockResult
}

type mockCall struct {
	Name     string
	Args     []string
	Deadline bool
}

type mockResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (m *mockCmd) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	_, hasDeadline := ctx.Deadline()
	m.calls = append(m.calls, mockCall{Name: name, Args: args, Deadline: hasDeadline})
	r := m.result
	return []byte(r.Stdout), []byte(r.Stderr), r.ExitCode, r.Err
}

var testRequest = Request{
	Content:     "/content/ssg-ubuntu2204-ds.xml",
	Profile:     "xccdf_org.ssgproject.content_profile_cis",
	ResultsPath: "/results/results_1.xml",
	ReportPath:  "/results/report_1.html",
}

func TestExecutor_ArgumentShape(t *testing.T) {
	mock := &mockCmd{}
	e := NewExecutor(mock)

	if _, err := e.Execute(context.Background(), testRequest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	want := mockCall{
		Name: "oscap",
		Args: []string{
			"xccdf", "eval",
			"--profile", "xccdf_org.ssgproject.content_profile_cis",
			"--results", "/results/results_1.xml",
			"--report", "/results/report_1.html",
			"/content/ssg-ubuntu2204-ds.xml",
		},
	}
	if diff := cmp.Diff(want, mock.calls[0]); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutor_NonZeroExitIsNotError(t *testing.T) {
	mock := &mockCmd{result: mockResult{Stdout: "Title\tfoo\nResult\tfail", Stderr: "warn", ExitCode: 2}}
	e := NewExecutor(mock, WithBinary("/usr/bin/oscap"))

	out, err := e.Execute(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ExitCode != 2 {
		t.Errorf("expected exit_code=2, got %d", out.ExitCode)
	}
	if string(out.Stdout) != "Title\tfoo\nResult\tfail" || string(out.Stderr) != "warn" {
		t.Errorf("streams not captured: %q / %q", out.Stdout, out.Stderr)
	}
	if mock.calls[0].Name != "/usr/bin/oscap" {
		t.Errorf("expected configured binary, got %q", mock.calls[0].Name)
	}
}

func TestExecutor_ToolNotInstalled(t *testing.T) {
	mock := &mockCmd{result: mockResult{ExitCode: -1, Err: fmt.Errorf("%w: not on PATH", ErrToolNotInstalled)}}
	e := NewExecutor(mock)

	_, err := e.Execute(context.Background(), testRequest)
	if !errors.Is(err, ErrToolNotInstalled) {
		t.Fatalf("expected ErrToolNotInstalled, got %v", err)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	mock := &mockCmd{}
	if _, err := NewExecutor(mock).Execute(context.Background(), testRequest); err != nil {
		t.Fatal(err)
	}
	if mock.calls[0].Deadline {
		t.Error("expected no deadline without a timeout")
	}

	if _, err := NewExecutor(mock, WithTimeout(time.Minute)).Execute(context.Background(), testRequest); err != nil {
		t.Fatal(err)
	}
	if !mock.calls[1].Deadline {
		t.Error("expected a deadline with WithTimeout")
	}
}

func TestExecRunner_ExitCodes(t *testing.T) {
	r := &ExecRunner{}

	stdout, _, code, err := r.Run(context.Background(), "sh", "-c", "echo hi; exit 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
	if string(stdout) != "hi\n" {
		t.Errorf("expected stdout hi, got %q", stdout)
	}

	_, stderr, code, err := r.Run(context.Background(), "sh", "-c", "echo oops >&2")
	if err != nil || code != 0 {
		t.Fatalf("expected clean exit, got code=%d err=%v", code, err)
	}
	if string(stderr) != "oops\n" {
		t.Errorf("expected stderr oops, got %q", stderr)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{}

	_, _, _, err := r.Run(context.Background(), "scapagent-no-such-binary")
	if !errors.Is(err, ErrToolNotInstalled) {
		t.Errorf("expected ErrToolNotInstalled for PATH lookup, got %v", err)
	}

	_, _, _, err = r.Run(context.Background(), "/nonexistent/bin/oscap")
	if !errors.Is(err, ErrToolNotInstalled) {
		t.Errorf("expected ErrToolNotInstalled for absolute path, got %v", err)
	}
}

func TestExecRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, _, err := (&ExecRunner{}).Run(ctx, "sleep", "5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestExecutor_Available(t *testing.T) {
	if !NewExecutor(nil, WithBinary("sh")).Available() {
		t.Error("expected sh to be available")
	}
	if NewExecutor(nil, WithBinary("scapagent-no-such-binary")).Available() {
		t.Error("expected missing binary to be unavailable")
	}
}
