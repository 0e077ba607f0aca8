package scan

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lucasnoah/scapagent/internal/oscap"
	"github.com/lucasnoah/scapagent/internal/sysinfo"
	"github.com/lucasnoah/scapagent/internal/xccdf"
)

// Status is the terminal state of a scan.
type Status string

const (
	StatusCompleted          Status = "completed"
	StatusCompletedNoResults Status = "completed_no_results"
	StatusFailed             Status = "failed"
	StatusMock               Status = "mock_scan"
)

// Request asks for one scan. An empty Profile means the configured default;
// an empty Datastream means the OS-derived default.
type Request struct {
	Profile    string
	Datastream string
}

// Result is the envelope produced by every scan. It is never modified after
// PerformScan returns.
type Result struct {
	ScanID      string
	Timestamp   time.Time
	Profile     string
	Datastream  string
	SystemInfo  sysinfo.Info
	Status      Status
	Outcome     *oscap.Outcome
	Summary     *xccdf.Summary
	ResultsFile string
	ReportFile  string
	Error       string
	Note        string
}

// wireResult is the flat JSON shape shared by the HTTP API and the collector.
type wireResult struct {
	ScanID      string       `json:"scan_id"`
	Timestamp   time.Time    `json:"timestamp"`
	Profile     string       `json:"profile"`
	Datastream  string       `json:"datastream,omitempty"`
	SystemInfo  sysinfo.Info `json:"system_info"`
	Status      Status       `json:"status"`
	ExitCode    *int         `json:"exit_code,omitempty"`
	Stdout      *string      `json:"stdout,omitempty"`
	Stderr      *string      `json:"stderr,omitempty"`
	ResultsFile string       `json:"results_file,omitempty"`
	ReportFile  string       `json:"report_file,omitempty"`
	*xccdf.Summary
	Error string `json:"error,omitempty"`
	Note  string `json:"note,omitempty"`
}

// MarshalJSON flattens the process outcome and summary into the envelope.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{
		ScanID:      r.ScanID,
		Timestamp:   r.Timestamp,
		Profile:     r.Profile,
		Datastream:  r.Datastream,
		SystemInfo:  r.SystemInfo,
		Status:      r.Status,
		ResultsFile: r.ResultsFile,
		ReportFile:  r.ReportFile,
		Summary:     r.Summary,
		Error:       r.Error,
		Note:        r.Note,
	}
	if r.Outcome != nil {
		code := r.Outcome.ExitCode
		stdout := strings.ToValidUTF8(string(r.Outcome.Stdout), "\uFFFD")
		stderr := strings.ToValidUTF8(string(r.Outcome.Stderr), "\uFFFD")
		w.ExitCode, w.Stdout, w.Stderr = &code, &stdout, &stderr
	}
	return json.Marshal(w)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{
		ScanID:      w.ScanID,
		Timestamp:   w.Timestamp,
		Profile:     w.Profile,
		Datastream:  w.Datastream,
		SystemInfo:  w.SystemInfo,
		Status:      w.Status,
		Summary:     w.Summary,
		ResultsFile: w.ResultsFile,
		ReportFile:  w.ReportFile,
		Error:       w.Error,
		Note:        w.Note,
	}
	if w.ExitCode != nil {
		r.Outcome = &oscap.Outcome{ExitCode: *w.ExitCode}
		if w.Stdout != nil {
			r.Outcome.Stdout = []byte(*w.Stdout)
		}
		if w.Stderr != nil {
			r.Outcome.Stderr = []byte(*w.Stderr)
		}
	}
	return nil
}
