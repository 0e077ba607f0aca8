package scan

import "github.com/lucasnoah/scapagent/internal/xccdf"

// Reasons recorded in the note of a mock result.
const (
	ReasonNoContent = "No SCAP content available"
	ReasonNoTool    = "OpenSCAP not installed"
)

// MockDatastream is reported as the datastream of mock results.
const MockDatastream = "mock"

// MockSummary is the fixed summary returned when no real evaluation is
// possible. The rule list is illustrative and not counted.
func MockSummary() *xccdf.Summary {
	return &xccdf.Summary{
		Total:         100,
		Passed:        75,
		Failed:        20,
		Errored:       3,
		NotApplicable: 2,
		Score:         0.75,
		Rules: []xccdf.RuleOutcome{
			{RuleID: "mock_rule_1", Result: xccdf.Pass, Title: "Mock security rule 1"},
			{RuleID: "mock_rule_2", Result: xccdf.Fail, Title: "Mock security rule 2"},
			{RuleID: "mock_rule_3", Result: xccdf.Pass, Title: "Mock security rule 3"},
		},
	}
}

func (o *Orchestrator) mock(res *Result, reason string) {
	res.Status = StatusMock
	res.Datastream = MockDatastream
	res.Summary = MockSummary()
	res.Note = "Mock scan result - " + reason
}
