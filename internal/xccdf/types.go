package xccdf

import "fmt"

// Namespace is the XCCDF 1.2 namespace preferred when locating a rule's result.
const Namespace = "http://checklists.nist.gov/xccdf/1.2"

// Outcome is the evaluation result recorded for a single rule.
type Outcome string

const (
	Pass          Outcome = "pass"
	Fail          Outcome = "fail"
	Error         Outcome = "error"
	NotApplicable Outcome = "notapplicable"
	NotSelected   Outcome = "notselected"
	Unknown       Outcome = "unknown"
)

// ParseOutcome maps result text onto an Outcome. Anything unrecognised,
// including informational, notchecked and fixed, is Unknown.
func ParseOutcome(s string) Outcome {
	switch o := Outcome(s); o {
	case Pass, Fail, Error, NotApplicable, NotSelected:
		return o
	default:
		return Unknown
	}
}

// RuleOutcome is one rule-result entry in document order.
type RuleOutcome struct {
	RuleID   string  `json:"rule_id"`
	Result   Outcome `json:"result"`
	Title    string  `json:"title,omitempty"`
	Severity string  `json:"severity,omitempty"`
}

// Summary aggregates rule outcomes. Total counts every rule-result except
// notselected ones, so Total == Passed+Failed+Errored+NotApplicable+Unknown.
type Summary struct {
	Total         int           `json:"rules_total"`
	Passed        int           `json:"rules_passed"`
	Failed        int           `json:"rules_failed"`
	Errored       int           `json:"rules_error"`
	NotApplicable int           `json:"rules_notapplicable"`
	Unknown       int           `json:"rules_unknown"`
	Score         float64       `json:"compliance_score"`
	Rules         []RuleOutcome `json:"rule_results"`
}

// Add counts a rule outcome. Score is not updated; call Finalize once all
// rules are in.
func (s *Summary) Add(r RuleOutcome) {
	s.Rules = append(s.Rules, r)
	switch r.Result {
	case Pass:
		s.Passed++
	case Fail:
		s.Failed++
	case Error:
		s.Errored++
	case NotApplicable:
		s.NotApplicable++
	case NotSelected:
		return
	default:
		s.Unknown++
	}
	s.Total++
}

// Finalize computes Score = Passed / (Total - NotApplicable), or 0 when no
// rule was applicable.
func (s *Summary) Finalize() {
	s.Score = 0
	if applicable := s.Total - s.NotApplicable; applicable > 0 {
		s.Score = float64(s.Passed) / float64(applicable)
	}
}

// ParseError reports a results document that could not be read or decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse results: %v", e.Err)
	}
	return fmt.Sprintf("parse results %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
