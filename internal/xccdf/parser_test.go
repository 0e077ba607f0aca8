package xccdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildTestResult(outcomes ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>` + "\n")
	b.WriteString(`<TestResult xmlns="` + Namespace + `">`)
	for i, o := range outcomes {
		fmt.Fprintf(&b, `<rule-result idref="rule_%d"><result>%s</result></rule-result>`, i, o)
	}
	b.WriteString(`</TestResult>`)
	return b.String()
}

func TestParseCountsAndScore(t *testing.T) {
	outcomes := []string{
		"pass", "pass", "pass", "pass", "pass", "pass",
		"fail", "fail",
		"notapplicable",
		"notselected",
	}
	s, err := Parse(strings.NewReader(buildTestResult(outcomes...)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if s.Total != 9 {
		t.Errorf("expected total 9, got %d", s.Total)
	}
	if s.Passed != 6 || s.Failed != 2 || s.NotApplicable != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Score != 0.75 {
		t.Errorf("expected score 0.75, got %v", s.Score)
	}
	if len(s.Rules) != 10 {
		t.Errorf("expected 10 rule entries (notselected kept in list), got %d", len(s.Rules))
	}
}

func TestParseCountInvariant(t *testing.T) {
	outcomes := []string{"pass", "fail", "error", "notapplicable", "notselected", "informational", "notchecked", "fixed", ""}
	s, err := Parse(strings.NewReader(buildTestResult(outcomes...)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sum := s.Passed + s.Failed + s.Errored + s.NotApplicable + s.Unknown
	if s.Total != sum {
		t.Errorf("total %d != sum of categories %d", s.Total, sum)
	}
	if s.Unknown != 4 {
		t.Errorf("expected 4 unknown, got %d", s.Unknown)
	}
	if s.Score < 0 || s.Score > 1 {
		t.Errorf("score out of range: %v", s.Score)
	}
}

func TestParseScoreZeroWhenNothingApplicable(t *testing.T) {
	cases := map[string][]string{
		"empty":             nil,
		"all notapplicable": {"notapplicable", "notapplicable"},
		"all notselected":   {"notselected"},
	}
	for name, outcomes := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Parse(strings.NewReader(buildTestResult(outcomes...)))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if s.Score != 0 {
				t.Errorf("expected score 0, got %v", s.Score)
			}
		})
	}
}

func TestParseARFWithTitles(t *testing.T) {
	s, err := ParseFile(filepath.Join("testdata", "arf-sample.xml"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	want := []RuleOutcome{
		{RuleID: "xccdf_org.ssgproject.content_rule_package_aide_installed", Result: Fail, Title: "Install AIDE", Severity: "medium"},
		{RuleID: "xccdf_org.ssgproject.content_rule_sshd_disable_root_login", Result: Pass, Title: "Disable SSH Root Login", Severity: "high"},
		{RuleID: "xccdf_org.ssgproject.content_rule_partition_for_tmp", Result: NotApplicable, Severity: "low"},
		{RuleID: "xccdf_org.ssgproject.content_rule_grub2_password", Result: NotSelected, Severity: "high"},
	}
	if diff := cmp.Diff(want, s.Rules); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
	if s.Total != 3 || s.Passed != 1 || s.Failed != 1 || s.NotApplicable != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Score != 0.5 {
		t.Errorf("expected score 0.5, got %v", s.Score)
	}
}

func TestParsePrefersXCCDF12Result(t *testing.T) {
	doc := `<r xmlns:x="` + Namespace + `" xmlns:o="urn:other">
  <x:rule-result idref="a">
    <o:detail><o:result>fail</o:result></o:detail>
    <x:result>pass</x:result>
  </x:rule-result>
</r>`
	s, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Rules[0].Result != Pass {
		t.Errorf("expected xccdf 1.2 result pass, got %s", s.Rules[0].Result)
	}
}

func TestParseFallsBackToUnqualifiedResult(t *testing.T) {
	doc := `<TestResult><rule-result idref="a"><result> fail </result></rule-result><rule-result idref="b"/></TestResult>`
	s, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Rules[0].Result != Fail {
		t.Errorf("expected fail, got %s", s.Rules[0].Result)
	}
	if s.Rules[1].Result != Unknown {
		t.Errorf("expected unknown for missing result, got %s", s.Rules[1].Result)
	}
	if s.Total != 2 || s.Unknown != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
}

func TestParseMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"truncated": `<TestResult><rule-result idref="a"><result>pass</result>`,
		"mismatch":  `<a><b></a>`,
		"empty":     ``,
		"prolog":    `<?xml version="1.0"?>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestParseFileErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")
	_, err := ParseFile(missing)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Path != missing {
		t.Errorf("expected path %s, got %s", missing, pe.Path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected error to unwrap to fs.ErrNotExist")
	}

	bad := filepath.Join(t.TempDir(), "bad.xml")
	os.WriteFile(bad, []byte("<nope"), 0o644)
	_, err = ParseFile(bad)
	if !errors.As(err, &pe) || pe.Path != bad {
		t.Errorf("expected *ParseError with path %s, got %v", bad, err)
	}
}

func TestParseOutcome(t *testing.T) {
	tests := map[string]Outcome{
		"pass":          Pass,
		"fail":          Fail,
		"error":         Error,
		"notapplicable": NotApplicable,
		"notselected":   NotSelected,
		"informational": Unknown,
		"PASS":          Unknown,
	}
	for in, want := range tests {
		if got := ParseOutcome(in); got != want {
			t.Errorf("ParseOutcome(%q) = %s, want %s", in, got, want)
		}
	}
}
