package xccdf

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strings"
)

var errNoRoot = errors.New("document has no root element")

// ParseFile opens path and summarises it. Any failure is a *ParseError.
func ParseFile(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Parse streams an XCCDF or ARF document and summarises every rule-result
// element, whatever its namespace or depth. Benchmark Rule titles found
// anywhere in the document are attached to matching results.
func Parse(r io.Reader) (*Summary, error) {
	d := xml.NewDecoder(r)
	// oscap writes UTF-8; tolerate other declared charsets by passing bytes through.
	d.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	summary := &Summary{}
	titles := make(map[string]string)
	var (
		sawRoot bool
		depth   int
		rule    *pendingRule
		ruleID  string
		ruleLvl int
	)

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			depth++
			switch {
			case t.Name.Local == "rule-result" && rule == nil:
				rule = &pendingRule{
					id:       attr(t, "idref"),
					severity: attr(t, "severity"),
					depth:    depth,
				}
			case t.Name.Local == "result" && rule != nil:
				var text string
				if err := d.DecodeElement(&text, &t); err != nil {
					return nil, &ParseError{Err: err}
				}
				depth--
				rule.offer(t.Name.Space, strings.TrimSpace(text))
			case t.Name.Local == "Rule":
				ruleID = attr(t, "id")
				ruleLvl = depth
			case t.Name.Local == "title" && ruleID != "" && depth == ruleLvl+1:
				var text string
				if err := d.DecodeElement(&text, &t); err != nil {
					return nil, &ParseError{Err: err}
				}
				depth--
				if _, ok := titles[ruleID]; !ok {
					titles[ruleID] = strings.TrimSpace(text)
				}
			}
		case xml.EndElement:
			if rule != nil && depth == rule.depth {
				summary.Add(rule.outcome())
				rule = nil
			}
			if ruleID != "" && depth == ruleLvl {
				ruleID = ""
			}
			depth--
		}
	}

	if !sawRoot {
		return nil, &ParseError{Err: errNoRoot}
	}

	for i := range summary.Rules {
		if title, ok := titles[summary.Rules[i].RuleID]; ok {
			summary.Rules[i].Title = title
		}
	}
	summary.Finalize()
	return summary, nil
}

// pendingRule collects result candidates while inside a rule-result.
type pendingRule struct {
	id       string
	severity string
	depth    int
	nsResult *string
	anyText  *string
}

func (p *pendingRule) offer(space, text string) {
	if space == Namespace && p.nsResult == nil {
		p.nsResult = &text
	}
	if p.anyText == nil {
		p.anyText = &text
	}
}

func (p *pendingRule) outcome() RuleOutcome {
	r := RuleOutcome{RuleID: p.id, Severity: p.severity, Result: Unknown}
	switch {
	case p.nsResult != nil:
		r.Result = ParseOutcome(*p.nsResult)
	case p.anyText != nil:
		r.Result = ParseOutcome(*p.anyText)
	}
	return r
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
