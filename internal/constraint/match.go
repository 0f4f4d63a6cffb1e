package constraint

import (
	"fmt"
	"regexp"
	"strings"
)

// StringMatch describes how a single header or query value is matched.
// Present and Absent take precedence over the value rules.
type StringMatch struct {
	Name    string
	Exact   string
	Prefix  string
	Regex   string
	Present *bool
	Absent  *bool
}

// Header accepts requests whose header satisfies a StringMatch.
type Header struct {
	match StringMatch
	regex *regexp.Regexp
	stage int
}

// NewHeader creates a header constraint.
func NewHeader(match StringMatch, stage int) (*Header, error) {
	regex, err := compileMatch(match)
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", match.Name, err)
	}
	return &Header{match: match, regex: regex, stage: stage}, nil
}

// Accept implements Constraint.
func (h *Header) Accept(ctx *Context) bool {
	if ctx == nil || ctx.Request == nil {
		return false
	}
	// Header names are case-insensitive
	value := ctx.Request.Header.Get(h.match.Name)
	return evaluateMatch(h.match, h.regex, value, value != "")
}

// Stage implements Staged.
func (h *Header) Stage() int {
	return h.stage
}

// Query accepts requests whose query parameter satisfies a StringMatch.
type Query struct {
	match StringMatch
	regex *regexp.Regexp
	stage int
}

// NewQuery creates a query parameter constraint.
func NewQuery(match StringMatch, stage int) (*Query, error) {
	regex, err := compileMatch(match)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", match.Name, err)
	}
	return &Query{match: match, regex: regex, stage: stage}, nil
}

// Accept implements Constraint.
func (q *Query) Accept(ctx *Context) bool {
	if ctx == nil || ctx.Request == nil {
		return false
	}
	query := ctx.Request.URL.Query()
	return evaluateMatch(q.match, q.regex, query.Get(q.match.Name), query.Has(q.match.Name))
}

// Stage implements Staged.
func (q *Query) Stage() int {
	return q.stage
}

func compileMatch(match StringMatch) (*regexp.Regexp, error) {
	if match.Regex == "" {
		return nil, nil
	}
	return regexp.Compile(match.Regex)
}

func evaluateMatch(match StringMatch, regex *regexp.Regexp, value string, present bool) bool {
	if match.Present != nil {
		return *match.Present == present
	}
	if match.Absent != nil {
		return *match.Absent != present
	}

	if !present {
		return false
	}

	switch {
	case match.Exact != "":
		return value == match.Exact
	case match.Prefix != "":
		return strings.HasPrefix(value, match.Prefix)
	case regex != nil:
		return regex.MatchString(value)
	default:
		return true
	}
}
