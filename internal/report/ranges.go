// Package report projects family aggregates into report-ready views:
// completion buckets, grouped summaries, stage funnels and string tables.
// Serialization (CSV, JSON, HTML) is left to the caller.
package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/emission-rollup/internal/model"
)

// NoBucket labels a family that matched no range.
const NoBucket = "n/a"

// DefaultRangeSpecs are the completion buckets used by the dashboard.
var DefaultRangeSpecs = []string{"0-49", "50-99", "100"}

// PercentRange is a completion bucket. Non-exact ranges are half-open
// [Low, High). An exact range matches Low only; an exact 100 also requires
// the family to be completed.
type PercentRange struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Exact bool    `json:"exact"`
}

// ParseRange parses "a-b" as [a, b+1) and "n" as exactly n. Bounds are
// integer percentages between 0 and 100.
func ParseRange(spec string) (PercentRange, error) {
	spec = strings.TrimSpace(spec)
	lowStr, highStr, isSpan := strings.Cut(spec, "-")
	low, err := parsePercent(lowStr)
	if err != nil {
		return PercentRange{}, eris.Wrapf(err, "report: range %q", spec)
	}
	if !isSpan {
		return PercentRange{Label: spec, Low: float64(low), High: float64(low), Exact: true}, nil
	}
	high, err := parsePercent(highStr)
	if err != nil {
		return PercentRange{}, eris.Wrapf(err, "report: range %q", spec)
	}
	if high < low {
		return PercentRange{}, eris.Errorf("report: range %q has upper bound below lower bound", spec)
	}
	return PercentRange{Label: spec, Low: float64(low), High: float64(high + 1)}, nil
}

// ParseRanges parses specs in order. Order matters: the first matching
// range wins.
func ParseRanges(specs []string) ([]PercentRange, error) {
	if len(specs) == 0 {
		return nil, eris.New("report: no ranges given")
	}
	out := make([]PercentRange, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		r, err := ParseRange(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[r.Label]; dup {
			return nil, eris.Errorf("report: duplicate range %q", r.Label)
		}
		seen[r.Label] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// DefaultRanges returns the parsed DefaultRangeSpecs.
func DefaultRanges() []PercentRange {
	out, err := ParseRanges(DefaultRangeSpecs)
	if err != nil {
		panic(err)
	}
	return out
}

// Match reports whether f falls in r, using the un-rounded percent.
func (r PercentRange) Match(f model.FamilyAggregate) bool {
	pct := f.CompletionPercent
	if r.Exact {
		if r.Low == 100 {
			return f.Completed
		}
		return pct == r.Low
	}
	return pct >= r.Low && pct < r.High
}

func parsePercent(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, eris.Errorf("invalid percent %q", s)
	}
	if n < 0 || n > 100 {
		return 0, eris.Errorf("percent %d out of range [0,100]", n)
	}
	return n, nil
}
