package drift

import (
	"math/big"
	"strings"

	"mailvet/internal/corpus"
	"mailvet/internal/schema"
	"mailvet/internal/validate"
)

// Change labels the movement of one expectation between two reports.
type Change string

const (
	ChangeSteady    Change = "steady"
	ChangeImproved  Change = "improved"
	ChangeRegressed Change = "regressed"
	ChangeAdded     Change = "added"
	ChangeRemoved   Change = "removed"
)

// Delta is the movement of one expectation between a previous and a current
// report. Before is the zero Observed for added rules, After for removed ones.
type Delta struct {
	Name         string            `json:"name"`
	Field        corpus.Field      `json:"field"`
	Kind         schema.Kind       `json:"kind"`
	Before       validate.Observed `json:"before"`
	After        validate.Observed `json:"after"`
	BeforePassed bool              `json:"before_passed"`
	AfterPassed  bool              `json:"after_passed"`
	Change       Change            `json:"change"`
}

// Movement renders the signed observed difference for ratio expectations.
// Boolean, added, and removed deltas have no numeric movement.
func (d Delta) Movement() string {
	if d.Change == ChangeAdded || d.Change == ChangeRemoved {
		return ""
	}
	if d.Before.IsBool() || d.After.IsBool() {
		return ""
	}
	diff := new(big.Rat).Sub(d.After.Ratio(), d.Before.Ratio())
	if diff.Sign() == 0 {
		return ""
	}
	text := ratDecimal(diff)
	if diff.Sign() > 0 {
		text = "+" + text
	}
	return text
}

// Compare aligns two reports by expectation name in current-report order and
// classifies each movement. Expectations that disappeared since the previous
// report are appended last, in previous-report order. Both reports stay
// untouched.
func Compare(prev, curr *validate.Report) []Delta {
	var prevResults, currResults []validate.Result
	if prev != nil {
		prevResults = prev.Results
	}
	if curr != nil {
		currResults = curr.Results
	}

	before := make(map[string]validate.Result, len(prevResults))
	for _, result := range prevResults {
		before[result.Name] = result
	}

	deltas := make([]Delta, 0, len(currResults))
	seen := make(map[string]struct{}, len(currResults))
	for _, result := range currResults {
		seen[result.Name] = struct{}{}
		old, ok := before[result.Name]
		if !ok {
			deltas = append(deltas, Delta{
				Name:        result.Name,
				Field:       result.Field,
				Kind:        result.Kind,
				After:       result.Observed,
				AfterPassed: result.Passed,
				Change:      ChangeAdded,
			})
			continue
		}
		deltas = append(deltas, Delta{
			Name:         result.Name,
			Field:        result.Field,
			Kind:         result.Kind,
			Before:       old.Observed,
			After:        result.Observed,
			BeforePassed: old.Passed,
			AfterPassed:  result.Passed,
			Change:       classify(old, result),
		})
	}

	for _, result := range prevResults {
		if _, ok := seen[result.Name]; ok {
			continue
		}
		deltas = append(deltas, Delta{
			Name:         result.Name,
			Field:        result.Field,
			Kind:         result.Kind,
			Before:       result.Observed,
			BeforePassed: result.Passed,
			Change:       ChangeRemoved,
		})
	}
	return deltas
}

// classify orders movement by pass flips first, then by the direction the
// observed statistic moved.
func classify(old, curr validate.Result) Change {
	switch {
	case old.Passed && !curr.Passed:
		return ChangeRegressed
	case !old.Passed && curr.Passed:
		return ChangeImproved
	}

	if old.Observed.IsBool() || curr.Observed.IsBool() {
		return ChangeSteady
	}
	switch curr.Observed.Ratio().Cmp(old.Observed.Ratio()) {
	case 1:
		return ChangeImproved
	case -1:
		return ChangeRegressed
	default:
		return ChangeSteady
	}
}

// Regressions counts deltas that moved in the bad direction.
func Regressions(deltas []Delta) int {
	count := 0
	for _, delta := range deltas {
		if delta.Change == ChangeRegressed {
			count++
		}
	}
	return count
}

func ratDecimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := strings.TrimRight(r.FloatString(6), "0")
	return strings.TrimRight(s, ".")
}
