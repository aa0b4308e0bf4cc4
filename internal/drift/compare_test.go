package drift_test

import (
	"testing"

	"mailvet/internal/corpus"
	"mailvet/internal/drift"
	"mailvet/internal/schema"
	"mailvet/internal/validate"
)

func ratioResult(name string, matched, eligible int64, passed bool) validate.Result {
	return validate.Result{
		Name:     name,
		Field:    corpus.FieldSentAt,
		Kind:     schema.KindNotNull,
		Observed: validate.ObservedRatio(matched, eligible),
		Matched:  matched,
		Eligible: eligible,
		Passed:   passed,
	}
}

func boolResult(name string, ok bool) validate.Result {
	return validate.Result{
		Name:     name,
		Field:    corpus.FieldID,
		Kind:     schema.KindUnique,
		Observed: validate.ObservedBool(ok),
		Passed:   ok,
	}
}

func report(results ...validate.Result) *validate.Report {
	return &validate.Report{RunID: "r", Source: "enron.csv", Results: results}
}

func TestCompareClassifiesMovement(t *testing.T) {
	prev := report(
		ratioResult("sent_at_not_null", 96, 100, true),
		ratioResult("sender_not_null", 80, 100, false),
		ratioResult("subject_not_null", 99, 100, true),
		boolResult("id_unique", true),
	)
	curr := report(
		ratioResult("sent_at_not_null", 90, 100, false),
		ratioResult("sender_not_null", 100, 100, true),
		ratioResult("subject_not_null", 99, 100, true),
		boolResult("id_unique", false),
	)

	deltas := drift.Compare(prev, curr)
	if len(deltas) != 4 {
		t.Fatalf("expected 4 deltas, got %d", len(deltas))
	}

	expected := map[string]drift.Change{
		"sent_at_not_null": drift.ChangeRegressed,
		"sender_not_null":  drift.ChangeImproved,
		"subject_not_null": drift.ChangeSteady,
		"id_unique":        drift.ChangeRegressed,
	}
	for _, delta := range deltas {
		if want := expected[delta.Name]; delta.Change != want {
			t.Fatalf("%s: got %s want %s", delta.Name, delta.Change, want)
		}
	}

	if got := drift.Regressions(deltas); got != 2 {
		t.Fatalf("expected 2 regressions, got %d", got)
	}
}

func TestCompareRatioDipWithoutFlipRegresses(t *testing.T) {
	prev := report(ratioResult("sent_at_not_null", 100, 100, true))
	curr := report(ratioResult("sent_at_not_null", 96, 100, true))

	deltas := drift.Compare(prev, curr)
	if deltas[0].Change != drift.ChangeRegressed {
		t.Fatalf("expected regressed, got %s", deltas[0].Change)
	}
	if got := deltas[0].Movement(); got != "-0.04" {
		t.Fatalf("unexpected movement: %q", got)
	}
}

func TestCompareMovementFormatting(t *testing.T) {
	prev := report(
		ratioResult("sent_at_not_null", 90, 100, true),
		boolResult("id_unique", true),
	)
	curr := report(
		ratioResult("sent_at_not_null", 95, 100, true),
		boolResult("id_unique", true),
	)

	deltas := drift.Compare(prev, curr)
	if got := deltas[0].Movement(); got != "+0.05" {
		t.Fatalf("unexpected ratio movement: %q", got)
	}
	if got := deltas[1].Movement(); got != "" {
		t.Fatalf("boolean movement must be empty, got %q", got)
	}
}

func TestCompareAddedAndRemovedRules(t *testing.T) {
	prev := report(
		ratioResult("sent_at_not_null", 96, 100, true),
		ratioResult("old_rule", 50, 100, false),
	)
	curr := report(
		ratioResult("sent_at_not_null", 96, 100, true),
		ratioResult("new_rule", 70, 100, true),
	)

	deltas := drift.Compare(prev, curr)
	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(deltas))
	}
	if deltas[0].Name != "sent_at_not_null" || deltas[0].Change != drift.ChangeSteady {
		t.Fatalf("unexpected first delta: %+v", deltas[0])
	}
	if deltas[1].Name != "new_rule" || deltas[1].Change != drift.ChangeAdded {
		t.Fatalf("unexpected added delta: %+v", deltas[1])
	}
	if deltas[2].Name != "old_rule" || deltas[2].Change != drift.ChangeRemoved {
		t.Fatalf("removed rules must trail, got %+v", deltas[2])
	}
	if got := deltas[1].Movement(); got != "" {
		t.Fatalf("added rule movement must be empty, got %q", got)
	}
}

func TestCompareNilReports(t *testing.T) {
	if deltas := drift.Compare(nil, nil); len(deltas) != 0 {
		t.Fatalf("expected no deltas, got %d", len(deltas))
	}

	curr := report(ratioResult("sent_at_not_null", 96, 100, true))
	deltas := drift.Compare(nil, curr)
	if len(deltas) != 1 || deltas[0].Change != drift.ChangeAdded {
		t.Fatalf("expected single added delta, got %#v", deltas)
	}
}
