package anomaly_test

import (
	"strings"
	"testing"

	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/logging"
	"mailvet/internal/validate"
)

func newDetector(t *testing.T, mutate func(*config.Config)) *anomaly.Detector {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	return anomaly.NewDetector(&cfg, logging.NewNop())
}

func passedResult(name string) validate.Result {
	return validate.Result{
		Name:     name,
		Observed: validate.ObservedRatio(10, 10),
		Matched:  10,
		Eligible: 10,
		Passed:   true,
	}
}

func failedResult(name string, critical bool) validate.Result {
	return validate.Result{
		Name:     name,
		Observed: validate.ObservedRatio(5, 10),
		Matched:  5,
		Eligible: 10,
		Passed:   false,
		Critical: critical,
	}
}

func reportOf(results ...validate.Result) *validate.Report {
	return &validate.Report{
		TotalRecords: 10,
		Results:      results,
	}
}

func cleanStats(total int) corpus.Stats {
	return corpus.Stats{
		TotalRecords: total,
		FieldDefects: map[corpus.Field]int{},
		TypeCounts:   map[corpus.EmailType]int{corpus.TypeForward: total / 10},
		ThreadParts:  map[string]int{},
	}
}

func TestClassifyHealthy(t *testing.T) {
	report := reportOf(passedResult("id_not_null"), passedResult("id_unique"))
	verdict := newDetector(t, nil).Classify(report, cleanStats(10))

	if verdict.Status != anomaly.StatusHealthy {
		t.Fatalf("expected healthy, got %s", verdict.Status)
	}
	if len(verdict.TriggeredRules) != 0 {
		t.Fatalf("expected no triggered rules, got %v", verdict.TriggeredRules)
	}
	if len(verdict.Findings) != 0 {
		t.Fatalf("expected no findings, got %v", verdict.Findings)
	}
}

func TestClassifyCriticalFailureIsFailing(t *testing.T) {
	report := reportOf(
		failedResult("id_not_null", true),
		passedResult("sender_not_null"),
	)
	detector := newDetector(t, func(c *config.Config) { c.Detector.DegradedThreshold = 5 })

	verdict := detector.Classify(report, cleanStats(10))
	if verdict.Status != anomaly.StatusFailing {
		t.Fatalf("critical failure must force failing, got %s", verdict.Status)
	}
	if len(verdict.TriggeredRules) != 1 || verdict.TriggeredRules[0] != "id_not_null" {
		t.Fatalf("unexpected triggered rules: %v", verdict.TriggeredRules)
	}
}

func TestClassifyNonCriticalCountsAgainstThreshold(t *testing.T) {
	report := reportOf(
		passedResult("id_not_null"),
		failedResult("subject_not_null", false),
	)

	verdict := newDetector(t, nil).Classify(report, cleanStats(10))
	if verdict.Status != anomaly.StatusDegraded {
		t.Fatalf("one failed non-critical with threshold 1 must degrade, got %s", verdict.Status)
	}

	relaxed := newDetector(t, func(c *config.Config) { c.Detector.DegradedThreshold = 2 })
	verdict = relaxed.Classify(report, cleanStats(10))
	if verdict.Status != anomaly.StatusHealthy {
		t.Fatalf("one failure under threshold 2 must stay healthy, got %s", verdict.Status)
	}
}

func TestClassifyTriggeredRulesKeepDeclarationOrder(t *testing.T) {
	report := reportOf(
		failedResult("id_unique", true),
		passedResult("body_not_null"),
		failedResult("sent_at_not_null", false),
		failedResult("subject_not_null", false),
	)

	verdict := newDetector(t, nil).Classify(report, cleanStats(10))
	if verdict.Status != anomaly.StatusFailing {
		t.Fatalf("expected failing, got %s", verdict.Status)
	}
	want := []string{"id_unique", "sent_at_not_null", "subject_not_null"}
	if len(verdict.TriggeredRules) != len(want) {
		t.Fatalf("unexpected triggered rules: %v", verdict.TriggeredRules)
	}
	for i := range want {
		if verdict.TriggeredRules[i] != want[i] {
			t.Fatalf("position %d: got %q want %q", i, verdict.TriggeredRules[i], want[i])
		}
	}
}

func TestClassifyHeuristicsDegradeButNeverFail(t *testing.T) {
	report := reportOf(passedResult("id_not_null"))
	stats := corpus.Stats{
		TotalRecords: 200,
		FieldDefects: map[corpus.Field]int{corpus.FieldSentAt: 30},
		TypeCounts:   map[corpus.EmailType]int{},
		ThreadParts:  map[string]int{"re: outage": 40},
	}

	verdict := newDetector(t, nil).Classify(report, stats)
	if verdict.Status != anomaly.StatusDegraded {
		t.Fatalf("fired heuristics must degrade, got %s", verdict.Status)
	}
	if len(verdict.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %d: %v", len(verdict.Findings), verdict.Findings)
	}
	if len(verdict.TriggeredRules) != 0 {
		t.Fatalf("heuristics must not appear in triggered rules: %v", verdict.TriggeredRules)
	}

	wantNames := []string{"sent_at_defect_rate", "oversized_threads", "low_forward_share"}
	for i, want := range wantNames {
		if verdict.Findings[i].Name != want {
			t.Fatalf("finding %d: got %q want %q", i, verdict.Findings[i].Name, want)
		}
	}
}

func TestForwardShareIgnoresSmallBatches(t *testing.T) {
	report := reportOf(passedResult("id_not_null"))
	stats := corpus.Stats{
		TotalRecords: 50,
		FieldDefects: map[corpus.Field]int{},
		TypeCounts:   map[corpus.EmailType]int{},
		ThreadParts:  map[string]int{},
	}

	verdict := newDetector(t, nil).Classify(report, stats)
	if verdict.Status != anomaly.StatusHealthy {
		t.Fatalf("small batches must skip the forward-share heuristic, got %s", verdict.Status)
	}
}

func TestDateDefectsAtToleranceDoNotFire(t *testing.T) {
	report := reportOf(passedResult("id_not_null"))
	stats := cleanStats(100)
	stats.FieldDefects[corpus.FieldSentAt] = 5

	verdict := newDetector(t, nil).Classify(report, stats)
	for _, finding := range verdict.Findings {
		if finding.Name == "sent_at_defect_rate" {
			t.Fatal("rate equal to tolerance must not fire")
		}
	}
}

func TestSummaryNamesTriggeredRulesAndFindings(t *testing.T) {
	failed := failedResult("sent_at_not_null", false)
	failed.Samples = []string{"m-1", "m-2"}
	report := reportOf(passedResult("id_not_null"), failed)
	stats := cleanStats(200)
	stats.FieldDefects[corpus.FieldSentAt] = 30

	verdict := newDetector(t, nil).Classify(report, stats)
	if !strings.Contains(verdict.Summary, "corpus degraded") {
		t.Fatalf("summary missing status: %s", verdict.Summary)
	}
	if !strings.Contains(verdict.Summary, "sent_at_not_null: observed 0.5 (5/10)") {
		t.Fatalf("summary missing triggered rule: %s", verdict.Summary)
	}
	if !strings.Contains(verdict.Summary, "samples: m-1; m-2") {
		t.Fatalf("summary missing samples: %s", verdict.Summary)
	}
	if !strings.Contains(verdict.Summary, "sent_at_defect_rate") {
		t.Fatalf("summary missing finding: %s", verdict.Summary)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	report := reportOf(failedResult("subject_not_null", false))
	stats := cleanStats(300)
	stats.ThreadParts["re: outage"] = 40
	stats.ThreadParts["fw: budget"] = 51

	detector := newDetector(t, nil)
	first := detector.Classify(report, stats)
	second := detector.Classify(report, stats)
	if first.Summary != second.Summary {
		t.Fatal("expected byte-identical summaries")
	}
	if !strings.Contains(first.Summary, `largest "fw: budget" with 51`) {
		t.Fatalf("expected worst thread in summary: %s", first.Summary)
	}
}
