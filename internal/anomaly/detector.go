package anomaly

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/logging"
	"mailvet/internal/validate"
)

// nonTrivialBatch is the smallest batch the forward-share heuristic applies
// to; tiny batches legitimately contain no forwards.
const nonTrivialBatch = 100

// Finding is one fired heuristic.
type Finding struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// Verdict is the classification of one validation run.
type Verdict struct {
	Status         Status    `json:"status"`
	TriggeredRules []string  `json:"triggered_rules,omitempty"`
	Findings       []Finding `json:"findings,omitempty"`
	Summary        string    `json:"summary"`
}

// Detector classifies validation reports against configured tolerances.
type Detector struct {
	degradedThreshold int
	maxThreadParts    int
	minForwardShare   float64
	dateDefectRate    float64
	logger            *slog.Logger
}

// NewDetector builds a detector from configured tolerances.
func NewDetector(cfg *config.Config, logger *slog.Logger) *Detector {
	return &Detector{
		degradedThreshold: cfg.Detector.DegradedThreshold,
		maxThreadParts:    cfg.Detector.MaxThreadParts,
		minForwardShare:   cfg.Detector.MinForwardShare,
		dateDefectRate:    cfg.Detector.DateDefectRate,
		logger:            logging.NewComponentLogger(logger, "detector"),
	}
}

// Classify applies the verdict policy to a report and batch statistics.
// Failed critical expectations always win; failed non-critical expectations
// and fired findings then count against the degraded threshold. The same
// report and statistics always produce the same verdict.
func (d *Detector) Classify(report *validate.Report, stats corpus.Stats) Verdict {
	var triggered []string
	criticalFailed := false
	nonCriticalFailed := 0
	for _, result := range report.Results {
		if result.Passed {
			continue
		}
		triggered = append(triggered, result.Name)
		if result.Critical {
			criticalFailed = true
		} else {
			nonCriticalFailed++
		}
	}

	findings := d.findings(stats)

	status := StatusHealthy
	switch {
	case criticalFailed:
		status = StatusFailing
	case nonCriticalFailed+len(findings) >= d.degradedThreshold:
		status = StatusDegraded
	}

	verdict := Verdict{
		Status:         status,
		TriggeredRules: triggered,
		Findings:       findings,
	}
	verdict.Summary = d.summarize(report, stats, verdict)

	d.logger.Info("verdict classified",
		logging.String("status", string(status)),
		logging.Int("triggered_rules", len(triggered)),
		logging.Int("findings", len(findings)),
	)
	return verdict
}

// findings runs the shape heuristics in a fixed order so verdicts stay
// deterministic.
func (d *Detector) findings(stats corpus.Stats) []Finding {
	var findings []Finding
	if f, ok := d.dateDefects(stats); ok {
		findings = append(findings, f)
	}
	if f, ok := d.oversizedThreads(stats); ok {
		findings = append(findings, f)
	}
	if f, ok := d.lowForwardShare(stats); ok {
		findings = append(findings, f)
	}
	return findings
}

func (d *Detector) dateDefects(stats corpus.Stats) (Finding, bool) {
	if stats.TotalRecords == 0 {
		return Finding{}, false
	}
	defects := stats.FieldDefects[corpus.FieldSentAt]
	rate := float64(defects) / float64(stats.TotalRecords)
	if rate <= d.dateDefectRate {
		return Finding{}, false
	}
	return Finding{
		Name: "sent_at_defect_rate",
		Detail: fmt.Sprintf("%d of %d records carry unparsable or implausible dates (rate %.3f, tolerance %.3f)",
			defects, stats.TotalRecords, rate, d.dateDefectRate),
	}, true
}

func (d *Detector) oversizedThreads(stats corpus.Stats) (Finding, bool) {
	var oversized []string
	worst, worstParts := "", 0
	for thread, parts := range stats.ThreadParts {
		if parts <= d.maxThreadParts {
			continue
		}
		oversized = append(oversized, thread)
		if parts > worstParts || (parts == worstParts && thread < worst) {
			worst, worstParts = thread, parts
		}
	}
	if len(oversized) == 0 {
		return Finding{}, false
	}
	sort.Strings(oversized)
	return Finding{
		Name: "oversized_threads",
		Detail: fmt.Sprintf("%d threads exceed %d parts, largest %q with %d",
			len(oversized), d.maxThreadParts, worst, worstParts),
	}, true
}

func (d *Detector) lowForwardShare(stats corpus.Stats) (Finding, bool) {
	if stats.TotalRecords < nonTrivialBatch {
		return Finding{}, false
	}
	forwards := stats.TypeCounts[corpus.TypeForward]
	share := float64(forwards) / float64(stats.TotalRecords)
	if share >= d.minForwardShare {
		return Finding{}, false
	}
	return Finding{
		Name: "low_forward_share",
		Detail: fmt.Sprintf("only %d of %d records are forwards (share %.4f, floor %.4f)",
			forwards, stats.TotalRecords, share, d.minForwardShare),
	}, true
}

// summarize renders the human-readable verdict used by the CLI and as the
// alert body.
func (d *Detector) summarize(report *validate.Report, stats corpus.Stats, verdict Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "corpus %s: %d of %d expectations failed", verdict.Status,
		len(verdict.TriggeredRules), len(report.Results))
	fmt.Fprintf(&b, "\nrecords: %d admitted, %d dropped", report.TotalRecords, report.DroppedRecords)
	for _, result := range report.Failures() {
		fmt.Fprintf(&b, "\n- %s: observed %s", result.Name, result.Observed)
		if !result.Observed.IsBool() {
			fmt.Fprintf(&b, " (%d/%d)", result.Matched, result.Eligible)
		}
		if len(result.Samples) > 0 {
			fmt.Fprintf(&b, ", samples: %s", strings.Join(result.Samples, "; "))
		}
	}
	for _, finding := range verdict.Findings {
		fmt.Fprintf(&b, "\n- %s: %s", finding.Name, finding.Detail)
	}
	return b.String()
}
