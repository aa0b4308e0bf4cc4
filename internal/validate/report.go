package validate

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"mailvet/internal/corpus"
	"mailvet/internal/schema"
)

// Observed is the measured statistic for one expectation: an exact
// matched/eligible rational for ratio kinds or a boolean for uniqueness.
// The zero value is a 0/0 ratio, which reads as a vacuous pass.
type Observed struct {
	isBool   bool
	ok       bool
	matched  int64
	eligible int64
}

// ObservedRatio builds a ratio statistic from exact counts.
func ObservedRatio(matched, eligible int64) Observed {
	return Observed{matched: matched, eligible: eligible}
}

// ObservedBool builds a boolean statistic, used by uniqueness checks.
func ObservedBool(ok bool) Observed {
	return Observed{isBool: true, ok: ok}
}

// IsBool reports whether the statistic is a boolean rather than a ratio.
func (o Observed) IsBool() bool { return o.isBool }

// Bool returns the boolean statistic. Ratio statistics report false.
func (o Observed) Bool() bool { return o.isBool && o.ok }

// Ratio returns the statistic as an exact rational. Zero eligible records
// read as 1, the vacuous pass.
func (o Observed) Ratio() *big.Rat {
	if o.eligible == 0 {
		return big.NewRat(1, 1)
	}
	return big.NewRat(o.matched, o.eligible)
}

// passes applies the inclusive threshold rule. Boolean statistics ignore the
// threshold entirely.
func (o Observed) passes(threshold *big.Rat) bool {
	if o.isBool {
		return o.ok
	}
	if o.eligible == 0 {
		return true
	}
	return o.Ratio().Cmp(threshold) >= 0
}

func (o Observed) String() string {
	if o.isBool {
		return strconv.FormatBool(o.ok)
	}
	return ratDecimal(o.Ratio())
}

// MarshalJSON renders a JSON number for ratios and a JSON bool for
// uniqueness. Matched and eligible counts live on the Result, so the decimal
// form here is presentational.
func (o Observed) MarshalJSON() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Observed) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch text {
	case "true", "false":
		*o = ObservedBool(text == "true")
		return nil
	}
	rat, ok := new(big.Rat).SetString(text)
	if !ok {
		return fmt.Errorf("invalid observed value %q", text)
	}
	if !rat.Num().IsInt64() || !rat.Denom().IsInt64() {
		return fmt.Errorf("observed value %q out of range", text)
	}
	*o = ObservedRatio(rat.Num().Int64(), rat.Denom().Int64())
	return nil
}

// ratDecimal renders a rational as a JSON-safe decimal with up to six
// fractional digits and no trailing zeros.
func ratDecimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := strings.TrimRight(r.FloatString(6), "0")
	return strings.TrimRight(s, ".")
}

// Result is the outcome of one expectation over one batch.
type Result struct {
	Name     string       `json:"name"`
	Field    corpus.Field `json:"field"`
	Kind     schema.Kind  `json:"kind"`
	Observed Observed     `json:"observed"`
	Matched  int64        `json:"matched"`
	Eligible int64        `json:"eligible"`
	Passed   bool         `json:"passed"`
	Critical bool         `json:"critical"`
	Samples  []string     `json:"samples,omitempty"`
}

// Report is the complete outcome of evaluating a suite against a batch.
// Results preserve suite declaration order. Reports never change after
// creation; re-validation builds a new one.
type Report struct {
	RunID          string               `json:"run_id"`
	DatasetHash    string               `json:"dataset_hash"`
	Source         string               `json:"source"`
	GeneratedAt    time.Time            `json:"generated_at"`
	TotalRecords   int                  `json:"total_records"`
	DroppedRecords int                  `json:"dropped_records"`
	FieldDefects   map[corpus.Field]int `json:"field_defects,omitempty"`
	Results        []Result             `json:"results"`
}

// Failures returns the failed results in declaration order.
func (r *Report) Failures() []Result {
	var failed []Result
	for _, result := range r.Results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
