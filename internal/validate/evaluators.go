package validate

import (
	"fmt"
	"math/big"

	"mailvet/internal/corpus"
	"mailvet/internal/schema"
	"mailvet/internal/services"
)

// sampleLimit bounds example values carried on a result.
const sampleLimit = 10

// maxSampleLength keeps samples readable when a field holds long text.
const maxSampleLength = 80

// evaluator measures one expectation over a record slice. Implementations
// are pure; the same records always yield the same result.
type evaluator interface {
	evaluate(records []corpus.Record) Result
}

func newEvaluator(expectation schema.Expectation) (evaluator, error) {
	switch e := expectation.(type) {
	case schema.NotNull:
		return notNullEvaluator{expectation: e}, nil
	case schema.MatchesPattern:
		return matchesPatternEvaluator{expectation: e}, nil
	case schema.Unique:
		return uniqueEvaluator{expectation: e}, nil
	case schema.AllowedValues:
		return allowedValuesEvaluator{expectation: e}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "validate", "build evaluators",
			fmt.Sprintf("no evaluator for expectation %T", expectation), nil)
	}
}

type notNullEvaluator struct {
	expectation schema.NotNull
}

// evaluate counts present values against the whole batch. Samples name the
// records whose field is null.
func (ev notNullEvaluator) evaluate(records []corpus.Record) Result {
	field := ev.expectation.Field()
	var matched int64
	samples := make([]string, 0, sampleLimit)
	for i := range records {
		if _, present := records[i].Value(field); present {
			matched++
			continue
		}
		if len(samples) < sampleLimit {
			samples = append(samples, recordLabel(&records[i], i))
		}
	}
	observed := ObservedRatio(matched, int64(len(records)))
	return buildResult(ev.expectation, observed, ev.expectation.Threshold(), samples)
}

type matchesPatternEvaluator struct {
	expectation schema.MatchesPattern
}

// evaluate measures the match ratio over non-null values only; null values
// stay out of the denominator.
func (ev matchesPatternEvaluator) evaluate(records []corpus.Record) Result {
	field := ev.expectation.Field()
	pattern := ev.expectation.Pattern()
	var matched, eligible int64
	samples := make([]string, 0, sampleLimit)
	for i := range records {
		value, present := records[i].Value(field)
		if !present {
			continue
		}
		eligible++
		if pattern.MatchString(value) {
			matched++
			continue
		}
		if len(samples) < sampleLimit {
			samples = append(samples, truncateSample(value))
		}
	}
	observed := ObservedRatio(matched, eligible)
	return buildResult(ev.expectation, observed, ev.expectation.Threshold(), samples)
}

type allowedValuesEvaluator struct {
	expectation schema.AllowedValues
}

func (ev allowedValuesEvaluator) evaluate(records []corpus.Record) Result {
	field := ev.expectation.Field()
	var matched, eligible int64
	samples := make([]string, 0, sampleLimit)
	for i := range records {
		value, present := records[i].Value(field)
		if !present {
			continue
		}
		eligible++
		if ev.expectation.Allows(value) {
			matched++
			continue
		}
		if len(samples) < sampleLimit {
			samples = append(samples, truncateSample(value))
		}
	}
	observed := ObservedRatio(matched, eligible)
	return buildResult(ev.expectation, observed, ev.expectation.Threshold(), samples)
}

type uniqueEvaluator struct {
	expectation schema.Unique
}

// evaluate passes only when every non-null value appears exactly once.
// Matched counts the occurrences of non-duplicated values; samples carry up
// to ten duplicated values in first-seen order.
func (ev uniqueEvaluator) evaluate(records []corpus.Record) Result {
	field := ev.expectation.Field()
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	var eligible int64
	for i := range records {
		value, present := records[i].Value(field)
		if !present {
			continue
		}
		eligible++
		if counts[value] == 0 {
			order = append(order, value)
		}
		counts[value]++
	}
	var matched int64
	samples := make([]string, 0, sampleLimit)
	for _, value := range order {
		if counts[value] == 1 {
			matched++
			continue
		}
		if len(samples) < sampleLimit {
			samples = append(samples, truncateSample(value))
		}
	}
	result := buildResult(ev.expectation, ObservedBool(matched == eligible), nil, samples)
	result.Matched = matched
	result.Eligible = eligible
	return result
}

func buildResult(expectation schema.Expectation, observed Observed, threshold *big.Rat, samples []string) Result {
	if len(samples) == 0 {
		samples = nil
	}
	return Result{
		Name:     expectation.Name(),
		Field:    expectation.Field(),
		Kind:     expectation.Kind(),
		Observed: observed,
		Matched:  observed.matched,
		Eligible: observed.eligible,
		Passed:   observed.passes(threshold),
		Critical: expectation.Critical(),
		Samples:  samples,
	}
}

// recordLabel identifies a record in failure samples, preferring its id.
func recordLabel(rec *corpus.Record, index int) string {
	if rec.ID != "" {
		return rec.ID
	}
	return fmt.Sprintf("record %d", index)
}

// truncateSample cuts long values on a rune boundary so report samples stay
// readable.
func truncateSample(value string) string {
	count := 0
	for i := range value {
		count++
		if count > maxSampleLength {
			return value[:i] + "..."
		}
	}
	return value
}
