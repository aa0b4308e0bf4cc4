// Package validate evaluates an expectation suite against a record batch and
// produces an immutable report.
//
// Each expectation kind has its own evaluator; every evaluator makes one pass
// over the records and measures an exact statistic: a matched/eligible
// rational for ratio kinds or a boolean for uniqueness. Thresholds compare
// inclusively, so an observed ratio equal to the declared threshold passes,
// and a batch with zero eligible records passes vacuously.
//
// Expectations may evaluate in parallel under a bounded worker count, but the
// report always lists results in suite declaration order and two evaluations
// of the same batch produce identical results. Cancellation discards all
// partial work; callers never see a half-built report.
package validate
