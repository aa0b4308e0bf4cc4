// Package schema turns declared expectation rules into an ordered, validated
// Suite ready for evaluation.
//
// Expectations form a closed variant set: not-null ratio, pattern-match
// ratio, uniqueness, and allowed-values membership. Each variant is its own
// type behind the sealed Expectation interface, so evaluation can type-switch
// exhaustively and new kinds cannot appear outside this package.
//
// Load performs every semantic check up front (known fields, known kinds,
// thresholds inside [0,1], compilable patterns, non-empty value sets, unique
// rule names) and reports violations as configuration errors before a single
// record is read. Ratio thresholds are carried as exact decimal rationals, so
// an observed ratio equal to the declared threshold always passes.
package schema
