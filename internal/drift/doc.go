// Package drift compares two validation reports of the same corpus and
// describes how each expectation moved between them.
package drift
