// Package anomaly turns a validation report and batch statistics into a
// corpus verdict.
//
// Classification is deterministic and ordered: a failed critical expectation
// always yields a failing verdict; otherwise failed expectations and fired
// heuristic findings count against the degraded threshold; otherwise the
// corpus is healthy. Heuristics watch batch shape (date defect rate, thread
// fan-out, forward share) and can degrade a verdict but never fail one.
//
// Triggered rules keep suite declaration order so the same inputs always
// produce the same verdict, byte for byte.
package anomaly
