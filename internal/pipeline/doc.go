// Package pipeline orchestrates one corpus validation run end to end: read
// raw rows, normalize them into a batch, evaluate the expectation suite,
// classify the verdict, dispatch alerts, and persist the run.
//
// A run either produces a complete report plus verdict or fails with a
// configuration or record-source error before any result exists. Alert
// delivery and run persistence never fail a run; their errors are logged and
// swallowed so the produced report always wins.
package pipeline
