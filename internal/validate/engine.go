package validate

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/logging"
	"mailvet/internal/schema"
	"mailvet/internal/services"
)

// Engine evaluates expectation suites against record batches.
type Engine struct {
	workers int
	logger  *slog.Logger
}

// NewEngine builds an engine honoring the configured worker bound. Zero
// workers means one per CPU.
func NewEngine(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		workers: cfg.Engine.Workers,
		logger:  logging.NewComponentLogger(logger, "validator"),
	}
}

// Evaluate runs every expectation in the suite against the batch and
// assembles the report in declaration order. Expectations run concurrently
// under the worker bound. When ctx is canceled mid-run, all partial work is
// discarded and ctx.Err() returned; a non-nil report is always complete.
func (e *Engine) Evaluate(ctx context.Context, batch *corpus.Batch, suite *schema.Suite) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	expectations := suite.Expectations()
	evaluators := make([]evaluator, len(expectations))
	for i, expectation := range expectations {
		ev, err := newEvaluator(expectation)
		if err != nil {
			return nil, err
		}
		evaluators[i] = ev
	}

	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(evaluators) {
		workers = len(evaluators)
	}

	results := make([]Result, len(evaluators))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
dispatch:
	for i := range evaluators {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = evaluators[i].evaluate(batch.Records)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		e.logger.Warn("evaluation canceled, discarding partial results",
			logging.String("source", batch.Source),
			logging.Error(err),
		)
		return nil, err
	}

	failed := 0
	for _, result := range results {
		if !result.Passed {
			failed++
		}
		e.logger.Debug("expectation evaluated",
			logging.String(logging.FieldExpectation, result.Name),
			logging.String("observed", result.Observed.String()),
			logging.Bool("passed", result.Passed),
		)
	}

	runID, _ := services.RunIDFromContext(ctx)
	stats := batch.Stats()
	report := &Report{
		RunID:          runID,
		DatasetHash:    batch.Hash(),
		Source:         batch.Source,
		GeneratedAt:    time.Now().UTC(),
		TotalRecords:   batch.Len(),
		DroppedRecords: batch.DroppedCount,
		FieldDefects:   stats.FieldDefects,
		Results:        results,
	}

	e.logger.Info("suite evaluated",
		logging.Int("expectations", len(results)),
		logging.Int("failed", failed),
		logging.Int("records", report.TotalRecords),
		logging.Duration("duration", time.Since(start)),
	)
	return report, nil
}
