package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mailvet/internal/alerts"
	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/ingest"
	"mailvet/internal/logging"
	"mailvet/internal/normalize"
	"mailvet/internal/preflight"
	"mailvet/internal/runstore"
	"mailvet/internal/schema"
	"mailvet/internal/services"
	"mailvet/internal/validate"
)

// Runner owns the collaborators of one validation pipeline. Construct it per
// invocation; collaborators carry no state between runs.
type Runner struct {
	cfg        *config.Config
	suite      *schema.Suite
	source     ingest.Source
	normalizer *normalize.Normalizer
	engine     *validate.Engine
	detector   *anomaly.Detector
	dispatcher *alerts.Dispatcher
	store      *runstore.Store
	logger     *slog.Logger
}

// Outcome is the result of a completed run.
type Outcome struct {
	RunID     string
	Report    *validate.Report
	Verdict   anomaly.Verdict
	AlertSent bool
	Saved     bool
	StartedAt time.Time
	Duration  time.Duration
}

// New builds a runner and all collaborators from configuration. Expectation
// rules are compiled here so a bad suite fails before any record is read.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	suite, err := schema.Load(cfg.Expectations.Rules)
	if err != nil {
		return nil, err
	}

	source, err := ingest.NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	normalizer, err := normalize.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	runner := &Runner{
		cfg:        cfg,
		suite:      suite,
		source:     source,
		normalizer: normalizer,
		engine:     validate.NewEngine(cfg, logger),
		detector:   anomaly.NewDetector(cfg, logger),
		dispatcher: alerts.NewDispatcher(alerts.NewService(cfg), cfg, logger),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}

	if cfg.Storage.Enabled {
		store, err := runstore.Open(cfg)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "open run store", cfg.Storage.Path, err)
		}
		runner.store = store
	}
	return runner, nil
}

// Close releases the run history store.
func (r *Runner) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Store exposes the run history store, nil when storage is disabled.
func (r *Runner) Store() *runstore.Store {
	if r == nil {
		return nil
	}
	return r.store
}

// Run executes the pipeline once. The workspace lock serializes concurrent
// invocations; a held lock is a configuration error, not a wait.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	started := time.Now()

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "ensure directories", "", err)
	}
	if failed := preflight.Failed(preflight.Directories(r.cfg)); len(failed) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "preflight", failed[0].Detail, nil)
	}

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "acquire run lock", r.cfg.LockPath(), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "acquire run lock",
			"another run holds "+r.cfg.LockPath(), nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.String("source", r.source.Name()),
		logging.Int("expectations", r.suite.Len()),
	)

	var rows []corpus.RawRow
	if err := r.stage(ctx, "ingest", func(stageCtx context.Context) error {
		var readErr error
		rows, readErr = r.source.Read(stageCtx)
		return readErr
	}); err != nil {
		return nil, err
	}

	var batch *corpus.Batch
	if err := r.stage(ctx, "normalize", func(stageCtx context.Context) error {
		batch = r.normalizer.Normalize(rows, r.source.Name())
		return nil
	}); err != nil {
		return nil, err
	}
	ctx = services.WithDataset(ctx, batch.Hash())

	var report *validate.Report
	if err := r.stage(ctx, "validate", func(stageCtx context.Context) error {
		var evalErr error
		report, evalErr = r.engine.Evaluate(stageCtx, batch, r.suite)
		return evalErr
	}); err != nil {
		return nil, err
	}

	stats := batch.Stats()
	var verdict anomaly.Verdict
	if err := r.stage(ctx, "detect", func(stageCtx context.Context) error {
		verdict = r.detector.Classify(report, stats)
		return nil
	}); err != nil {
		return nil, err
	}

	// A report and verdict exist from here on. Nothing below may fail the run.
	alertSent := r.dispatcher.Dispatch(ctx, verdict, report)
	saved := r.persist(ctx, report, verdict, started)

	outcome := &Outcome{
		RunID:     runID,
		Report:    report,
		Verdict:   verdict,
		AlertSent: alertSent,
		Saved:     saved,
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
	}
	logger.Info("run completed",
		logging.String("status", string(verdict.Status)),
		logging.Int("records", report.TotalRecords),
		logging.Int("dropped", report.DroppedRecords),
		logging.Bool("alert_sent", alertSent),
		logging.Bool("saved", saved),
		logging.Duration("run_duration", outcome.Duration),
	)
	return outcome, nil
}

// stage runs one pipeline phase with stage-tagged logging. Errors pass
// through untouched; the collaborators wrap their own.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)

	start := time.Now()
	logger.Debug("stage started")
	if err := fn(stageCtx); err != nil {
		logger.Error("stage failed",
			logging.Error(err),
			logging.String("kind", services.Kind(err)),
			logging.Duration("stage_duration", time.Since(start)),
		)
		return err
	}
	logger.Debug("stage completed", logging.Duration("stage_duration", time.Since(start)))
	return nil
}

// persist saves the run and prunes history. Failures are logged and
// swallowed; the computed report must survive a broken store.
func (r *Runner) persist(ctx context.Context, report *validate.Report, verdict anomaly.Verdict, started time.Time) bool {
	if r.store == nil {
		return false
	}
	logger := logging.WithContext(ctx, r.logger)

	if _, err := r.store.SaveRun(ctx, report, verdict, started); err != nil {
		logger.Error("run save failed; report remains available in this invocation", logging.Error(err))
		return false
	}
	removed, err := r.store.Prune(ctx, r.cfg.Storage.KeepRuns)
	if err != nil {
		logger.Warn("run history prune failed", logging.Error(err))
	} else if removed > 0 {
		logger.Debug("run history pruned", logging.Int64("removed", removed))
	}
	return true
}
