package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mailvet/internal/anomaly"
	"mailvet/internal/validate"
)

// Run is one persisted pipeline run. Report and verdict payloads are stored
// as JSON so the report command can replay them without recomputation.
type Run struct {
	ID             string
	Source         string
	DatasetHash    string
	Status         anomaly.Status
	TotalRecords   int
	DroppedRecords int
	StartedAt      time.Time
	FinishedAt     time.Time
	ReportJSON     string
	VerdictJSON    string
}

// Report decodes the stored validation report.
func (r *Run) Report() (*validate.Report, error) {
	var report validate.Report
	if err := json.Unmarshal([]byte(r.ReportJSON), &report); err != nil {
		return nil, fmt.Errorf("decode stored report: %w", err)
	}
	return &report, nil
}

// Verdict decodes the stored verdict.
func (r *Run) Verdict() (anomaly.Verdict, error) {
	var verdict anomaly.Verdict
	if err := json.Unmarshal([]byte(r.VerdictJSON), &verdict); err != nil {
		return anomaly.Verdict{}, fmt.Errorf("decode stored verdict: %w", err)
	}
	return verdict, nil
}

const runColumns = "id, source, dataset_hash, status, total_records, dropped_records, started_at, finished_at, report_json, verdict_json"

// storedTimeLayout pads fractional seconds so the TEXT columns sort
// chronologically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveRun inserts a finished run keyed by the report's run id.
func (s *Store) SaveRun(ctx context.Context, report *validate.Report, verdict anomaly.Verdict, startedAt time.Time) (*Run, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}
	id := strings.TrimSpace(report.RunID)
	if id == "" {
		return nil, errors.New("report carries no run id")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}

	finished := time.Now().UTC()
	if startedAt.IsZero() {
		startedAt = finished
	}

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		report.Source,
		report.DatasetHash,
		string(verdict.Status),
		report.TotalRecords,
		report.DroppedRecords,
		startedAt.UTC().Format(storedTimeLayout),
		finished.Format(storedTimeLayout),
		string(reportJSON),
		string(verdictJSON),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return s.RunByID(ctx, id)
}

// RunByID fetches a run by identifier. A missing run returns nil without error.
func (s *Store) RunByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// LatestRuns returns the most recent runs, newest first, optionally filtered
// by source. A non-positive limit falls back to 20.
func (s *Store) LatestRuns(ctx context.Context, source string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, 2)
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY finished_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRun returns the newest run, or nil when the store is empty.
func (s *Store) LatestRun(ctx context.Context, source string) (*Run, error) {
	runs, err := s.LatestRuns(ctx, source, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. A non-positive keep leaves the history untouched.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY finished_at DESC, id LIMIT ?
        )`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return removed, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          string
		source      sql.NullString
		datasetHash sql.NullString
		statusStr   string
		total       sql.NullInt64
		dropped     sql.NullInt64
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		reportJSON  sql.NullString
		verdictJSON sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&source,
		&datasetHash,
		&statusStr,
		&total,
		&dropped,
		&startedRaw,
		&finishedRaw,
		&reportJSON,
		&verdictJSON,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:          id,
		Source:      source.String,
		DatasetHash: datasetHash.String,
		Status:      anomaly.Status(statusStr),
		ReportJSON:  reportJSON.String,
		VerdictJSON: verdictJSON.String,
	}
	if total.Valid {
		run.TotalRecords = int(total.Int64)
	}
	if dropped.Valid {
		run.DroppedRecords = int(dropped.Int64)
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		run.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw.String); err == nil {
		run.FinishedAt = finished
	}
	return run, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
