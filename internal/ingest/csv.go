package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"mailvet/internal/corpus"
	"mailvet/internal/logging"
	"mailvet/internal/services"
)

type csvSource struct {
	path       string
	maxRecords int
	logger     *slog.Logger
}

func newCSVSource(path string, maxRecords int, logger *slog.Logger) *csvSource {
	return &csvSource{
		path:       path,
		maxRecords: maxRecords,
		logger:     logging.NewComponentLogger(logger, "ingest"),
	}
}

func (s *csvSource) Name() string {
	return filepath.Base(s.path)
}

// Read loads the export header-first: the first line names the columns, every
// following line becomes one raw row. Short lines are tolerated; blank cells
// never enter a row.
func (s *csvSource) Read(ctx context.Context) ([]corpus.RawRow, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, services.Wrap(services.ErrRecordSource, "ingest", "open csv", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrRecordSource, "ingest", "read csv", "file has no header row", nil)
		}
		return nil, services.Wrap(services.ErrRecordSource, "ingest", "read csv header", s.path, err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = canonicalColumn(name)
	}

	var rows []corpus.RawRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrRecordSource, "ingest", "read csv row", s.path, err)
		}
		row := make(corpus.RawRow, len(columns))
		for i, cell := range line {
			if i >= len(columns) {
				break
			}
			row.Set(columns[i], cell)
		}
		rows = append(rows, row)
		if s.maxRecords > 0 && len(rows) >= s.maxRecords {
			s.logger.Info("record cap reached, truncating source",
				logging.Int("max_records", s.maxRecords),
			)
			break
		}
	}

	s.logger.Info("source read",
		logging.String("source", s.Name()),
		logging.Int("rows", len(rows)),
	)
	return rows, nil
}
