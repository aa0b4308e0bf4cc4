package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/services"
)

// Source supplies the raw rows for one pipeline run.
type Source interface {
	// Name identifies the source in reports and logs.
	Name() string
	// Read loads every row. Read failures abort the run.
	Read(ctx context.Context) ([]corpus.RawRow, error)
}

// NewSource builds the configured source.
func NewSource(cfg *config.Config, logger *slog.Logger) (Source, error) {
	path := strings.TrimSpace(cfg.Source.Path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "new source", "source.path must be set", nil)
	}
	switch cfg.Source.Kind {
	case "csv":
		return newCSVSource(path, cfg.Source.MaxRecords, logger), nil
	case "maildir":
		return newMaildirSource(path, cfg.Source.MaxRecords, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "new source",
			fmt.Sprintf("unknown source kind %q", cfg.Source.Kind), nil)
	}
}

// headerAliases maps the column spellings seen in corpus exports to the
// canonical names the normalizer consumes.
var headerAliases = map[string]string{
	"message-id": "message_id",
	"messageid":  "message_id",
	"id":         "message_id",
	"date":       "date",
	"sent":       "date",
	"sent_at":    "date",
	"from":       "from",
	"sender":     "from",
	"to":         "to",
	"recipients": "to",
	"content":    "body",
	"text":       "body",
}

// canonicalColumn lowercases a header and resolves known aliases.
func canonicalColumn(header string) string {
	key := strings.ToLower(strings.TrimSpace(header))
	if canonical, ok := headerAliases[key]; ok {
		return canonical
	}
	return strings.ReplaceAll(key, "-", "_")
}
