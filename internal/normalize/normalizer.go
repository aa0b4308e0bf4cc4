package normalize

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/logging"
	"mailvet/internal/services"
)

var (
	forwardedPattern    = regexp.MustCompile(`(?i)-----\s*Forwarded Message\s*-----`)
	originalMsgPattern  = regexp.MustCompile(`(?i)-----\s*Original Message\s*-----`)
	threadPrefixPattern = regexp.MustCompile(`(?i)^(re|fw|fwd):\s*`)
)

// Normalizer turns raw rows into records under a configured date window.
type Normalizer struct {
	minDate   time.Time
	maxFuture time.Duration
	logger    *slog.Logger
}

// New builds a normalizer from the configured plausibility window.
func New(cfg *config.Config, logger *slog.Logger) (*Normalizer, error) {
	minDate, err := time.Parse("2006-01-02", cfg.Normalize.MinDate)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "normalize", "new",
			"normalize.min_date must be YYYY-MM-DD", err)
	}
	return &Normalizer{
		minDate:   minDate,
		maxFuture: time.Duration(cfg.Normalize.MaxFutureHours) * time.Hour,
		logger:    logging.NewComponentLogger(logger, "normalizer"),
	}, nil
}

// Normalize builds the batch for one run. Rows without an id or body are
// dropped and tallied; every other problem is recorded as a field defect on
// the record itself.
func (n *Normalizer) Normalize(rows []corpus.RawRow, source string) *corpus.Batch {
	batch := &corpus.Batch{Source: source}
	for i, row := range rows {
		record, drop := n.normalizeRow(row, i)
		if drop != nil {
			batch.Drop(*drop)
			continue
		}
		batch.Append(record)
	}

	stats := batch.Stats()
	defects := 0
	for _, count := range stats.FieldDefects {
		defects += count
	}
	n.logger.Info("batch normalized",
		logging.String("source", source),
		logging.Int("rows", len(rows)),
		logging.Int("records", batch.Len()),
		logging.Int("dropped", batch.DroppedCount),
		logging.Int("field_defects", defects),
	)
	return batch
}

func (n *Normalizer) normalizeRow(row corpus.RawRow, index int) (corpus.Record, *corpus.DroppedRecord) {
	id, _ := row.Get("message_id")
	if id == "" {
		return corpus.Record{}, &corpus.DroppedRecord{Index: index, Reason: "missing id"}
	}
	body, _ := row.Get("body")
	body = collapseWhitespace(body)
	if body == "" {
		return corpus.Record{}, &corpus.DroppedRecord{Index: index, ID: id, Reason: "empty body"}
	}

	rec := corpus.Record{ID: id, Body: body}
	rec.Sender, _ = row.Get("from")
	rec.Subject, _ = row.Get("subject")
	rec.Recipients = mergeRecipients(row)
	n.parseDate(&rec, row)
	if explicit, ok := row.Get("thread_id"); ok {
		rec.ThreadID = explicit
	} else {
		rec.ThreadID = threadKey(rec.Subject)
	}
	rec.EmailType = classify(rec.Body, rec.Subject)
	return rec, nil
}

var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func (n *Normalizer) parseDate(rec *corpus.Record, row corpus.RawRow) {
	raw, ok := row.Get("date")
	if !ok {
		return
	}
	cleaned := cleanDate(raw)

	var parsed time.Time
	var err error
	for _, layout := range dateLayouts {
		parsed, err = time.Parse(layout, cleaned)
		if err == nil {
			break
		}
	}
	if err != nil {
		rec.AddDefect(corpus.FieldSentAt, raw, "unparsable date")
		return
	}
	parsed = parsed.UTC()
	if parsed.Before(n.minDate) || parsed.After(time.Now().UTC().Add(n.maxFuture)) {
		rec.AddDefect(corpus.FieldSentAt, raw, "date outside plausible range")
		return
	}
	rec.SentAt = parsed
}

var (
	tzAbbrevPattern  = regexp.MustCompile(`\s\([A-Za-z]{3,4}\)$`)
	shortDayPattern  = regexp.MustCompile(`^(\w{3},\s)(\d)(\s)`)
	shortYearPattern = regexp.MustCompile(`(\s)(\d{1,2})(\s\d{2}:\d{2}:\d{2})`)
)

// cleanDate normalizes the quirks this corpus shows before parsing: trailing
// timezone abbreviations like " (PDT)", single-digit days, two-digit years.
func cleanDate(raw string) string {
	cleaned := tzAbbrevPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = shortDayPattern.ReplaceAllString(cleaned, "${1}0${2}${3}")
	return shortYearPattern.ReplaceAllStringFunc(cleaned, expandYear)
}

// expandYear widens a two-digit year, reading values below 50 as 2000s.
func expandYear(match string) string {
	parts := shortYearPattern.FindStringSubmatch(match)
	year := parts[2]
	if len(year) != 2 {
		return match
	}
	prefix := "19"
	if year < "50" {
		prefix = "20"
	}
	return parts[1] + prefix + year + parts[3]
}

// mergeRecipients folds to, cc, and bcc into one ordered list.
func mergeRecipients(row corpus.RawRow) []string {
	var recipients []string
	for _, column := range []string{"to", "cc", "bcc"} {
		value, ok := row.Get(column)
		if !ok {
			continue
		}
		recipients = append(recipients, splitAddresses(value)...)
	}
	return recipients
}

func splitAddresses(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
	var out []string
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

// collapseWhitespace flattens newlines, tabs, and runs of spaces so body
// markers match regardless of the source's wrapping.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// threadKey derives a conversation key from a subject by peeling reply and
// forward prefixes.
func threadKey(subject string) string {
	key := strings.TrimSpace(subject)
	for {
		stripped := strings.TrimSpace(threadPrefixPattern.ReplaceAllString(key, ""))
		if stripped == key {
			break
		}
		key = stripped
	}
	return strings.ToLower(key)
}

// classify tags a record as forward, reply, or original from its body
// markers and subject prefix. Forward markers win over reply markers.
func classify(body, subject string) corpus.EmailType {
	lower := strings.ToLower(strings.TrimSpace(subject))
	switch {
	case forwardedPattern.MatchString(body),
		strings.HasPrefix(lower, "fw:"),
		strings.HasPrefix(lower, "fwd:"):
		return corpus.TypeForward
	case originalMsgPattern.MatchString(body),
		strings.HasPrefix(lower, "re:"):
		return corpus.TypeReply
	default:
		return corpus.TypeOriginal
	}
}
