package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// droppedSampleLimit bounds how many dropped-record examples a batch retains.
const droppedSampleLimit = 10

// DroppedRecord describes a source row excluded from the batch entirely,
// distinct from field-level parse defects.
type DroppedRecord struct {
	Index  int
	ID     string
	Reason string
}

// Batch is the immutable record set for one pipeline run.
type Batch struct {
	Source         string
	Records        []Record
	DroppedCount   int
	DroppedSamples []DroppedRecord
}

// Append adds a record to the batch.
func (b *Batch) Append(rec Record) {
	b.Records = append(b.Records, rec)
}

// Drop tallies an excluded row, keeping a bounded sample for diagnostics.
func (b *Batch) Drop(d DroppedRecord) {
	b.DroppedCount++
	if len(b.DroppedSamples) < droppedSampleLimit {
		b.DroppedSamples = append(b.DroppedSamples, d)
	}
}

// Len returns the number of records admitted to the batch.
func (b *Batch) Len() int {
	return len(b.Records)
}

// Hash computes an order-independent content hash identifying the batch.
// Per-record digests are sorted before folding so that shuffling source rows
// yields the same key.
func (b *Batch) Hash() string {
	digests := make([]string, 0, len(b.Records))
	for i := range b.Records {
		digests = append(digests, recordDigest(&b.Records[i]))
	}
	sort.Strings(digests)

	h := sha256.New()
	for _, d := range digests {
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func recordDigest(rec *Record) string {
	h := sha256.New()
	parts := []string{
		rec.ID,
		rec.Sender,
		strings.Join(rec.Recipients, ","),
		rec.Subject,
		rec.Body,
	}
	if !rec.SentAt.IsZero() {
		parts = append(parts, rec.SentAt.UTC().String())
	}
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stats aggregates the cross-field inputs the anomaly detector consumes.
type Stats struct {
	TotalRecords   int
	DroppedRecords int
	FieldDefects   map[Field]int
	TypeCounts     map[EmailType]int
	ThreadParts    map[string]int
}

// Stats derives batch aggregates in one pass over the records.
func (b *Batch) Stats() Stats {
	stats := Stats{
		TotalRecords:   len(b.Records),
		DroppedRecords: b.DroppedCount,
		FieldDefects:   make(map[Field]int),
		TypeCounts:     make(map[EmailType]int),
		ThreadParts:    make(map[string]int),
	}
	for i := range b.Records {
		rec := &b.Records[i]
		for _, d := range rec.Defects() {
			stats.FieldDefects[d.Field]++
		}
		if rec.EmailType != "" {
			stats.TypeCounts[rec.EmailType]++
		}
		if rec.ThreadID != "" {
			stats.ThreadParts[rec.ThreadID]++
		}
	}
	return stats
}
