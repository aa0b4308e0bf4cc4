package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// corpusHeader is the canonical export column order tests write.
var corpusHeader = []string{"Message-ID", "Date", "From", "To", "Subject", "Body"}

// WriteCorpusCSV writes an email export with the canonical header row.
func WriteCorpusCSV(t testing.TB, path string, rows [][]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(corpusHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
}

// CleanRow returns one well-formed export row carrying the given message id.
// Every default expectation passes on it.
func CleanRow(id string) []string {
	return []string{
		"<" + id + ".enron>",
		"Mon, 14 May 2001 16:39:00 -0700 (PDT)",
		"alice@enron.com",
		"bob@enron.com, carol@enron.com",
		"q2 forecast",
		"please review the latest numbers and confirm",
	}
}
