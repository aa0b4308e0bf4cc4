package corpus_test

import (
	"testing"

	"mailvet/internal/corpus"
)

func TestRawRowTreatsBlankAsNull(t *testing.T) {
	row := corpus.RawRow{"subject": "  forecast  ", "body": "   "}
	if value, ok := row.Get("subject"); !ok || value != "forecast" {
		t.Fatalf("expected trimmed subject, got %q, %v", value, ok)
	}
	if _, ok := row.Get("body"); ok {
		t.Fatal("whitespace-only cell must read as null")
	}
	if _, ok := row.Get("missing"); ok {
		t.Fatal("missing cell must read as null")
	}
}

func TestRawRowSetSkipsBlank(t *testing.T) {
	row := corpus.RawRow{}
	row.Set("sender", " alice@enron.com ")
	row.Set("cc", "   ")
	if value, ok := row.Get("sender"); !ok || value != "alice@enron.com" {
		t.Fatalf("unexpected sender: %q, %v", value, ok)
	}
	if _, exists := row["cc"]; exists {
		t.Fatal("blank Set must not store a key")
	}
}
