package corpus_test

import (
	"testing"
	"time"

	"mailvet/internal/corpus"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		input string
		want  corpus.Field
		ok    bool
	}{
		{"id", corpus.FieldID, true},
		{" Sent_At ", corpus.FieldSentAt, true},
		{"RECIPIENTS", corpus.FieldRecipients, true},
		{"x_from", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := corpus.ParseField(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseField(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRecordValuePresence(t *testing.T) {
	sent := time.Date(2001, time.May, 14, 16, 39, 0, 0, time.UTC)
	rec := corpus.Record{
		ID:         "<100.JavaMail.evans@thyme>",
		Sender:     "phillip.allen@enron.com",
		Recipients: []string{"tim.belden@enron.com", "john.lavorato@enron.com"},
		Body:       "Here is our forecast.",
		SentAt:     sent,
		EmailType:  corpus.TypeOriginal,
	}

	tests := []struct {
		field   corpus.Field
		want    string
		present bool
	}{
		{corpus.FieldID, "<100.JavaMail.evans@thyme>", true},
		{corpus.FieldSender, "phillip.allen@enron.com", true},
		{corpus.FieldRecipients, "tim.belden@enron.com, john.lavorato@enron.com", true},
		{corpus.FieldSubject, "", false},
		{corpus.FieldBody, "Here is our forecast.", true},
		{corpus.FieldSentAt, "2001-05-14T16:39:00Z", true},
		{corpus.FieldThreadID, "", false},
		{corpus.FieldEmailType, "original", true},
	}
	for _, tc := range tests {
		got, present := rec.Value(tc.field)
		if present != tc.present || got != tc.want {
			t.Fatalf("Value(%s) = (%q, %v), want (%q, %v)", tc.field, got, present, tc.want, tc.present)
		}
	}
}

func TestRecordValueDefectCountsAsPresent(t *testing.T) {
	rec := corpus.Record{ID: "a", Body: "b"}
	rec.AddDefect(corpus.FieldSentAt, "Tue 32 Foo 2001", "unparsable date")

	got, present := rec.Value(corpus.FieldSentAt)
	if !present {
		t.Fatal("expected defective sent_at to report present")
	}
	if got != "Tue 32 Foo 2001" {
		t.Fatalf("expected raw defect value, got %q", got)
	}
}

func TestRecordKeepsFirstDefectPerField(t *testing.T) {
	rec := corpus.Record{}
	rec.AddDefect(corpus.FieldSentAt, "first", "unparsable date")
	rec.AddDefect(corpus.FieldSentAt, "second", "implausible date")

	d, ok := rec.Defect(corpus.FieldSentAt)
	if !ok {
		t.Fatal("expected a defect for sent_at")
	}
	if d.Raw != "first" {
		t.Fatalf("expected first defect to win, got %q", d.Raw)
	}
}

func TestRecordDefectsFollowFieldOrder(t *testing.T) {
	rec := corpus.Record{}
	rec.AddDefect(corpus.FieldThreadID, "x", "bad thread")
	rec.AddDefect(corpus.FieldSender, "y", "bad sender")
	rec.AddDefect(corpus.FieldSentAt, "z", "bad date")

	defects := rec.Defects()
	if len(defects) != 3 {
		t.Fatalf("expected 3 defects, got %d", len(defects))
	}
	wantOrder := []corpus.Field{corpus.FieldSender, corpus.FieldSentAt, corpus.FieldThreadID}
	for i, want := range wantOrder {
		if defects[i].Field != want {
			t.Fatalf("defect %d = %s, want %s", i, defects[i].Field, want)
		}
	}
}
