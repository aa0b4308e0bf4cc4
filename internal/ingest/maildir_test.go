package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailvet/internal/config"
	"mailvet/internal/ingest"
	"mailvet/internal/logging"
	"mailvet/internal/services"
)

func maildirSourceFor(t *testing.T, root string, maxRecords int) ingest.Source {
	t.Helper()
	cfg := config.Default()
	cfg.Source.Kind = "maildir"
	cfg.Source.Path = root
	cfg.Source.MaxRecords = maxRecords
	source, err := ingest.NewSource(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	return source
}

func writeMessage(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write message: %v", err)
	}
}

func TestMaildirSourceReadsMessages(t *testing.T) {
	root := t.TempDir()
	writeMessage(t, root, "allen-p/inbox/1.", []byte(
		"Message-ID: <100.enron>\n"+
			"Date: Mon, 14 May 2001 16:39:00 -0700 (PDT)\n"+
			"From: phillip.allen@enron.com\n"+
			"To: tim.belden@enron.com\n"+
			"Subject: forecast\n"+
			"\n"+
			"please review the numbers\n"))
	writeMessage(t, root, "allen-p/sent/2.", []byte(
		"Message-ID: <101.enron>\n"+
			"From: phillip.allen@enron.com\n"+
			"To: john.lavorato@enron.com\n"+
			"Subject: re: forecast\n"+
			"\n"+
			"done\n"))

	rows, err := maildirSourceFor(t, root, 0).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	byID := map[string]bool{}
	for _, row := range rows {
		id, _ := row.Get("message_id")
		byID[id] = true
	}
	if !byID["<100.enron>"] || !byID["<101.enron>"] {
		t.Fatalf("missing expected message ids: %v", byID)
	}

	for _, row := range rows {
		if id, _ := row.Get("message_id"); id == "<100.enron>" {
			if from, _ := row.Get("from"); from != "phillip.allen@enron.com" {
				t.Fatalf("unexpected from: %q", from)
			}
			if date, _ := row.Get("date"); !strings.Contains(date, "14 May 2001") {
				t.Fatalf("unexpected date: %q", date)
			}
			if body, _ := row.Get("body"); !strings.Contains(body, "please review") {
				t.Fatalf("unexpected body: %q", body)
			}
		}
	}
}

func TestMaildirSourceDecodesLatin1Bodies(t *testing.T) {
	root := t.TempDir()
	content := []byte("Message-ID: <102.enron>\n" +
		"From: pierre@enron.com\n" +
		"Content-Type: text/plain; charset=iso-8859-1\n" +
		"\n" +
		"caf\xe9 meeting\n")
	writeMessage(t, root, "inbox/1.", content)

	rows, err := maildirSourceFor(t, root, 0).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	body, _ := rows[0].Get("body")
	if !strings.Contains(body, "café meeting") {
		t.Fatalf("expected decoded latin-1 body, got %q", body)
	}
}

func TestMaildirSourceDecodesQuotedPrintableBodies(t *testing.T) {
	root := t.TempDir()
	content := []byte("Message-ID: <106.enron>\n" +
		"From: pierre@enron.com\n" +
		"Subject: =?iso-8859-1?Q?caf=E9?=\n" +
		"Content-Type: text/plain; charset=iso-8859-1\n" +
		"Content-Transfer-Encoding: quoted-printable\n" +
		"\n" +
		"d=E9jeuner tomorrow=\n")
	writeMessage(t, root, "inbox/1.", content)

	rows, err := maildirSourceFor(t, root, 0).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if body, _ := rows[0].Get("body"); !strings.Contains(body, "déjeuner tomorrow") {
		t.Fatalf("expected decoded quoted-printable body, got %q", body)
	}
	if subject, _ := rows[0].Get("subject"); subject != "café" {
		t.Fatalf("expected decoded subject, got %q", subject)
	}
}

func TestMaildirSourceKeepsPlainTextFromMultipart(t *testing.T) {
	root := t.TempDir()
	content := []byte("Message-ID: <103.enron>\n" +
		"From: a@enron.com\n" +
		"Content-Type: multipart/alternative; boundary=\"XYZ\"\n" +
		"\n" +
		"--XYZ\n" +
		"Content-Type: text/plain; charset=utf-8\n" +
		"\n" +
		"plain part\n" +
		"--XYZ\n" +
		"Content-Type: text/html\n" +
		"\n" +
		"<p>html part</p>\n" +
		"--XYZ--\n")
	writeMessage(t, root, "inbox/1.", content)

	rows, err := maildirSourceFor(t, root, 0).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	body, _ := rows[0].Get("body")
	if !strings.Contains(body, "plain part") {
		t.Fatalf("expected plain part in body, got %q", body)
	}
	if strings.Contains(body, "html part") {
		t.Fatalf("html part must be ignored, got %q", body)
	}
}

func TestMaildirSourceSkipsUnparsableFiles(t *testing.T) {
	root := t.TempDir()
	writeMessage(t, root, "inbox/junk", []byte("this is not a mail message"))
	writeMessage(t, root, "inbox/good", []byte(
		"Message-ID: <104.enron>\nFrom: a@enron.com\n\nbody\n"))

	rows, err := maildirSourceFor(t, root, 0).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected unparsable file to be skipped, got %d rows", len(rows))
	}
}

func TestMaildirSourceIgnoresHiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeMessage(t, root, ".hidden/1.", []byte("Message-ID: <x>\n\nbody\n"))
	writeMessage(t, root, "inbox/.flag", []byte("Message-ID: <y>\n\nbody\n"))
	writeMessage(t, root, "inbox/1.", []byte(
		"Message-ID: <105.enron>\nFrom: a@enron.com\n\nbody\n"))

	rows, err := maildirSourceFor(t, root, 0).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected hidden entries to be ignored, got %d rows", len(rows))
	}
}

func TestMaildirSourceHonorsRecordCap(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1.", "2.", "3."} {
		writeMessage(t, root, "inbox/"+name, []byte(
			"Message-ID: <"+name+"enron>\nFrom: a@enron.com\n\nbody\n"))
	}

	rows, err := maildirSourceFor(t, root, 2).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected cap at 2 rows, got %d", len(rows))
	}
}

func TestMaildirSourceMissingRootIsRecordSourceError(t *testing.T) {
	source := maildirSourceFor(t, filepath.Join(t.TempDir(), "absent"), 0)
	_, err := source.Read(context.Background())
	if !errors.Is(err, services.ErrRecordSource) {
		t.Fatalf("expected record source error, got %v", err)
	}
}
