package ingest

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"mailvet/internal/corpus"
	"mailvet/internal/logging"
	"mailvet/internal/services"
)

// maildirHeaders are the message headers carried into raw rows, keyed by the
// canonical column names the normalizer consumes.
var maildirHeaders = map[string]string{
	"Message-ID": "message_id",
	"Date":       "date",
	"From":       "from",
	"To":         "to",
	"Cc":         "cc",
	"Bcc":        "bcc",
	"Subject":    "subject",
}

type maildirSource struct {
	root       string
	maxRecords int
	logger     *slog.Logger
}

func newMaildirSource(root string, maxRecords int, logger *slog.Logger) *maildirSource {
	return &maildirSource{
		root:       root,
		maxRecords: maxRecords,
		logger:     logging.NewComponentLogger(logger, "ingest"),
	}
}

func (s *maildirSource) Name() string {
	return filepath.Base(s.root)
}

// Read walks the message tree, one file per row. Files that cannot be parsed
// as messages are skipped with a warning; files that cannot be read at all
// abort the run.
func (s *maildirSource) Read(ctx context.Context) ([]corpus.RawRow, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrRecordSource, "ingest", "open maildir", s.root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrRecordSource, "ingest", "open maildir",
			fmt.Sprintf("%s is not a directory", s.root), nil)
	}

	var rows []corpus.RawRow
	skipped := 0
	walkErr := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			if path != s.root && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		row, err := s.readMessage(path)
		if err != nil {
			return err
		}
		if row == nil {
			skipped++
			return nil
		}
		rows = append(rows, row)
		if s.maxRecords > 0 && len(rows) >= s.maxRecords {
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, services.Wrap(services.ErrRecordSource, "ingest", "walk maildir", s.root, walkErr)
	}

	s.logger.Info("source read",
		logging.String("source", s.Name()),
		logging.Int("rows", len(rows)),
		logging.Int("skipped", skipped),
	)
	return rows, nil
}

// readMessage parses one message file into a raw row. A nil row with nil
// error means the file was not a parsable message and should be skipped.
func (s *maildirSource) readMessage(path string) (corpus.RawRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	msg, err := mail.ReadMessage(bufio.NewReader(file))
	if err != nil {
		s.logger.Warn("skipping unparsable message",
			logging.String("path", path),
			logging.Error(err),
		)
		return nil, nil
	}

	row := make(corpus.RawRow, len(maildirHeaders)+1)
	for header, column := range maildirHeaders {
		row.Set(column, decodeHeader(msg.Header.Get(header)))
	}
	body := transferDecoded(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	row.Set("body", messageBody(msg.Header.Get("Content-Type"), body))
	return row, nil
}

var headerDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "latin-1", "latin1":
			return charmap.ISO8859_1.NewDecoder().Reader(input), nil
		case "windows-1252", "cp1252":
			return charmap.Windows1252.NewDecoder().Reader(input), nil
		}
		return nil, fmt.Errorf("unsupported charset %q", charset)
	},
}

// decodeHeader resolves RFC 2047 encoded words; undecodable headers keep
// their raw form.
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// transferDecoded unwraps the content-transfer-encoding of a body stream.
func transferDecoded(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// messageBody extracts the plain-text content of a message, descending into
// multipart containers and ignoring other part types.
func messageBody(contentType string, r io.Reader) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", nil
	}
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return ""
		}
		reader := multipart.NewReader(r, boundary)
		var parts []string
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			body := transferDecoded(part, part.Header.Get("Content-Transfer-Encoding"))
			if text := messageBody(part.Header.Get("Content-Type"), body); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	case mediaType == "text/plain":
		data, err := io.ReadAll(r)
		if err != nil {
			return ""
		}
		return decodeCharset(data, params["charset"])
	default:
		return ""
	}
}

// decodeCharset converts legacy single-byte encodings to UTF-8. Bodies in
// older corpora carry Latin-1 or Windows-1252 bytes, sometimes without
// declaring it.
func decodeCharset(data []byte, charset string) string {
	var decoder *charmap.Charmap
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "iso-8859-1", "latin-1", "latin1":
		decoder = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		decoder = charmap.Windows1252
	default:
		if utf8.Valid(data) {
			return string(data)
		}
		// Undeclared legacy bytes show up even in nominally ASCII mail.
		decoder = charmap.Windows1252
	}
	decoded, err := decoder.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
