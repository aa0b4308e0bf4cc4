package corpus

import (
	"strings"
	"time"
)

// Field names a column of the canonical record schema.
type Field string

const (
	FieldID         Field = "id"
	FieldSender     Field = "sender"
	FieldRecipients Field = "recipients"
	FieldSubject    Field = "subject"
	FieldBody       Field = "body"
	FieldSentAt     Field = "sent_at"
	FieldThreadID   Field = "thread_id"
	FieldEmailType  Field = "email_type"
)

var allFields = []Field{
	FieldID,
	FieldSender,
	FieldRecipients,
	FieldSubject,
	FieldBody,
	FieldSentAt,
	FieldThreadID,
	FieldEmailType,
}

var fieldSet = func() map[Field]struct{} {
	set := make(map[Field]struct{}, len(allFields))
	for _, field := range allFields {
		set[field] = struct{}{}
	}
	return set
}()

// Fields returns the ordered list of schema fields.
func Fields() []Field {
	cp := make([]Field, len(allFields))
	copy(cp, allFields)
	return cp
}

// ParseField converts a string into a known Field.
func ParseField(value string) (Field, bool) {
	normalized := Field(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := fieldSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// EmailType classifies a message within its thread.
type EmailType string

const (
	TypeOriginal EmailType = "original"
	TypeReply    EmailType = "reply"
	TypeForward  EmailType = "forward"
)

// EmailTypes returns the closed set of classifications in declaration order.
func EmailTypes() []EmailType {
	return []EmailType{TypeOriginal, TypeReply, TypeForward}
}

// ParseDefect marks a field that was present in the source row but could not
// be parsed into its canonical form. The raw text is retained so validation
// counts the value as present-and-invalid rather than missing.
type ParseDefect struct {
	Field  Field
	Raw    string
	Reason string
}

// Record is one normalized email. SentAt stays zero when the source date was
// absent or unparsable; the latter case additionally carries a ParseDefect.
type Record struct {
	ID         string
	Sender     string
	Recipients []string
	Subject    string
	Body       string
	SentAt     time.Time
	ThreadID   string
	EmailType  EmailType

	defects map[Field]ParseDefect
}

// AddDefect records a parse failure for a field. Only the first defect per
// field is kept.
func (r *Record) AddDefect(field Field, raw, reason string) {
	if r.defects == nil {
		r.defects = make(map[Field]ParseDefect, 2)
	}
	if _, ok := r.defects[field]; ok {
		return
	}
	r.defects[field] = ParseDefect{Field: field, Raw: raw, Reason: reason}
}

// Defect returns the parse defect for a field if one was recorded.
func (r *Record) Defect(field Field) (ParseDefect, bool) {
	d, ok := r.defects[field]
	return d, ok
}

// Defects returns all recorded defects in field registry order.
func (r *Record) Defects() []ParseDefect {
	if len(r.defects) == 0 {
		return nil
	}
	out := make([]ParseDefect, 0, len(r.defects))
	for _, field := range allFields {
		if d, ok := r.defects[field]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Value returns the canonical string form of a field and whether the field is
// present. A field that failed to parse reports present with its raw text;
// empty strings and empty recipient lists are null.
func (r *Record) Value(field Field) (string, bool) {
	switch field {
	case FieldID:
		if r.ID != "" {
			return r.ID, true
		}
	case FieldSender:
		if r.Sender != "" {
			return r.Sender, true
		}
	case FieldRecipients:
		if len(r.Recipients) > 0 {
			return strings.Join(r.Recipients, ", "), true
		}
	case FieldSubject:
		if r.Subject != "" {
			return r.Subject, true
		}
	case FieldBody:
		if r.Body != "" {
			return r.Body, true
		}
	case FieldSentAt:
		if !r.SentAt.IsZero() {
			return r.SentAt.UTC().Format(time.RFC3339), true
		}
	case FieldThreadID:
		if r.ThreadID != "" {
			return r.ThreadID, true
		}
	case FieldEmailType:
		if r.EmailType != "" {
			return string(r.EmailType), true
		}
	}
	if d, ok := r.defects[field]; ok && strings.TrimSpace(d.Raw) != "" {
		return d.Raw, true
	}
	return "", false
}
