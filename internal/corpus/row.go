package corpus

import "strings"

// RawRow is one source row before normalization, keyed by canonical column
// name. Missing and blank cells both read as null.
type RawRow map[string]string

// Get returns a trimmed cell value and whether the cell holds one.
func (r RawRow) Get(key string) (string, bool) {
	value, ok := r[key]
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Set stores a cell value, dropping blank values entirely.
func (r RawRow) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	r[key] = value
}
