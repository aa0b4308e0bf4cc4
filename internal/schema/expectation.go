package schema

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"mailvet/internal/corpus"
)

// Kind identifies the expectation family a rule belongs to.
type Kind string

const (
	KindNotNull        Kind = "not_null"
	KindMatchesPattern Kind = "matches_pattern"
	KindUnique         Kind = "unique"
	KindAllowedValues  Kind = "allowed_values"
)

var allKinds = []Kind{
	KindNotNull,
	KindMatchesPattern,
	KindUnique,
	KindAllowedValues,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// Kinds returns every expectation kind in canonical order.
func Kinds() []Kind {
	kinds := make([]Kind, len(allKinds))
	copy(kinds, allKinds)
	return kinds
}

// ParseKind normalizes a raw kind string and reports whether it is known.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// Expectation is a single declared check against one record field. The
// variant types in this package are the complete set; the unexported method
// keeps the interface closed.
type Expectation interface {
	Name() string
	Field() corpus.Field
	Kind() Kind
	Critical() bool
	// Describe renders the acceptance rule for tables and summaries.
	Describe() string

	sealedExpectation()
}

// header carries the declaration shared by every variant.
type header struct {
	name     string
	field    corpus.Field
	critical bool
}

func (h header) Name() string { return h.name }

func (h header) Field() corpus.Field { return h.field }

func (h header) Critical() bool { return h.critical }

func (h header) sealedExpectation() {}

// NotNull requires the non-null share of a field to reach its threshold.
type NotNull struct {
	header
	threshold *big.Rat
}

func (NotNull) Kind() Kind { return KindNotNull }

// Threshold is the minimum acceptable non-null ratio.
func (e NotNull) Threshold() *big.Rat { return e.threshold }

func (e NotNull) Describe() string {
	return fmt.Sprintf("non-null ratio >= %s", ratString(e.threshold))
}

// MatchesPattern requires the share of non-null values matching a regular
// expression to reach its threshold. Null values stay out of the denominator.
type MatchesPattern struct {
	header
	pattern   *regexp.Regexp
	threshold *big.Rat
}

func (MatchesPattern) Kind() Kind { return KindMatchesPattern }

// Pattern is the compiled expression values are tested against.
func (e MatchesPattern) Pattern() *regexp.Regexp { return e.pattern }

// Threshold is the minimum acceptable match ratio over non-null values.
func (e MatchesPattern) Threshold() *big.Rat { return e.threshold }

func (e MatchesPattern) Describe() string {
	return fmt.Sprintf("match ratio >= %s for %s", ratString(e.threshold), e.pattern.String())
}

// Unique requires every non-null value of a field to appear exactly once.
type Unique struct {
	header
}

func (Unique) Kind() Kind { return KindUnique }

func (Unique) Describe() string { return "no duplicate non-null values" }

// AllowedValues requires the share of non-null values inside a fixed set to
// reach its threshold.
type AllowedValues struct {
	header
	values    map[string]struct{}
	threshold *big.Rat
}

func (AllowedValues) Kind() Kind { return KindAllowedValues }

// Values returns the allowed set in sorted order.
func (e AllowedValues) Values() []string {
	values := make([]string, 0, len(e.values))
	for value := range e.values {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// Allows reports whether a value belongs to the allowed set.
func (e AllowedValues) Allows(value string) bool {
	_, ok := e.values[value]
	return ok
}

// Threshold is the minimum acceptable membership ratio over non-null values.
func (e AllowedValues) Threshold() *big.Rat { return e.threshold }

func (e AllowedValues) Describe() string {
	return fmt.Sprintf("membership ratio >= %s in {%s}", ratString(e.threshold), strings.Join(e.Values(), ", "))
}

func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return strings.TrimRight(strings.TrimRight(r.FloatString(4), "0"), ".")
}
