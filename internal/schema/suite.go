package schema

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"mailvet/internal/config"
	"mailvet/internal/corpus"
	"mailvet/internal/services"
)

// Suite is an ordered expectation set. Declaration order is preserved end to
// end and drives report and verdict ordering.
type Suite struct {
	expectations []Expectation
}

// Load builds a Suite from declared rules, validating every declaration
// before evaluation can start. Any violation is a configuration error; no
// record is ever read against a partially valid suite.
func Load(rules []config.Rule) (*Suite, error) {
	if len(rules) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "schema", "load", "no expectation rules declared", nil)
	}
	suite := &Suite{expectations: make([]Expectation, 0, len(rules))}
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		expectation, err := buildExpectation(rule)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "schema", "load", fmt.Sprintf("rule %d", i+1), err)
		}
		name := expectation.Name()
		if _, dup := seen[name]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "schema", "load",
				fmt.Sprintf("rule %d: duplicate rule name %q", i+1, name), nil)
		}
		seen[name] = struct{}{}
		suite.expectations = append(suite.expectations, expectation)
	}
	return suite, nil
}

// Expectations returns the suite contents in declaration order.
func (s *Suite) Expectations() []Expectation {
	return s.expectations
}

// Len reports the number of declared expectations.
func (s *Suite) Len() int {
	return len(s.expectations)
}

// Names returns the expectation names in declaration order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.expectations))
	for i, expectation := range s.expectations {
		names[i] = expectation.Name()
	}
	return names
}

func buildExpectation(rule config.Rule) (Expectation, error) {
	field, ok := corpus.ParseField(rule.Field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", rule.Field)
	}
	kind, ok := ParseKind(rule.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", rule.Kind)
	}
	head := header{
		name:     ruleName(rule, field, kind),
		field:    field,
		critical: rule.Critical,
	}

	switch kind {
	case KindNotNull:
		threshold, err := ratioThreshold(rule.Threshold)
		if err != nil {
			return nil, err
		}
		return NotNull{header: head, threshold: threshold}, nil
	case KindMatchesPattern:
		threshold, err := ratioThreshold(rule.Threshold)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rule.Pattern) == "" {
			return nil, fmt.Errorf("%s: pattern must be set", head.name)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid pattern: %w", head.name, err)
		}
		return MatchesPattern{header: head, pattern: pattern, threshold: threshold}, nil
	case KindUnique:
		if rule.Threshold != 0 {
			return nil, fmt.Errorf("%s: uniqueness rules take no threshold", head.name)
		}
		return Unique{header: head}, nil
	case KindAllowedValues:
		threshold, err := ratioThreshold(rule.Threshold)
		if err != nil {
			return nil, err
		}
		if len(rule.Values) == 0 {
			return nil, fmt.Errorf("%s: allowed value set must not be empty", head.name)
		}
		values := make(map[string]struct{}, len(rule.Values))
		for _, value := range rule.Values {
			values[value] = struct{}{}
		}
		return AllowedValues{header: head, values: values, threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func ruleName(rule config.Rule, field corpus.Field, kind Kind) string {
	if name := strings.TrimSpace(rule.Name); name != "" {
		return name
	}
	return fmt.Sprintf("%s_%s", field, kind)
}

// ratioThreshold converts a declared threshold to an exact decimal rational.
// A zero threshold means the rule omitted it; the strictest reading (all
// eligible values must conform) applies then. The decimal string round-trips
// through big.Rat so 0.95 compares as exactly 95/100.
func ratioThreshold(value float64) (*big.Rat, error) {
	if value == 0 {
		return big.NewRat(1, 1), nil
	}
	if value < 0 || value > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %v", value)
	}
	rat, ok := new(big.Rat).SetString(strconv.FormatFloat(value, 'f', -1, 64))
	if !ok {
		return nil, fmt.Errorf("threshold %v is not a valid decimal", value)
	}
	return rat, nil
}
