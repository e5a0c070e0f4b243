package workflow

import (
	"context"
	"time"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

// execChoice implements spec §4.4.3: the first matching rule's Next
// wins; failing that, Default; failing that, States.NoChoiceMatched.
func execChoice(_ context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, _ *Runtime) (kindResult, error) {
	for _, rule := range def.Choices {
		matched, err := evalRule(rule, shapedInput, ec)
		if err != nil {
			return kindResult{}, err
		}
		if matched {
			return kindResult{HasOverride: true, NextOverride: rule.Next}, nil
		}
	}
	if def.Default != "" {
		return kindResult{HasOverride: true, NextOverride: def.Default}, nil
	}
	return kindResult{}, &EngineError{Message: "no choice rule matched and no Default set", Code: CodeNoChoiceMatched, StateName: ec.CurrentState}
}

// evalRule evaluates one ChoiceRule against data, short-circuiting And/Or.
func evalRule(rule ChoiceRule, data value.Value, ec *ExecutionContext) (bool, error) {
	if len(rule.And) > 0 {
		for _, sub := range rule.And {
			ok, err := evalRule(sub, data, ec)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	if len(rule.Or) > 0 {
		for _, sub := range rule.Or {
			ok, err := evalRule(sub, data, ec)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	if rule.Not != nil {
		ok, err := evalRule(*rule.Not, data, ec)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	val, err := path.Evaluate(rule.Variable, data, ec.View())
	if err != nil {
		return false, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}
	return evalComparator(rule, val, data, ec)
}

func evalComparator(rule ChoiceRule, val value.Value, data value.Value, ec *ExecutionContext) (bool, error) {
	switch {
	case rule.StringEquals != nil:
		s, ok := value.AsString(val)
		return ok && s == *rule.StringEquals, nil
	case rule.StringEqualsPath != "":
		other, err := path.Evaluate(rule.StringEqualsPath, data, ec.View())
		if err != nil {
			return false, err
		}
		s, ok1 := value.AsString(val)
		o, ok2 := value.AsString(other)
		return ok1 && ok2 && s == o, nil
	case rule.StringLessThan != nil:
		s, ok := value.AsString(val)
		return ok && s < *rule.StringLessThan, nil
	case rule.StringLessThanEquals != nil:
		s, ok := value.AsString(val)
		return ok && s <= *rule.StringLessThanEquals, nil
	case rule.StringGreaterThan != nil:
		s, ok := value.AsString(val)
		return ok && s > *rule.StringGreaterThan, nil
	case rule.StringGreaterThanEquals != nil:
		s, ok := value.AsString(val)
		return ok && s >= *rule.StringGreaterThanEquals, nil
	case rule.StringMatches != nil:
		s, ok := value.AsString(val)
		return ok && matchGlob(*rule.StringMatches, s), nil

	case rule.NumericEquals != nil:
		n, ok := value.AsNumber(val)
		return ok && n == *rule.NumericEquals, nil
	case rule.NumericLessThan != nil:
		n, ok := value.AsNumber(val)
		return ok && n < *rule.NumericLessThan, nil
	case rule.NumericLessThanEquals != nil:
		n, ok := value.AsNumber(val)
		return ok && n <= *rule.NumericLessThanEquals, nil
	case rule.NumericGreaterThan != nil:
		n, ok := value.AsNumber(val)
		return ok && n > *rule.NumericGreaterThan, nil
	case rule.NumericGreaterThanEquals != nil:
		n, ok := value.AsNumber(val)
		return ok && n >= *rule.NumericGreaterThanEquals, nil

	case rule.BooleanEquals != nil:
		b, ok := value.AsBool(val)
		return ok && b == *rule.BooleanEquals, nil

	case rule.TimestampEquals != nil:
		return compareTimestamp(val, *rule.TimestampEquals, 0)
	case rule.TimestampLessThan != nil:
		return compareTimestamp(val, *rule.TimestampLessThan, -1)
	case rule.TimestampGreaterThan != nil:
		return compareTimestamp(val, *rule.TimestampGreaterThan, 1)

	case rule.IsNull != nil:
		return value.IsNull(val) == *rule.IsNull, nil
	case rule.IsPresent != nil:
		return (val != nil) == *rule.IsPresent, nil
	case rule.IsString != nil:
		_, ok := value.AsString(val)
		return ok == *rule.IsString, nil
	case rule.IsNumeric != nil:
		_, ok := value.AsNumber(val)
		return ok == *rule.IsNumeric, nil
	case rule.IsBoolean != nil:
		_, ok := value.AsBool(val)
		return ok == *rule.IsBoolean, nil
	case rule.IsTimestamp != nil:
		s, ok := value.AsString(val)
		if !ok {
			return !*rule.IsTimestamp, nil
		}
		_, perr := time.Parse(time.RFC3339, s)
		return (perr == nil) == *rule.IsTimestamp, nil
	}
	return false, &EngineError{Message: "choice rule has no recognized comparator", Code: CodeValidationError, StateName: ec.CurrentState}
}

func compareTimestamp(val value.Value, other string, want int) (bool, error) {
	s, ok := value.AsString(val)
	if !ok {
		return false, nil
	}
	a, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false, nil
	}
	b, err := time.Parse(time.RFC3339, other)
	if err != nil {
		return false, nil
	}
	switch {
	case a.Equal(b):
		return want == 0, nil
	case a.Before(b):
		return want < 0, nil
	default:
		return want > 0, nil
	}
}

// matchGlob implements StringMatches' "*" (any run of characters) and
// "?" (any single character) glob syntax.
func matchGlob(pattern, s string) bool {
	return globMatch(pattern, s)
}

func globMatch(pattern, s string) bool {
	if pattern == "" {
		return s == ""
	}
	if pattern[0] == '*' {
		if globMatch(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if globMatch(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return false
	}
	if s == "" {
		return false
	}
	if pattern[0] == '?' || pattern[0] == s[0] {
		return globMatch(pattern[1:], s[1:])
	}
	return false
}
