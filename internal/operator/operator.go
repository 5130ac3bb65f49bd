// Package operator evaluates a single `attribute OP literal` predicate,
// independent of any segment or rule context. It is the innermost layer
// of the targeting engine: the segment matcher wraps its errors with
// segment/rule context before they reach a caller.
package operator

import (
	"strconv"
	"strings"

	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
)

// Evaluate applies the named operator to attr, comparing against literal.
// Negated/complement operators (isNot, notContains, notStartsWith,
// notEndsWith, greaterThanEquals, lesserThanEquals) are implemented as the
// boolean complement of their primitive, matching the upstream operator
// table exactly.
func Evaluate(op string, attr appconfiguration.Value, literal string) (bool, error) {
	switch op {
	case "is":
		return is(attr, literal)
	case "isNot":
		ok, err := is(attr, literal)
		return !ok, err
	case "contains":
		return contains(attr, literal)
	case "notContains":
		ok, err := contains(attr, literal)
		return !ok, err
	case "startsWith":
		return startsWith(attr, literal)
	case "notStartsWith":
		ok, err := startsWith(attr, literal)
		return !ok, err
	case "endsWith":
		return endsWith(attr, literal)
	case "notEndsWith":
		ok, err := endsWith(attr, literal)
		return !ok, err
	case "greaterThan":
		return greaterThan(attr, literal)
	case "lesserThan":
		return lesserThan(attr, literal)
	case "greaterThanEquals":
		ok, err := lesserThan(attr, literal)
		return !ok, err
	case "lesserThanEquals":
		ok, err := greaterThan(attr, literal)
		return !ok, err
	default:
		return false, appconfiguration.OperatorNotImplemented(op)
	}
}

// is parses literal into attr's own variant and compares for equality.
// Unlike the string/ordering predicates, every Value variant supports is.
func is(attr appconfiguration.Value, literal string) (bool, error) {
	switch attr.Kind() {
	case appconfiguration.KindString:
		s, _ := attr.AsString()
		return s == literal, nil
	case appconfiguration.KindBoolean:
		b, _ := attr.AsBool()
		parsed, err := strconv.ParseBool(literal)
		if err != nil {
			return false, appconfiguration.LiteralParseFailed("is")
		}
		return b == parsed, nil
	case appconfiguration.KindNumeric:
		// Parse and compare within the attribute's exact numeric
		// variant. Widening both sides through float64 would make
		// distinct integers above 2^53 compare equal.
		if n, aerr := attr.AsInt64(); aerr == nil {
			parsed, err := strconv.ParseInt(literal, 10, 64)
			if err != nil {
				return false, appconfiguration.LiteralParseFailed("is")
			}
			return n == parsed, nil
		}
		if n, aerr := attr.AsUInt64(); aerr == nil {
			parsed, err := strconv.ParseUint(literal, 10, 64)
			if err != nil {
				return false, appconfiguration.LiteralParseFailed("is")
			}
			return n == parsed, nil
		}
		f, _ := attr.AsFloat64()
		parsed, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return false, appconfiguration.LiteralParseFailed("is")
		}
		return f == parsed, nil
	default:
		return false, appconfiguration.LiteralParseFailed("is")
	}
}

func contains(attr appconfiguration.Value, literal string) (bool, error) {
	s, err := attr.AsString()
	if err != nil {
		return false, appconfiguration.StringExpected("contains")
	}
	return strings.Contains(s, literal), nil
}

func startsWith(attr appconfiguration.Value, literal string) (bool, error) {
	s, err := attr.AsString()
	if err != nil {
		return false, appconfiguration.StringExpected("startsWith")
	}
	return strings.HasPrefix(s, literal), nil
}

func endsWith(attr appconfiguration.Value, literal string) (bool, error) {
	s, err := attr.AsString()
	if err != nil {
		return false, appconfiguration.StringExpected("endsWith")
	}
	return strings.HasSuffix(s, literal), nil
}

// greaterThan and lesserThan parse the literal into the attribute's
// exact numeric variant and compare within it, like is: comparing
// through float64 would misorder distinct integers above 2^53.
func greaterThan(attr appconfiguration.Value, literal string) (bool, error) {
	if !attr.IsNumeric() {
		return false, appconfiguration.EntityAttrNotANumber("greaterThan")
	}
	if n, aerr := attr.AsInt64(); aerr == nil {
		parsed, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return false, appconfiguration.EntityAttrNotANumber("greaterThan")
		}
		return n > parsed, nil
	}
	if n, aerr := attr.AsUInt64(); aerr == nil {
		parsed, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return false, appconfiguration.EntityAttrNotANumber("greaterThan")
		}
		return n > parsed, nil
	}
	f, _ := attr.AsFloat64()
	parsed, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return false, appconfiguration.EntityAttrNotANumber("greaterThan")
	}
	return f > parsed, nil
}

func lesserThan(attr appconfiguration.Value, literal string) (bool, error) {
	if !attr.IsNumeric() {
		return false, appconfiguration.EntityAttrNotANumber("lesserThan")
	}
	if n, aerr := attr.AsInt64(); aerr == nil {
		parsed, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return false, appconfiguration.EntityAttrNotANumber("lesserThan")
		}
		return n < parsed, nil
	}
	if n, aerr := attr.AsUInt64(); aerr == nil {
		parsed, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return false, appconfiguration.EntityAttrNotANumber("lesserThan")
		}
		return n < parsed, nil
	}
	f, _ := attr.AsFloat64()
	parsed, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return false, appconfiguration.EntityAttrNotANumber("lesserThan")
	}
	return f < parsed, nil
}
