// Package segment matches an entity's attributes against a segment's
// rules: a short-circuit AND over Rules, each itself a short-circuit OR
// over its literals evaluated via the operator engine.
package segment

import (
	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/operator"
)

// Rule is one (attribute, operator, literals) predicate within a segment.
type Rule struct {
	AttributeName string
	Operator      string
	Values        []string
}

// Segment is a named set of entities defined by an AND of Rules.
type Segment struct {
	ID    string
	Name  string
	Rules []Rule
}

// Matches reports whether attrs satisfies every one of seg's Rules.
//
// A Rule whose attribute is absent from attrs is false, not an error —
// this keeps shared targeting rules benign for callers that evaluate
// without supplying every attribute any rule in the configuration might
// reference. A Rule's literals are OR'd: the first literal the operator
// engine accepts short-circuits the Rule to true. An operator-engine
// failure is wrapped with segment/attribute/literal context and
// propagated; it is not swallowed the way a missing attribute is.
func Matches(seg *Segment, attrs map[string]appconfiguration.Value) (bool, error) {
	for _, rule := range seg.Rules {
		attr, ok := attrs[rule.AttributeName]
		if !ok {
			return false, nil
		}
		matched := false
		for _, literal := range rule.Values {
			ok, err := operator.Evaluate(rule.Operator, attr, literal)
			if err != nil {
				return false, &appconfiguration.EntityEvaluationError{
					SegmentID: seg.ID,
					Attribute: rule.AttributeName,
					Literal:   literal,
					Cause:     err,
				}
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}
