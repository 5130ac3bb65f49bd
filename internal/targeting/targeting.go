// Package targeting selects the first targeting rule (if any) that
// applies to an entity, given the resolved segments it references.
package targeting

import (
	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/segment"
)

// SegmentGroup is one disjunctive group of segment ids within a Rule's
// `targets` (list-of-lists) field.
type SegmentGroup struct {
	Segments []string
}

// Rule is one targeted override on a feature or property. Value and
// RolloutPercentage are left as opaque sentinel-aware wire values; the
// evaluator resolves them against the feature/property default.
type Rule struct {
	Targets           []SegmentGroup
	Value             appconfiguration.SentinelValue
	Order             uint32
	RolloutPercentage *appconfiguration.SentinelValue
}

// FirstApplicable returns the first Rule (in ascending Order — callers
// must pass rules already sorted, per the snapshot's construction
// invariant) whose Targets resolve to a matching Segment for entity, and
// that Segment. It returns (nil, nil, nil) if no rule applies.
//
// `targets` is a flat OR across every listed segment id, across every
// group, in iteration order: the first id that both resolves and
// matches wins. A referenced segment id absent from segments is the
// invariant violation SegmentIDNotFoundError, not a missed match.
func FirstApplicable(
	rules []Rule,
	segments map[string]*segment.Segment,
	attrs map[string]appconfiguration.Value,
) (*Rule, *segment.Segment, error) {
	for i := range rules {
		rule := &rules[i]
		for _, group := range rule.Targets {
			for _, id := range group.Segments {
				seg, ok := segments[id]
				if !ok {
					return nil, nil, &appconfiguration.SegmentIDNotFoundError{SegmentID: id}
				}
				matched, err := segment.Matches(seg, attrs)
				if err != nil {
					return nil, nil, err
				}
				if matched {
					return rule, seg, nil
				}
			}
		}
	}
	return nil, nil, nil
}
