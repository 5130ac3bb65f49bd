// Package evaluator implements the feature and property evaluation
// algorithms: targeting-rule selection, the $default sentinel, and
// deterministic percentage rollout, wired together against a resolved
// snapshot entry.
package evaluator

import (
	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/rollout"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/segment"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/snapshot"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/targeting"
)

// Recorder receives one evaluation event per Feature/Property call, for
// the metering aggregator to batch. segmentID is empty when no targeting
// rule matched. Implementations must not block.
type Recorder interface {
	RecordFeatureEvaluation(featureID, entityID, segmentID string)
	RecordPropertyEvaluation(propertyID, entityID, segmentID string)
}

// EvaluateFeature runs the feature evaluation algorithm against entity,
// recording the evaluation via rec if non-nil.
func EvaluateFeature(f *snapshot.Feature, entity appconfiguration.Entity, rec Recorder) (appconfiguration.Value, error) {
	if !f.Enabled {
		recordFeature(rec, f.ID, entity.ID(), "")
		return f.DisabledValue, nil
	}

	rule, seg, err := selectRule(f.Rules, f.Segments, entity)
	if err != nil {
		return appconfiguration.Value{}, err
	}

	segmentID := ""
	if seg != nil {
		segmentID = seg.ID
	}
	recordFeature(rec, f.ID, entity.ID(), segmentID)

	if rule == nil {
		if rollout.ShouldRollout(f.RolloutPercentage, entity.ID(), f.ID) {
			return f.EnabledValue, nil
		}
		return f.DisabledValue, nil
	}

	effectiveRollout, err := resolveRollout(rule, f.RolloutPercentage)
	if err != nil {
		return appconfiguration.Value{}, err
	}
	if !rollout.ShouldRollout(effectiveRollout, entity.ID(), f.ID) {
		return f.DisabledValue, nil
	}
	if rule.Value.IsDefault() {
		return f.EnabledValue, nil
	}
	return rule.Value.Coerce(f.Kind)
}

// EvaluateProperty runs the property evaluation algorithm against
// entity, recording the evaluation via rec if non-nil. Properties have
// no enabled/disabled branching and no rollout of their own.
func EvaluateProperty(p *snapshot.Property, entity appconfiguration.Entity, rec Recorder) (appconfiguration.Value, error) {
	rule, seg, err := selectRule(p.Rules, p.Segments, entity)
	if err != nil {
		return appconfiguration.Value{}, err
	}

	segmentID := ""
	if seg != nil {
		segmentID = seg.ID
	}
	recordProperty(rec, p.ID, entity.ID(), segmentID)

	if rule == nil || rule.Value.IsDefault() {
		return p.Value, nil
	}
	return rule.Value.Coerce(p.Kind)
}

// selectRule invokes the targeting-rule selector unless there is nothing
// to select over: empty rules or an entity with no attributes both skip
// C4 entirely rather than call it with a vacuous attribute map.
func selectRule(
	rules []targeting.Rule,
	segments map[string]*segment.Segment,
	entity appconfiguration.Entity,
) (*targeting.Rule, *segment.Segment, error) {
	attrs := entity.Attributes()
	if len(rules) == 0 || len(attrs) == 0 {
		return nil, nil, nil
	}
	return targeting.FirstApplicable(rules, segments, attrs)
}

// resolveRollout applies the $default sentinel to a matched rule's
// rollout percentage. An entirely absent field (as opposed to the
// "$default" sentinel value) is a ProtocolError: this SDK takes the
// strict reading of an ambiguity left open upstream.
func resolveRollout(rule *targeting.Rule, base uint32) (uint32, error) {
	if rule.RolloutPercentage == nil {
		return 0, &appconfiguration.ProtocolError{Message: "rollout percentage missing on matched targeting rule"}
	}
	if rule.RolloutPercentage.IsDefault() {
		return base, nil
	}
	return rule.RolloutPercentage.AsUInt32()
}

func recordFeature(rec Recorder, featureID, entityID, segmentID string) {
	if rec != nil {
		rec.RecordFeatureEvaluation(featureID, entityID, segmentID)
	}
}

func recordProperty(rec Recorder, propertyID, entityID, segmentID string) {
	if rec != nil {
		rec.RecordPropertyEvaluation(propertyID, entityID, segmentID)
	}
}
