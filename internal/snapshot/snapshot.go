// Package snapshot builds and serves an immutable, validated, indexed
// view of one environment's features, properties, and the segments they
// reference, from a fetched wire Document.
package snapshot

import (
	"sort"

	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/segment"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/targeting"
)

// Feature is the resolved, ready-to-evaluate view of one feature flag:
// its own fields plus only the segments its own targeting rules
// reference.
type Feature struct {
	ID                string
	Name              string
	Kind              appconfiguration.ValueKind
	Enabled           bool
	EnabledValue      appconfiguration.Value
	DisabledValue     appconfiguration.Value
	RolloutPercentage uint32
	Rules             []targeting.Rule
	Segments          map[string]*segment.Segment
}

// Property is the resolved, ready-to-evaluate view of one typed property.
type Property struct {
	ID       string
	Name     string
	Kind     appconfiguration.ValueKind
	Value    appconfiguration.Value
	Rules    []targeting.Rule
	Segments map[string]*segment.Segment
}

// Snapshot is one environment's fully resolved, immutable configuration.
// Once constructed it never changes; the live-config worker swaps in a
// freshly-constructed Snapshot rather than mutating one in place.
type Snapshot struct {
	features   map[string]*Feature
	properties map[string]*Property
}

// New builds a Snapshot for the named environment out of doc. It fails
// if the environment id is unknown, or if any feature/property's
// targeting rules reference a segment id absent from doc.Segments.
func New(environmentID string, doc *appconfiguration.Document) (*Snapshot, error) {
	var env *appconfiguration.EnvironmentDoc
	for i := range doc.Environments {
		if doc.Environments[i].EnvironmentID == environmentID {
			env = &doc.Environments[i]
			break
		}
	}
	if env == nil {
		return nil, &appconfiguration.EnvironmentNotFoundError{EnvironmentID: environmentID}
	}

	allSegments := make(map[string]*segment.Segment, len(doc.Segments))
	for _, sd := range doc.Segments {
		allSegments[sd.SegmentID] = convertSegment(sd)
	}

	snap := &Snapshot{
		features:   make(map[string]*Feature, len(env.Features)),
		properties: make(map[string]*Property, len(env.Properties)),
	}

	for _, fd := range env.Features {
		kind, err := appconfiguration.ParseValueKind(fd.Type)
		if err != nil {
			return nil, err
		}
		enabledValue, err := appconfiguration.ValueFromJSON(fd.EnabledValue, kind)
		if err != nil {
			return nil, err
		}
		disabledValue, err := appconfiguration.ValueFromJSON(fd.DisabledValue, kind)
		if err != nil {
			return nil, err
		}
		rules := sortedRules(fd.SegmentRules)
		resolved, err := resolveSegments(fd.FeatureID, rules, allSegments)
		if err != nil {
			return nil, err
		}
		snap.features[fd.FeatureID] = &Feature{
			ID:                fd.FeatureID,
			Name:              fd.Name,
			Kind:              kind,
			Enabled:           fd.Enabled,
			EnabledValue:      enabledValue,
			DisabledValue:     disabledValue,
			RolloutPercentage: fd.RolloutPercentage,
			Rules:             rules,
			Segments:          resolved,
		}
	}

	for _, pd := range env.Properties {
		kind, err := appconfiguration.ParseValueKind(pd.Type)
		if err != nil {
			return nil, err
		}
		value, err := appconfiguration.ValueFromJSON(pd.Value, kind)
		if err != nil {
			return nil, err
		}
		rules := sortedRules(pd.SegmentRules)
		resolved, err := resolveSegments(pd.PropertyID, rules, allSegments)
		if err != nil {
			return nil, err
		}
		snap.properties[pd.PropertyID] = &Property{
			ID:       pd.PropertyID,
			Name:     pd.Name,
			Kind:     kind,
			Value:    value,
			Rules:    rules,
			Segments: resolved,
		}
	}

	return snap, nil
}

// GetFeature looks up a feature by id.
func (s *Snapshot) GetFeature(id string) (*Feature, error) {
	f, ok := s.features[id]
	if !ok {
		return nil, &appconfiguration.FeatureNotFoundError{FeatureID: id}
	}
	return f, nil
}

// GetProperty looks up a property by id.
func (s *Snapshot) GetProperty(id string) (*Property, error) {
	p, ok := s.properties[id]
	if !ok {
		return nil, &appconfiguration.PropertyNotFoundError{PropertyID: id}
	}
	return p, nil
}

// FeatureIDs returns every feature id known to this snapshot.
func (s *Snapshot) FeatureIDs() []string {
	ids := make([]string, 0, len(s.features))
	for id := range s.features {
		ids = append(ids, id)
	}
	return ids
}

// PropertyIDs returns every property id known to this snapshot.
func (s *Snapshot) PropertyIDs() []string {
	ids := make([]string, 0, len(s.properties))
	for id := range s.properties {
		ids = append(ids, id)
	}
	return ids
}

func convertSegment(sd appconfiguration.SegmentDoc) *segment.Segment {
	rules := make([]segment.Rule, 0, len(sd.Rules))
	for _, r := range sd.Rules {
		rules = append(rules, segment.Rule{
			AttributeName: r.AttributeName,
			Operator:      r.Operator,
			Values:        r.Values,
		})
	}
	return &segment.Segment{ID: sd.SegmentID, Name: sd.Name, Rules: rules}
}

// sortedRules converts and stably sorts a resource's wire targeting
// rules by ascending Order. Stability preserves document order for ties,
// which the snapshot-construction invariant tolerates.
func sortedRules(docs []appconfiguration.TargetingRuleDoc) []targeting.Rule {
	rules := make([]targeting.Rule, len(docs))
	for i, d := range docs {
		groups := make([]targeting.SegmentGroup, len(d.Rules))
		for j, g := range d.Rules {
			groups[j] = targeting.SegmentGroup{Segments: g.Segments}
		}
		rules[i] = targeting.Rule{
			Targets:           groups,
			Value:             d.Value,
			Order:             d.Order,
			RolloutPercentage: d.RolloutPercentage,
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Order < rules[j].Order })
	return rules
}

// resolveSegments computes the set of segment ids transitively
// referenced by rules and intersects it with allSegments, failing
// MissingSegmentsError{resourceID} if any referenced id is absent.
func resolveSegments(
	resourceID string,
	rules []targeting.Rule,
	allSegments map[string]*segment.Segment,
) (map[string]*segment.Segment, error) {
	resolved := make(map[string]*segment.Segment)
	for _, rule := range rules {
		for _, group := range rule.Targets {
			for _, id := range group.Segments {
				if _, ok := resolved[id]; ok {
					continue
				}
				seg, ok := allSegments[id]
				if !ok {
					return nil, &appconfiguration.MissingSegmentsError{ResourceID: resourceID}
				}
				resolved[id] = seg
			}
		}
	}
	return resolved, nil
}
