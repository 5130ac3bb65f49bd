package core

import (
	"bytes"
	"encoding/json"
)

// defaultSentinel is the literal wire string meaning "inherit from the
// parent feature/property" wherever it appears in a targeting rule's
// value or rollout_percentage field.
const defaultSentinel = "$default"

// SentinelValue wraps a raw JSON scalar that may either hold a typed
// value or the literal string "$default". It appears in TargetingRuleDoc's
// Value and RolloutPercentage fields.
type SentinelValue json.RawMessage

var defaultSentinelJSON = []byte(`"` + defaultSentinel + `"`)

// MarshalJSON emits the raw scalar unchanged. Defining SentinelValue as
// its own type loses json.RawMessage's method set, so both halves of
// the raw pass-through are restated here.
func (s SentinelValue) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON stores the raw scalar unchanged.
func (s *SentinelValue) UnmarshalJSON(data []byte) error {
	*s = append((*s)[0:0], data...)
	return nil
}

// IsDefault reports whether the wire value was the literal "$default"
// string sentinel.
func (s SentinelValue) IsDefault() bool {
	return bytes.Equal(bytes.TrimSpace(json.RawMessage(s)), defaultSentinelJSON)
}

// Coerce converts the wire value into a typed Value, per the feature or
// property's ValueKind. Callers must check IsDefault first.
func (s SentinelValue) Coerce(kind ValueKind) (Value, error) {
	return ValueFromJSON(json.RawMessage(s), kind)
}

// AsUInt32 parses the wire value as an unsigned rollout percentage.
// Callers must check IsDefault first.
func (s SentinelValue) AsUInt32() (uint32, error) {
	var n uint32
	if err := json.Unmarshal(json.RawMessage(s), &n); err != nil {
		return 0, &ProtocolError{Message: "rollout percentage is not a valid integer: " + err.Error()}
	}
	return n, nil
}

// Document is the top-level configuration fetch response: every
// environment and every segment known to the collection.
type Document struct {
	Environments []EnvironmentDoc `json:"environments"`
	Segments     []SegmentDoc     `json:"segments"`
}

// EnvironmentDoc is one environment's features and properties.
type EnvironmentDoc struct {
	EnvironmentID string        `json:"environment_id"`
	Features      []FeatureDoc  `json:"features"`
	Properties    []PropertyDoc `json:"properties"`
}

// FeatureDoc is the wire shape of one feature flag.
type FeatureDoc struct {
	FeatureID         string             `json:"feature_id"`
	Name              string             `json:"name"`
	Type              string             `json:"type"`
	EnabledValue      json.RawMessage    `json:"enabled_value"`
	DisabledValue     json.RawMessage    `json:"disabled_value"`
	Enabled           bool               `json:"enabled"`
	RolloutPercentage uint32             `json:"rollout_percentage"`
	SegmentRules      []TargetingRuleDoc `json:"segment_rules"`
}

// PropertyDoc is the wire shape of one typed property.
type PropertyDoc struct {
	PropertyID   string             `json:"property_id"`
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	Value        json.RawMessage    `json:"value"`
	SegmentRules []TargetingRuleDoc `json:"segment_rules"`
}

// SegmentDoc is the wire shape of one segment definition.
type SegmentDoc struct {
	SegmentID string    `json:"segment_id"`
	Name      string    `json:"name"`
	Rules     []RuleDoc `json:"rules"`
}

// RuleDoc is one (attribute, operator, literals) predicate within a
// segment.
type RuleDoc struct {
	AttributeName string   `json:"attribute_name"`
	Operator      string   `json:"operator"`
	Values        []string `json:"values"`
}

// SegmentGroupDoc is one disjunctive group of segment ids within a
// targeting rule's `rules` (list-of-lists) field.
type SegmentGroupDoc struct {
	Segments []string `json:"segments"`
}

// TargetingRuleDoc is one targeted override on a feature or property.
type TargetingRuleDoc struct {
	Rules             []SegmentGroupDoc `json:"rules"`
	Value             SentinelValue     `json:"value"`
	Order             uint32            `json:"order"`
	RolloutPercentage *SentinelValue    `json:"rollout_percentage,omitempty"`
}
