package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/snapshot"
)

type testEntity struct {
	id    string
	attrs map[string]appconfiguration.Value
}

func (e testEntity) ID() string                               { return e.id }
func (e testEntity) Attributes() map[string]appconfiguration.Value { return e.attrs }

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func sentinel(t *testing.T, v any) appconfiguration.SentinelValue {
	return appconfiguration.SentinelValue(raw(t, v))
}

// TestS1DisabledFeature: enabled=false always yields disabled_value.
func TestS1DisabledFeature(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Features: []appconfiguration.FeatureDoc{{
				FeatureID: "f1", Type: "NUMERIC",
				EnabledValue: raw(t, 42), DisabledValue: raw(t, -42),
				Enabled: false, RolloutPercentage: 100,
			}},
		}},
	}
	snap, err := snapshot.New("prod", doc)
	require.NoError(t, err)
	f, err := snap.GetFeature("f1")
	require.NoError(t, err)

	v, err := EvaluateFeature(f, testEntity{id: "anyone"}, nil)
	require.NoError(t, err)
	n, err := v.AsInt64()
	require.NoError(t, err)
	assert.EqualValues(t, -42, n)
}

// TestS2DeterministicRollout exercises the cross-SDK hash vectors.
func TestS2DeterministicRollout(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Features: []appconfiguration.FeatureDoc{{
				FeatureID: "f1", Type: "NUMERIC",
				EnabledValue: raw(t, -42), DisabledValue: raw(t, 2),
				Enabled: true, RolloutPercentage: 50,
			}},
		}},
	}
	snap, err := snapshot.New("prod", doc)
	require.NoError(t, err)
	f, err := snap.GetFeature("f1")
	require.NoError(t, err)

	v, err := EvaluateFeature(f, testEntity{id: "a1"}, nil)
	require.NoError(t, err)
	n, _ := v.AsInt64()
	assert.EqualValues(t, 2, n)

	v, err = EvaluateFeature(f, testEntity{id: "a2"}, nil)
	require.NoError(t, err)
	n, _ = v.AsInt64()
	assert.EqualValues(t, -42, n)
}

// TestS3TargetingHitWithDefaultValue: matched rule with value=$default
// falls back to the feature's enabled_value once rollout passes.
func TestS3TargetingHitWithDefaultValue(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Features: []appconfiguration.FeatureDoc{{
				FeatureID: "f1", Type: "NUMERIC",
				EnabledValue: raw(t, -42), DisabledValue: raw(t, 2),
				Enabled: true, RolloutPercentage: 50,
				SegmentRules: []appconfiguration.TargetingRuleDoc{{
					Order:             0,
					Value:             sentinel(t, "$default"),
					RolloutPercentage: ptr(sentinel(t, 50)),
					Rules:             []appconfiguration.SegmentGroupDoc{{Segments: []string{"seg-heinz"}}},
				}},
			}},
		}},
		Segments: []appconfiguration.SegmentDoc{{
			SegmentID: "seg-heinz",
			Rules:     []appconfiguration.RuleDoc{{AttributeName: "name", Operator: "is", Values: []string{"heinz"}}},
		}},
	}
	snap, err := snapshot.New("prod", doc)
	require.NoError(t, err)
	f, err := snap.GetFeature("f1")
	require.NoError(t, err)

	entity := testEntity{id: "a2", attrs: map[string]appconfiguration.Value{
		"name": appconfiguration.NewStringValue("heinz"),
	}}
	v, err := EvaluateFeature(f, entity, nil)
	require.NoError(t, err)
	n, _ := v.AsInt64()
	assert.EqualValues(t, -42, n)
}

// TestS4RuleOrdering: lowest-order matching rule wins.
func TestS4RuleOrdering(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Properties: []appconfiguration.PropertyDoc{{
				PropertyID: "p", Type: "NUMERIC", Value: raw(t, -42),
				SegmentRules: []appconfiguration.TargetingRuleDoc{
					{Order: 1, Value: sentinel(t, -48), Rules: []appconfiguration.SegmentGroupDoc{{Segments: []string{"s1"}}}},
					{Order: 0, Value: sentinel(t, -49), Rules: []appconfiguration.SegmentGroupDoc{{Segments: []string{"s2"}}}},
				},
			}},
		}},
		Segments: []appconfiguration.SegmentDoc{
			{SegmentID: "s1", Rules: []appconfiguration.RuleDoc{{AttributeName: "name", Operator: "is", Values: []string{"a2"}}}},
			{SegmentID: "s2", Rules: []appconfiguration.RuleDoc{{AttributeName: "name", Operator: "is", Values: []string{"a2"}}}},
		},
	}
	snap, err := snapshot.New("prod", doc)
	require.NoError(t, err)
	p, err := snap.GetProperty("p")
	require.NoError(t, err)

	entity := testEntity{id: "a2", attrs: map[string]appconfiguration.Value{
		"name": appconfiguration.NewStringValue("a2"),
	}}
	v, err := EvaluateProperty(p, entity, nil)
	require.NoError(t, err)
	n, _ := v.AsInt64()
	assert.EqualValues(t, -49, n)
}

// TestS5IntegrityFailure: a referenced-but-absent segment id fails
// snapshot construction before any evaluation can happen.
func TestS5IntegrityFailure(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Features: []appconfiguration.FeatureDoc{{
				FeatureID: "f1", Type: "NUMERIC",
				EnabledValue: raw(t, 1), DisabledValue: raw(t, 0), Enabled: true,
				SegmentRules: []appconfiguration.TargetingRuleDoc{{
					Order: 0, Value: sentinel(t, "$default"),
					Rules: []appconfiguration.SegmentGroupDoc{{Segments: []string{"missing"}}},
				}},
			}},
		}},
	}
	_, err := snapshot.New("prod", doc)
	require.Error(t, err)
	var missing *appconfiguration.MissingSegmentsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "f1", missing.ResourceID)
}

func TestAbsentRolloutOnMatchedRuleIsProtocolError(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Features: []appconfiguration.FeatureDoc{{
				FeatureID: "f1", Type: "NUMERIC",
				EnabledValue: raw(t, 1), DisabledValue: raw(t, 0), Enabled: true,
				SegmentRules: []appconfiguration.TargetingRuleDoc{{
					Order: 0, Value: sentinel(t, 5),
					Rules: []appconfiguration.SegmentGroupDoc{{Segments: []string{"s1"}}},
				}},
			}},
		}},
		Segments: []appconfiguration.SegmentDoc{
			{SegmentID: "s1", Rules: []appconfiguration.RuleDoc{{AttributeName: "name", Operator: "is", Values: []string{"a2"}}}},
		},
	}
	snap, err := snapshot.New("prod", doc)
	require.NoError(t, err)
	f, err := snap.GetFeature("f1")
	require.NoError(t, err)

	entity := testEntity{id: "a2", attrs: map[string]appconfiguration.Value{"name": appconfiguration.NewStringValue("a2")}}
	_, err = EvaluateFeature(f, entity, nil)
	require.Error(t, err)
	var protoErr *appconfiguration.ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func ptr(v appconfiguration.SentinelValue) *appconfiguration.SentinelValue { return &v }

// TestEvaluationSurvivesDocumentRoundTrip: a document encoded and
// decoded again must evaluate identically for the same entity.
func TestEvaluationSurvivesDocumentRoundTrip(t *testing.T) {
	doc := &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{
			EnvironmentID: "prod",
			Features: []appconfiguration.FeatureDoc{{
				FeatureID: "f1", Type: "NUMERIC",
				EnabledValue: raw(t, -42), DisabledValue: raw(t, 2),
				Enabled: true, RolloutPercentage: 50,
				SegmentRules: []appconfiguration.TargetingRuleDoc{{
					Order:             0,
					Value:             sentinel(t, "$default"),
					RolloutPercentage: ptr(sentinel(t, "$default")),
					Rules:             []appconfiguration.SegmentGroupDoc{{Segments: []string{"seg-heinz"}}},
				}},
			}},
		}},
		Segments: []appconfiguration.SegmentDoc{{
			SegmentID: "seg-heinz",
			Rules:     []appconfiguration.RuleDoc{{AttributeName: "name", Operator: "is", Values: []string{"heinz"}}},
		}},
	}

	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	var decoded appconfiguration.Document
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	entity := testEntity{id: "a2", attrs: map[string]appconfiguration.Value{
		"name": appconfiguration.NewStringValue("heinz"),
	}}

	for _, d := range []*appconfiguration.Document{doc, &decoded} {
		snap, err := snapshot.New("prod", d)
		require.NoError(t, err)
		f, err := snap.GetFeature("f1")
		require.NoError(t, err)
		v, err := EvaluateFeature(f, entity, nil)
		require.NoError(t, err)
		n, err := v.AsInt64()
		require.NoError(t, err)
		assert.EqualValues(t, -42, n)
	}
}
