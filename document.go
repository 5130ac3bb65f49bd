package appconfiguration

import "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"

// SentinelValue wraps a raw JSON scalar that may either hold a typed
// value or the literal string "$default". It appears in TargetingRuleDoc's
// Value and RolloutPercentage fields.
type SentinelValue = core.SentinelValue

// Document is the top-level configuration fetch response: every
// environment and every segment known to the collection.
type Document = core.Document

// EnvironmentDoc is one environment's features and properties.
type EnvironmentDoc = core.EnvironmentDoc

// FeatureDoc is the wire shape of one feature flag.
type FeatureDoc = core.FeatureDoc

// PropertyDoc is the wire shape of one typed property.
type PropertyDoc = core.PropertyDoc

// SegmentDoc is the wire shape of one segment definition.
type SegmentDoc = core.SegmentDoc

// RuleDoc is one (attribute, operator, literals) predicate within a
// segment.
type RuleDoc = core.RuleDoc

// SegmentGroupDoc is one disjunctive group of segment ids within a
// targeting rule's `rules` (list-of-lists) field.
type SegmentGroupDoc = core.SegmentGroupDoc

// TargetingRuleDoc is one targeted override on a feature or property.
type TargetingRuleDoc = core.TargetingRuleDoc
