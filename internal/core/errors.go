package core

import "fmt"

// FeatureNotFoundError is returned when a feature id has no entry in the
// current snapshot.
type FeatureNotFoundError struct{ FeatureID string }

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("feature %q not found", e.FeatureID)
}

// PropertyNotFoundError is returned when a property id has no entry in the
// current snapshot.
type PropertyNotFoundError struct{ PropertyID string }

func (e *PropertyNotFoundError) Error() string {
	return fmt.Sprintf("property %q not found", e.PropertyID)
}

// EnvironmentNotFoundError is returned when snapshot construction cannot
// find the requested environment id in the fetched document.
type EnvironmentNotFoundError struct{ EnvironmentID string }

func (e *EnvironmentNotFoundError) Error() string {
	return fmt.Sprintf("environment %q not found", e.EnvironmentID)
}

// MissingSegmentsError is the snapshot-construction invariant violation:
// a feature or property's targeting rules reference a segment id absent
// from the document's segment list.
type MissingSegmentsError struct{ ResourceID string }

func (e *MissingSegmentsError) Error() string {
	return fmt.Sprintf("missing segments referenced by resource %q", e.ResourceID)
}

// OfflineReason enumerates why the live-configuration worker is not
// currently online.
type OfflineReason int

const (
	OfflineInitializing OfflineReason = iota
	OfflineFailedToGetNewConfiguration
	OfflineConfigurationDataInvalid
	OfflineWebsocketClosed
	OfflineWebsocketError
)

func (r OfflineReason) String() string {
	switch r {
	case OfflineInitializing:
		return "Initializing"
	case OfflineFailedToGetNewConfiguration:
		return "FailedToGetNewConfiguration"
	case OfflineConfigurationDataInvalid:
		return "ConfigurationDataInvalid"
	case OfflineWebsocketClosed:
		return "WebsocketClosed"
	case OfflineWebsocketError:
		return "WebsocketError"
	default:
		return "Unknown"
	}
}

// OfflineError is returned by a read when the caller's offline-mode
// policy is Fail and the background worker is not Online.
type OfflineError struct{ Reason OfflineReason }

func (e *OfflineError) Error() string {
	return fmt.Sprintf("offline: %s", e.Reason)
}

// ConfigurationNotYetAvailableError is returned under the Cache
// offline-mode policy when no snapshot has ever been fetched.
type ConfigurationNotYetAvailableError struct{}

func (e *ConfigurationNotYetAvailableError) Error() string {
	return "configuration not yet available"
}

// DefunctError is returned by every read once the live-configuration
// worker has terminated unrecoverably.
type DefunctError struct{ Inner error }

func (e *DefunctError) Error() string {
	if e.Inner == nil {
		return "live configuration worker terminated"
	}
	return fmt.Sprintf("live configuration worker terminated: %v", e.Inner)
}

func (e *DefunctError) Unwrap() error { return e.Inner }

// ProtocolError signals unexpected field shape/type from the server, or
// an ambiguous wire value this SDK declines to guess at (e.g. a matched,
// non-$default targeting rule with no rollout percentage at all).
type ProtocolError struct{ Message string }

func (e *ProtocolError) Error() string { return "protocol error: " + e.Message }

// MismatchTypeError is returned when an evaluation is requested into a
// type incompatible with the feature/property's kind, or when a JSON
// scalar cannot be coerced into the requested ValueKind.
type MismatchTypeError struct {
	Expected ValueKind
	Actual   ValueKind
	Message  string
}

func (e *MismatchTypeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("type mismatch: expected %s: %s", e.Expected, e.Message)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// EntityEvaluationError wraps an operator-engine failure encountered
// while targeting an entity against a segment.
type EntityEvaluationError struct {
	SegmentID string
	Attribute string
	Literal   string
	Cause     error
}

func (e *EntityEvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate entity against segment %q, attribute %q, literal %q: %v",
		e.SegmentID, e.Attribute, e.Literal, e.Cause)
}

func (e *EntityEvaluationError) Unwrap() error { return e.Cause }

// CheckOperatorError is the structured failure produced by the operator
// engine when it cannot evaluate `attribute OP literal`. Callers (the
// segment matcher) attach segment/rule/literal context and re-wrap it as
// an EntityEvaluationError.
type CheckOperatorError struct {
	// Op is the operator that failed, e.g. "contains" or "greaterThan".
	Op string
	// Reason is one of "StringExpected", "EntityAttrNotANumber",
	// "OperatorNotImplemented", or "LiteralParseFailed".
	Reason string
}

func (e *CheckOperatorError) Error() string {
	return fmt.Sprintf("operator %q failed: %s", e.Op, e.Reason)
}

// StringExpected builds the CheckOperatorError for a string predicate
// (contains/startsWith/endsWith and negations) applied to a non-String
// attribute.
func StringExpected(op string) *CheckOperatorError {
	return &CheckOperatorError{Op: op, Reason: "StringExpected"}
}

// EntityAttrNotANumber builds the CheckOperatorError for an ordering
// predicate applied to a non-numeric attribute, or whose literal does
// not parse as a number.
func EntityAttrNotANumber(op string) *CheckOperatorError {
	return &CheckOperatorError{Op: op, Reason: "EntityAttrNotANumber"}
}

// OperatorNotImplemented builds the CheckOperatorError for an unknown
// operator name.
func OperatorNotImplemented(op string) *CheckOperatorError {
	return &CheckOperatorError{Op: op, Reason: "OperatorNotImplemented"}
}

// LiteralParseFailed builds the CheckOperatorError for an `is` predicate
// whose literal could not be parsed into the attribute's own variant.
func LiteralParseFailed(op string) *CheckOperatorError {
	return &CheckOperatorError{Op: op, Reason: "LiteralParseFailed"}
}

// SegmentIDNotFoundError is the invariant violation surfaced when a
// targeting rule references a segment id absent from the resolved
// segment map (this should never happen for a snapshot that passed
// construction, since construction validates it — it is kept as a
// defensive, distinct error from a plain non-match).
type SegmentIDNotFoundError struct{ SegmentID string }

func (e *SegmentIDNotFoundError) Error() string {
	return fmt.Sprintf("segment id %q not found", e.SegmentID)
}
