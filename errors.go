package appconfiguration

import "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"

// FeatureNotFoundError is returned when a feature id has no entry in the
// current snapshot.
type FeatureNotFoundError = core.FeatureNotFoundError

// PropertyNotFoundError is returned when a property id has no entry in the
// current snapshot.
type PropertyNotFoundError = core.PropertyNotFoundError

// EnvironmentNotFoundError is returned when snapshot construction cannot
// find the requested environment id in the fetched document.
type EnvironmentNotFoundError = core.EnvironmentNotFoundError

// MissingSegmentsError is the snapshot-construction invariant violation:
// a feature or property's targeting rules reference a segment id absent
// from the document's segment list.
type MissingSegmentsError = core.MissingSegmentsError

// OfflineReason enumerates why the live-configuration worker is not
// currently online.
type OfflineReason = core.OfflineReason

const (
	OfflineInitializing                = core.OfflineInitializing
	OfflineFailedToGetNewConfiguration = core.OfflineFailedToGetNewConfiguration
	OfflineConfigurationDataInvalid    = core.OfflineConfigurationDataInvalid
	OfflineWebsocketClosed             = core.OfflineWebsocketClosed
	OfflineWebsocketError              = core.OfflineWebsocketError
)

// OfflineError is returned by a read when the caller's offline-mode
// policy is Fail and the background worker is not Online.
type OfflineError = core.OfflineError

// ConfigurationNotYetAvailableError is returned under the Cache
// offline-mode policy when no snapshot has ever been fetched.
type ConfigurationNotYetAvailableError = core.ConfigurationNotYetAvailableError

// DefunctError is returned by every read once the live-configuration
// worker has terminated unrecoverably.
type DefunctError = core.DefunctError

// ProtocolError signals unexpected field shape/type from the server, or
// an ambiguous wire value this SDK declines to guess at (e.g. a matched,
// non-$default targeting rule with no rollout percentage at all).
type ProtocolError = core.ProtocolError

// MismatchTypeError is returned when an evaluation is requested into a
// type incompatible with the feature/property's kind, or when a JSON
// scalar cannot be coerced into the requested ValueKind.
type MismatchTypeError = core.MismatchTypeError

// EntityEvaluationError wraps an operator-engine failure encountered
// while targeting an entity against a segment.
type EntityEvaluationError = core.EntityEvaluationError

// CheckOperatorError is the structured failure produced by the operator
// engine when it cannot evaluate `attribute OP literal`.
type CheckOperatorError = core.CheckOperatorError

// SegmentIDNotFoundError is the invariant violation surfaced when a
// targeting rule references a segment id absent from the resolved
// segment map.
type SegmentIDNotFoundError = core.SegmentIDNotFoundError
