package core

import (
	"context"

	"github.com/gorilla/websocket"
)

// ServerClient is the transport collaborator a caller supplies. It owns
// every network concern — HTTP, TLS, hostname derivation, identity-token
// exchange — which this package treats as out of scope.
type ServerClient interface {
	// FetchConfiguration retrieves the full configuration document for
	// the given identity. A transport-layer failure should be wrapped so
	// the live-configuration worker can classify it via error.As against
	// *ConfigError/*FatalError.
	FetchConfiguration(ctx context.Context, id ConfigurationID) (*Document, error)

	// OpenPushChannel establishes the live-update channel. Implementations
	// typically wrap a *websocket.Conn.
	OpenPushChannel(ctx context.Context, id ConfigurationID) (PushChannel, error)

	// PushMetering transmits one aggregated usage batch. Errors are
	// logged by the aggregator and never retried.
	PushMetering(ctx context.Context, id ConfigurationID, batch MeteringBatch) error
}

// TokenProvider exchanges caller credentials for a bearer token used to
// authenticate ServerClient calls. Kept distinct from ServerClient so a
// caller can share one token cache across multiple Clients.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// PushMessage is one frame read from a PushChannel. Type reuses the
// gorilla/websocket frame-type constants (TextMessage, BinaryMessage,
// CloseMessage, PingMessage, PongMessage) so a ServerClient implementation
// backed by a real *websocket.Conn can pass ReadMessage's result through
// with no translation.
type PushMessage struct {
	Type    int
	Payload []byte
}

// heartbeatPayload is the literal wire contract for a push-channel
// heartbeat. Any other text payload is an opaque "changed" notification.
const heartbeatPayload = "test message"

// IsHeartbeat reports whether this message is the heartbeat frame.
func (m PushMessage) IsHeartbeat() bool {
	return m.Type == websocket.TextMessage && string(m.Payload) == heartbeatPayload
}

// PushChannel is the live bidirectional channel over which the server
// notifies this SDK of configuration changes. Shaped after
// *websocket.Conn's ReadMessage/Close so a caller can satisfy it with a
// one-line adapter.
type PushChannel interface {
	ReadMessage() (PushMessage, error)
	Close() error
}

// ConfigError marks a ServerClient/PushChannel failure the live-config
// worker should treat as recoverable: transport failure, push-channel
// protocol error, or contact lost. A failed push-channel open is retried
// after backoff; a failed fetch leaves the worker Offline until the next
// push-channel message triggers another fetch. The worker treats every
// error that is not a *FatalError this way.
type ConfigError struct{ Inner error }

func (e *ConfigError) Error() string {
	if e.Inner == nil {
		return "configuration fetch failed"
	}
	return "configuration fetch failed: " + e.Inner.Error()
}

func (e *ConfigError) Unwrap() error { return e.Inner }

// FatalError marks a ServerClient failure the live-config worker cannot
// recover from — URL/header construction errors, or anything that
// depends only on static configuration. The worker exits as Defunct.
type FatalError struct{ Inner error }

func (e *FatalError) Error() string {
	if e.Inner == nil {
		return "unrecoverable configuration error"
	}
	return "unrecoverable configuration error: " + e.Inner.Error()
}

func (e *FatalError) Unwrap() error { return e.Inner }

// MeteringBatch is one flush window's worth of aggregated evaluation
// counts, ready for ServerClient.PushMetering.
type MeteringBatch struct {
	CollectionID  string          `json:"collection_id"`
	EnvironmentID string          `json:"environment_id"`
	Usages        []MeteringUsage `json:"usages"`
}

// MeteringUsage is one (subject, entity, segment) dedup bucket's count
// for the flush window. Exactly one of FeatureID/PropertyID is set.
// SegmentID is omitted entirely (not null) when the evaluation matched no
// targeting rule.
type MeteringUsage struct {
	FeatureID      string `json:"feature_id,omitempty"`
	PropertyID     string `json:"property_id,omitempty"`
	EntityID       string `json:"entity_id"`
	SegmentID      string `json:"segment_id,omitempty"`
	EvaluationTime int64  `json:"evaluation_time"`
	Count          uint64 `json:"count"`
}
