package appconfiguration

import "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"

// ServerClient is the transport collaborator a caller supplies. It owns
// every network concern — HTTP, TLS, hostname derivation, identity-token
// exchange — which this package treats as out of scope.
type ServerClient = core.ServerClient

// TokenProvider exchanges caller credentials for a bearer token used to
// authenticate ServerClient calls. Kept distinct from ServerClient so a
// caller can share one token cache across multiple Clients.
type TokenProvider = core.TokenProvider

// PushMessage is one frame read from a PushChannel. Type reuses the
// gorilla/websocket frame-type constants (TextMessage, BinaryMessage,
// CloseMessage, PingMessage, PongMessage) so a ServerClient implementation
// backed by a real *websocket.Conn can pass ReadMessage's result through
// with no translation.
type PushMessage = core.PushMessage

// PushChannel is the live bidirectional channel over which the server
// notifies this SDK of configuration changes.
type PushChannel = core.PushChannel

// ConfigError marks a ServerClient/PushChannel failure the live-config
// worker should treat as recoverable.
type ConfigError = core.ConfigError

// FatalError marks a ServerClient failure the live-config worker cannot
// recover from.
type FatalError = core.FatalError

// MeteringBatch is one flush window's worth of aggregated evaluation
// counts, ready for ServerClient.PushMetering.
type MeteringBatch = core.MeteringBatch

// MeteringUsage is one (subject, entity, segment) dedup bucket's count
// for the flush window.
type MeteringUsage = core.MeteringUsage
