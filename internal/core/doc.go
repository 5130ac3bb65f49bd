// Package core holds the data model and error types shared by the public
// façade and every internal evaluation package: the typed Value union,
// the wire Document shapes, the collaborator interfaces (ServerClient,
// PushChannel, TokenProvider), and every error type. It exists so the
// internal evaluation packages (segment, targeting, snapshot, evaluator,
// liveconfig, metering) can depend on this shared vocabulary without
// importing the root package, which would otherwise create an import
// cycle back through them. The root package re-exports everything here
// via type aliases, so callers never see this package directly.
package core
