// Package liveconfig owns the live-configuration worker: the single
// background goroutine that keeps a Snapshot in sync with the remote
// service over a push channel, with full-document refetch on every
// change notification.
package liveconfig

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/snapshot"
)

func isCloseMessage(msg appconfiguration.PushMessage) bool {
	return msg.Type == websocket.CloseMessage
}

func isDataMessage(msg appconfiguration.PushMessage) bool {
	return msg.Type == websocket.TextMessage
}

// ModeKind discriminates CurrentMode's variants.
type ModeKind int

const (
	ModeOnline ModeKind = iota
	ModeOffline
	ModeDefunct
)

// CurrentMode is the worker's externally-observable state.
type CurrentMode struct {
	Kind          ModeKind
	OfflineReason appconfiguration.OfflineReason
	Err           error
}

func online() CurrentMode { return CurrentMode{Kind: ModeOnline} }

func offline(reason appconfiguration.OfflineReason) CurrentMode {
	return CurrentMode{Kind: ModeOffline, OfflineReason: reason}
}

func defunct(err error) CurrentMode { return CurrentMode{Kind: ModeDefunct, Err: err} }

// Worker owns the shared snapshot pointer and CurrentMode, and runs the
// outer/inner reconnect loop: the outer loop opens the push channel and
// fetches the full document, the inner loop reads messages until the
// channel fails or closes. Exactly one goroutine should call Run.
type Worker struct {
	serverClient appconfiguration.ServerClient
	configID     appconfiguration.ConfigurationID
	logger       *slog.Logger
	minWait      time.Duration
	maxWait      time.Duration

	mu       sync.Mutex
	snapshot *snapshot.Snapshot
	mode     CurrentMode
	changed  chan struct{} // closed and replaced on every mode transition
	channel  appconfiguration.PushChannel // currently open channel, closed by Stop to unblock a pending read

	done     chan struct{}
	stopOnce sync.Once
}

// New builds a Worker in the Initializing offline state. Run must be
// called exactly once, typically from its own goroutine.
func New(serverClient appconfiguration.ServerClient, configID appconfiguration.ConfigurationID, logger *slog.Logger, minWait, maxWait time.Duration) *Worker {
	return &Worker{
		serverClient: serverClient,
		configID:     configID,
		logger:       logger.With("component", "liveconfig"),
		minWait:      minWait,
		maxWait:      maxWait,
		mode:         offline(appconfiguration.OfflineInitializing),
		changed:      make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Stop signals the worker to terminate at its next cancellation point.
// It also closes whatever push channel is currently open, since a
// blocked ReadMessage call in the inner loop would otherwise never
// observe the signal. Safe to call more than once or concurrently with
// Run.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		channel := w.channel
		w.mu.Unlock()
		if channel != nil {
			channel.Close()
		}
	})
}

// Mode returns the worker's current mode.
func (w *Worker) Mode() CurrentMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Snapshot returns the last successfully fetched snapshot, or nil if
// none has ever been fetched.
func (w *Worker) Snapshot() *snapshot.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// WaitUntilOnline blocks until the mode first becomes Online or Defunct,
// or ctx is done.
func (w *Worker) WaitUntilOnline(ctx context.Context) error {
	for {
		w.mu.Lock()
		mode := w.mode
		ch := w.changed
		w.mu.Unlock()

		if mode.Kind == ModeOnline {
			return nil
		}
		if mode.Kind == ModeDefunct {
			return &appconfiguration.DefunctError{Inner: mode.Err}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (w *Worker) setMode(m CurrentMode) {
	w.mu.Lock()
	w.mode = m
	old := w.changed
	w.changed = make(chan struct{})
	w.mu.Unlock()
	close(old)
}

// Run executes the outer/inner reconnect loop until Stop is called or an
// unrecoverable error occurs, at which point the mode becomes Defunct.
// Run recovers any panic from the loop body, logs it, and treats it as
// the unrecoverable case — Go mutexes don't poison on panic the way the
// reference implementation's locks do, so this is how that escalation
// path is reproduced.
func (w *Worker) Run(ctx context.Context) {
	var finalErr error
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("live-config worker panicked", "panic", r)
			finalErr = errPanic
		}
		w.setMode(defunct(finalErr))
	}()
	finalErr = w.runOuterLoop(ctx)
}

var errPanic = errors.New("live-config worker goroutine panicked")

func (w *Worker) runOuterLoop(ctx context.Context) error {
	wait := w.minWait
	for {
		select {
		case <-w.done:
			return nil
		default:
		}

		channel, err := w.serverClient.OpenPushChannel(ctx, w.configID)
		if err != nil {
			var fatal *appconfiguration.FatalError
			if errors.As(err, &fatal) {
				w.logger.Error("unrecoverable error opening push channel", "error", err)
				return err
			}
			w.logger.Warn("recoverable error opening push channel, retrying", "error", err, "wait", wait)
			w.setMode(offline(appconfiguration.OfflineWebsocketError))
			if !w.sleep(wait) {
				return nil
			}
			wait = nextBackoff(wait, w.maxWait)
			continue
		}
		wait = w.minWait

		w.mu.Lock()
		w.channel = channel
		w.mu.Unlock()

		if err := w.refreshConfiguration(ctx); err != nil {
			channel.Close()
			return err
		}

		innerErr := w.runInnerLoop(ctx, channel)

		w.mu.Lock()
		w.channel = nil
		w.mu.Unlock()
		channel.Close()
		if innerErr != nil {
			return innerErr
		}
	}
}

// runInnerLoop reads and dispatches push-channel messages until the
// channel fails or closes (returns nil, so the outer loop reopens it) or
// a refetch hits an unrecoverable error (returned, so the worker exits).
func (w *Worker) runInnerLoop(ctx context.Context, channel appconfiguration.PushChannel) error {
	for {
		select {
		case <-w.done:
			return nil
		default:
		}

		msg, err := channel.ReadMessage()
		if err != nil {
			w.logger.Warn("push channel read failed", "error", err)
			w.setMode(offline(appconfiguration.OfflineWebsocketError))
			return nil
		}

		switch {
		case msg.IsHeartbeat():
			if w.Mode().Kind != ModeOnline {
				if err := w.refreshConfiguration(ctx); err != nil {
					return err
				}
			}
		case isCloseMessage(msg):
			w.logger.Info("push channel closed by server")
			w.setMode(offline(appconfiguration.OfflineWebsocketClosed))
			return nil
		case isDataMessage(msg):
			if err := w.refreshConfiguration(ctx); err != nil {
				return err
			}
		default:
			// binary / ping / pong: no action.
		}
	}
}

// refreshConfiguration fetches the full document and rebuilds the
// snapshot. A recoverable fetch error demotes the mode to Offline
// without aborting the worker; an unrecoverable one is returned so the
// caller can exit Defunct.
func (w *Worker) refreshConfiguration(ctx context.Context) error {
	doc, err := w.serverClient.FetchConfiguration(ctx, w.configID)
	if err != nil {
		var fatal *appconfiguration.FatalError
		if errors.As(err, &fatal) {
			w.logger.Error("unrecoverable error fetching configuration", "error", err)
			return err
		}
		w.logger.Warn("recoverable error fetching configuration", "error", err)
		if w.Mode().Kind == ModeOnline {
			w.setMode(offline(appconfiguration.OfflineFailedToGetNewConfiguration))
		}
		return nil
	}

	snap, err := snapshot.New(w.configID.EnvironmentID, doc)
	if err != nil {
		w.logger.Warn("fetched configuration failed validation", "error", err)
		w.setMode(offline(appconfiguration.OfflineConfigurationDataInvalid))
		return nil
	}

	w.mu.Lock()
	w.snapshot = snap
	w.mu.Unlock()
	w.setMode(online())
	return nil
}

// sleep blocks for d, or until Stop is called, returning false if it was
// interrupted. It does not observe ctx cancellation.
func (w *Worker) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.done:
		return false
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
