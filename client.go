package appconfiguration

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/evaluator"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/liveconfig"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/metering"
	"github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/snapshot"
)

// ConfigurationSource is the capability set every evaluation client
// exposes: id enumeration, handle retrieval, and an online indicator.
// *Client is the live, push-channel-backed implementation; a source
// backed by a static snapshot (e.g. one loaded from a file) satisfies
// the same interface, so code consuming flags never needs to know
// which it was handed.
type ConfigurationSource interface {
	FeatureIDs() ([]string, error)
	PropertyIDs() ([]string, error)
	GetFeature(id string) (FeatureHandle, error)
	GetProperty(id string) (PropertyHandle, error)
	Online() bool
}

var _ ConfigurationSource = (*Client)(nil)

// FeatureHandle evaluates one feature flag against caller-supplied
// entities. Obtained from Client.GetFeature (re-resolves the current
// snapshot on every call) or Client.GetFeatureSnapshot (bound to the
// snapshot at acquisition time).
type FeatureHandle interface {
	Name() string
	IsEnabled() bool
	Value(entity Entity) (Value, error)
}

// PropertyHandle evaluates one typed property against caller-supplied
// entities. Obtained from Client.GetProperty or Client.GetPropertySnapshot.
type PropertyHandle interface {
	Name() string
	Value(entity Entity) (Value, error)
}

// ValueAs evaluates h against entity and coerces the result into T. T
// must be one of bool, string, int64, uint64, float64 — any other type
// parameter always fails with MismatchTypeError.
func ValueAs[T any](h interface{ Value(Entity) (Value, error) }, entity Entity) (T, error) {
	var zero T
	v, err := h.Value(entity)
	if err != nil {
		return zero, err
	}
	switch any(zero).(type) {
	case bool:
		b, err := v.AsBool()
		if err != nil {
			return zero, err
		}
		return any(b).(T), nil
	case string:
		s, err := v.AsString()
		if err != nil {
			return zero, err
		}
		return any(s).(T), nil
	case int64:
		n, err := v.AsInt64()
		if err != nil {
			return zero, err
		}
		return any(n).(T), nil
	case uint64:
		n, err := v.AsUInt64()
		if err != nil {
			return zero, err
		}
		return any(n).(T), nil
	case float64:
		f, err := v.AsFloat64()
		if err != nil {
			return zero, err
		}
		return any(f).(T), nil
	default:
		return zero, &MismatchTypeError{Message: "ValueAs does not support this target type"}
	}
}

// Client is the evaluation façade: it owns the live-configuration worker
// and, unless disabled, the metering aggregator, and serves feature/
// property handles resolved against whichever snapshot the current mode
// and offline policy select.
type Client struct {
	configID ConfigurationID
	logger   *slog.Logger
	offline  OfflineMode
	fallback *snapshot.Snapshot

	worker     *liveconfig.Worker
	aggregator *metering.Aggregator // nil when metering is disabled

	cancel     context.CancelFunc
	workerDone chan struct{}
	meterDone  chan struct{}

	bootstrap singleflight.Group
	shutdown  atomic.Bool
}

// New creates a Client bound to configID, spawns its live-configuration
// worker, and — unless WithMeteringDisabled was given — its metering
// aggregator. The client starts in the worker's Initializing offline
// state; call WaitUntilOnline to block until the first configuration
// fetch succeeds.
func New(configID ConfigurationID, serverClient ServerClient, opts ...Option) (*Client, error) {
	cfg := newConfig(opts)

	var fallback *snapshot.Snapshot
	if cfg.Offline.kind == offlineModeFallbackData {
		if cfg.Offline.fallback == nil {
			return nil, fmt.Errorf("fallback offline mode requires a non-nil document")
		}
		snap, err := snapshot.New(configID.EnvironmentID, cfg.Offline.fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback configuration: %w", err)
		}
		fallback = snap
	}

	ctx, cancel := context.WithCancel(context.Background())
	worker := liveconfig.New(serverClient, configID, cfg.Logger, cfg.ReconnectMinWait, cfg.ReconnectMaxWait)

	c := &Client{
		configID:   configID,
		logger:     cfg.Logger.With("component", "client"),
		offline:    cfg.Offline,
		fallback:   fallback,
		worker:     worker,
		cancel:     cancel,
		workerDone: make(chan struct{}),
	}

	go func() {
		worker.Run(ctx)
		close(c.workerDone)
	}()

	if !cfg.MeteringDisabled {
		c.aggregator = metering.New(serverClient, configID, cfg.Logger, cfg.MeteringTransmitInterval)
		c.meterDone = make(chan struct{})
		go func() {
			c.aggregator.Run(ctx)
			close(c.meterDone)
		}()
	}

	c.logger.Info("client created", "config_id", configID.String())
	return c, nil
}

// Online reports whether the live-configuration worker currently holds
// a fresh snapshot.
func (c *Client) Online() bool {
	return c.worker.Mode().Kind == liveconfig.ModeOnline
}

// WaitUntilOnline blocks until the worker's mode first becomes Online or
// Defunct, or ctx is done. Concurrent callers made while the first call
// is still in flight share its result rather than each re-polling the
// worker's mode independently.
func (c *Client) WaitUntilOnline(ctx context.Context) error {
	_, err, _ := c.bootstrap.Do("wait-until-online", func() (any, error) {
		return nil, c.worker.WaitUntilOnline(ctx)
	})
	return err
}

// FeatureIDs returns every feature id in the snapshot selected by the
// current mode and offline policy.
func (c *Client) FeatureIDs() ([]string, error) {
	snap, err := c.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	return snap.FeatureIDs(), nil
}

// PropertyIDs returns every property id in the snapshot selected by the
// current mode and offline policy.
func (c *Client) PropertyIDs() ([]string, error) {
	snap, err := c.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	return snap.PropertyIDs(), nil
}

// GetFeature returns a live handle for id: every Value/IsEnabled call
// re-resolves the current snapshot, so a configuration change takes
// effect on the handle's very next use.
func (c *Client) GetFeature(id string) (FeatureHandle, error) {
	snap, err := c.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	if _, err := snap.GetFeature(id); err != nil {
		return nil, err
	}
	return &liveFeatureHandle{client: c, id: id}, nil
}

// GetFeatureSnapshot returns a handle bound to the snapshot that exists
// at the time of this call. Repeated evaluations against it are stable
// even if the background snapshot later changes.
func (c *Client) GetFeatureSnapshot(id string) (FeatureHandle, error) {
	snap, err := c.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	f, err := snap.GetFeature(id)
	if err != nil {
		return nil, err
	}
	return &snapshotFeatureHandle{client: c, feature: f}, nil
}

// GetProperty returns a live handle for id, re-resolving the current
// snapshot on every call.
func (c *Client) GetProperty(id string) (PropertyHandle, error) {
	snap, err := c.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	if _, err := snap.GetProperty(id); err != nil {
		return nil, err
	}
	return &livePropertyHandle{client: c, id: id}, nil
}

// GetPropertySnapshot returns a handle bound to the snapshot that exists
// at the time of this call.
func (c *Client) GetPropertySnapshot(id string) (PropertyHandle, error) {
	snap, err := c.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	p, err := snap.GetProperty(id)
	if err != nil {
		return nil, err
	}
	return &snapshotPropertyHandle{client: c, property: p}, nil
}

// Shutdown flips an atomic closed flag, stops the worker and aggregator
// goroutines, then waits — bounded by ctx — for both to exit. The flag
// only guards against repeated shutdown: reads are not checked against
// it, and fail with DefunctError once the worker has exited.
// Safe to call more than once; subsequent calls return nil immediately.
// If ctx expires first, Shutdown returns ctx.Err() but the client
// remains logically shut down: the goroutines will still exit on their
// own, just not within this call.
func (c *Client) Shutdown(ctx context.Context) error {
	if !c.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debug("shutting down client")
	c.worker.Stop()
	if c.aggregator != nil {
		c.aggregator.Stop()
	}
	c.cancel()

	if err := waitOrDeadline(ctx, c.workerDone); err != nil {
		c.logger.Warn("context deadline exceeded waiting for live-config worker to exit", "error", err)
		return err
	}
	if c.meterDone != nil {
		if err := waitOrDeadline(ctx, c.meterDone); err != nil {
			c.logger.Warn("context deadline exceeded waiting for metering aggregator to exit", "error", err)
			return err
		}
	}
	c.logger.Debug("client shut down")
	return nil
}

func waitOrDeadline(ctx context.Context, done chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recorder adapts the metering aggregator to evaluator.Recorder, or
// returns a true nil interface when metering is disabled.
func (c *Client) recorder() evaluator.Recorder {
	if c.aggregator == nil {
		return nil
	}
	return c.aggregator
}

// resolveSnapshot applies the offline-mode policy to pick which
// snapshot a read should see.
func (c *Client) resolveSnapshot() (*snapshot.Snapshot, error) {
	mode := c.worker.Mode()
	switch mode.Kind {
	case liveconfig.ModeDefunct:
		return nil, &DefunctError{Inner: mode.Err}
	case liveconfig.ModeOnline:
		return c.worker.Snapshot(), nil
	default:
		switch c.offline.kind {
		case offlineModeFail:
			return nil, &OfflineError{Reason: mode.OfflineReason}
		case offlineModeFallbackData:
			return c.fallback, nil
		default:
			snap := c.worker.Snapshot()
			if snap == nil {
				return nil, &ConfigurationNotYetAvailableError{}
			}
			return snap, nil
		}
	}
}

type liveFeatureHandle struct {
	client *Client
	id     string
}

func (h *liveFeatureHandle) resolve() (*snapshot.Feature, error) {
	snap, err := h.client.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	return snap.GetFeature(h.id)
}

func (h *liveFeatureHandle) Name() string {
	f, err := h.resolve()
	if err != nil {
		return h.id
	}
	return f.Name
}

func (h *liveFeatureHandle) IsEnabled() bool {
	f, err := h.resolve()
	if err != nil {
		return false
	}
	return f.Enabled
}

func (h *liveFeatureHandle) Value(entity Entity) (Value, error) {
	f, err := h.resolve()
	if err != nil {
		return Value{}, err
	}
	return evaluator.EvaluateFeature(f, entity, h.client.recorder())
}

type snapshotFeatureHandle struct {
	client  *Client
	feature *snapshot.Feature
}

func (h *snapshotFeatureHandle) Name() string    { return h.feature.Name }
func (h *snapshotFeatureHandle) IsEnabled() bool { return h.feature.Enabled }
func (h *snapshotFeatureHandle) Value(entity Entity) (Value, error) {
	return evaluator.EvaluateFeature(h.feature, entity, h.client.recorder())
}

type livePropertyHandle struct {
	client *Client
	id     string
}

func (h *livePropertyHandle) resolve() (*snapshot.Property, error) {
	snap, err := h.client.resolveSnapshot()
	if err != nil {
		return nil, err
	}
	return snap.GetProperty(h.id)
}

func (h *livePropertyHandle) Name() string {
	p, err := h.resolve()
	if err != nil {
		return h.id
	}
	return p.Name
}

func (h *livePropertyHandle) Value(entity Entity) (Value, error) {
	p, err := h.resolve()
	if err != nil {
		return Value{}, err
	}
	return evaluator.EvaluateProperty(p, entity, h.client.recorder())
}

type snapshotPropertyHandle struct {
	client   *Client
	property *snapshot.Property
}

func (h *snapshotPropertyHandle) Name() string { return h.property.Name }
func (h *snapshotPropertyHandle) Value(entity Entity) (Value, error) {
	return evaluator.EvaluateProperty(h.property, entity, h.client.recorder())
}
