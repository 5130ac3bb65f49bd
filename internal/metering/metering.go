// Package metering aggregates feature/property evaluation events into
// periodic usage batches and transmits them via ServerClient.PushMetering.
// One goroutine, one event channel buffered to 4096 events (events that
// arrive while it is full are dropped), and a 100ms cooperative tick so
// the flush timer makes progress even when no events arrive.
package metering

import (
	"context"
	"log/slog"
	"time"

	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
)

const tick = 100 * time.Millisecond

// Event is one evaluation to be aggregated. Exactly one of FeatureID/
// PropertyID is set; SegmentID is empty when no targeting rule matched.
type Event struct {
	FeatureID  string
	PropertyID string
	EntityID   string
	SegmentID  string
}

type key struct {
	featureID  string
	propertyID string
	entityID   string
	segmentID  string
}

type bucket struct {
	count     uint64
	lastEvent time.Time
}

// Aggregator owns the single goroutine that drains evaluation events,
// dedups/counts them by (subject, entity, segment), and flushes a batch
// to the server every transmitInterval.
type Aggregator struct {
	serverClient appconfiguration.ServerClient
	configID     appconfiguration.ConfigurationID
	logger       *slog.Logger
	interval     time.Duration

	events chan Event
	done   chan struct{}
}

// New builds an Aggregator. Run must be called exactly once, typically
// from its own goroutine.
func New(serverClient appconfiguration.ServerClient, configID appconfiguration.ConfigurationID, logger *slog.Logger, transmitInterval time.Duration) *Aggregator {
	return &Aggregator{
		serverClient: serverClient,
		configID:     configID,
		logger:       logger.With("component", "metering"),
		interval:     transmitInterval,
		events:       make(chan Event, 4096),
		done:         make(chan struct{}),
	}
}

// RecordFeatureEvaluation enqueues one feature evaluation event. It never
// blocks: a full queue drops the event and logs a warning, since
// metering loss is an accepted tradeoff against unbounded memory growth
// or evaluation-path backpressure.
func (a *Aggregator) RecordFeatureEvaluation(featureID, entityID, segmentID string) {
	a.enqueue(Event{FeatureID: featureID, EntityID: entityID, SegmentID: segmentID})
}

// RecordPropertyEvaluation enqueues one property evaluation event, with
// the same non-blocking, best-effort contract as RecordFeatureEvaluation.
func (a *Aggregator) RecordPropertyEvaluation(propertyID, entityID, segmentID string) {
	a.enqueue(Event{PropertyID: propertyID, EntityID: entityID, SegmentID: segmentID})
}

func (a *Aggregator) enqueue(e Event) {
	select {
	case a.events <- e:
	default:
		a.logger.Warn("metering queue full, dropping evaluation event",
			"feature_id", e.FeatureID, "property_id", e.PropertyID)
	}
}

// Stop signals the aggregator to flush and exit; Run observes the signal
// as soon as it is back in its select loop. Safe to call more than once.
func (a *Aggregator) Stop() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

// Run drains events and flushes on transmitInterval boundaries until
// Stop is called. It recovers a panic in the flush path, logging it
// rather than letting it take down the caller's goroutine tree.
func (a *Aggregator) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("metering aggregator panicked", "panic", r)
		}
	}()

	evaluations := make(map[key]*bucket)
	lastFlush := time.Now()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			a.flush(ctx, evaluations)
			return
		case <-ctx.Done():
			a.flush(ctx, evaluations)
			return
		case e := <-a.events:
			a.record(evaluations, e)
		case <-ticker.C:
		}

		if time.Since(lastFlush) >= a.interval {
			a.flush(ctx, evaluations)
			lastFlush = time.Now()
		}
	}
}

func (a *Aggregator) record(evaluations map[key]*bucket, e Event) {
	k := key{featureID: e.FeatureID, propertyID: e.PropertyID, entityID: e.EntityID, segmentID: e.SegmentID}
	b, ok := evaluations[k]
	if !ok {
		b = &bucket{}
		evaluations[k] = b
	}
	b.count++
	b.lastEvent = time.Now()
}

// flush transmits the accumulated map and clears it regardless of the
// transmission result: a failed push is not retried, since retrying
// would require unbounded memory in a client SDK.
func (a *Aggregator) flush(ctx context.Context, evaluations map[key]*bucket) {
	if len(evaluations) == 0 {
		return
	}
	usages := make([]appconfiguration.MeteringUsage, 0, len(evaluations))
	for k, b := range evaluations {
		usages = append(usages, appconfiguration.MeteringUsage{
			FeatureID:      k.featureID,
			PropertyID:     k.propertyID,
			EntityID:       k.entityID,
			SegmentID:      k.segmentID,
			EvaluationTime: b.lastEvent.UnixMilli(),
			Count:          b.count,
		})
	}
	batch := appconfiguration.MeteringBatch{
		CollectionID:  a.configID.CollectionID,
		EnvironmentID: a.configID.EnvironmentID,
		Usages:        usages,
	}
	if err := a.serverClient.PushMetering(ctx, a.configID, batch); err != nil {
		a.logger.Warn("failed to transmit metering batch", "error", err, "usages", len(usages))
	}
	for k := range evaluations {
		delete(evaluations, k)
	}
}
