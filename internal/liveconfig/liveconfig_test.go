package liveconfig

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	appconfiguration "github.com/ibm-appconfig-community/appconfiguration-go-sdk/internal/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func emptyDocument(t *testing.T) *appconfiguration.Document {
	t.Helper()
	return &appconfiguration.Document{
		Environments: []appconfiguration.EnvironmentDoc{{EnvironmentID: "prod"}},
	}
}

type fakePushChannel struct {
	messages  chan appconfiguration.PushMessage
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakePushChannel() *fakePushChannel {
	return &fakePushChannel{
		messages: make(chan appconfiguration.PushMessage, 8),
		closed:   make(chan struct{}),
	}
}

func (p *fakePushChannel) ReadMessage() (appconfiguration.PushMessage, error) {
	select {
	case msg, ok := <-p.messages:
		if !ok {
			return appconfiguration.PushMessage{}, errChannelClosed
		}
		return msg, nil
	case <-p.closed:
		return appconfiguration.PushMessage{}, errChannelClosed
	}
}

func (p *fakePushChannel) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

var errChannelClosed = errors.New("fake push channel closed")

type fakeServerClient struct {
	openCount  int32
	fetchCount int32
	fetchFunc  func(attempt int32) (*appconfiguration.Document, error)
	openFunc   func(attempt int32) (appconfiguration.PushChannel, error)
}

func (f *fakeServerClient) FetchConfiguration(ctx context.Context, id appconfiguration.ConfigurationID) (*appconfiguration.Document, error) {
	n := atomic.AddInt32(&f.fetchCount, 1)
	return f.fetchFunc(n)
}

func (f *fakeServerClient) OpenPushChannel(ctx context.Context, id appconfiguration.ConfigurationID) (appconfiguration.PushChannel, error) {
	n := atomic.AddInt32(&f.openCount, 1)
	return f.openFunc(n)
}

func (f *fakeServerClient) PushMetering(ctx context.Context, id appconfiguration.ConfigurationID, batch appconfiguration.MeteringBatch) error {
	return nil
}

func newTestWorker(t *testing.T, sc appconfiguration.ServerClient) *Worker {
	t.Helper()
	return New(sc, appconfiguration.ConfigurationID{EnvironmentID: "prod"}, slog.Default(), time.Millisecond, 10*time.Millisecond)
}

// TestS6OfflineTransition: the worker goes Online, then a later refetch
// fails with a recoverable error; mode must become
// Offline(FailedToGetNewConfiguration).
func TestS6OfflineTransition(t *testing.T) {
	doc := emptyDocument(t)
	channel := newFakePushChannel()
	sc := &fakeServerClient{
		fetchFunc: func(attempt int32) (*appconfiguration.Document, error) {
			if attempt <= 1 {
				return doc, nil
			}
			return nil, errors.New("transport error")
		},
		openFunc: func(attempt int32) (appconfiguration.PushChannel, error) {
			return channel, nil
		},
	}
	w := newTestWorker(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	defer w.Stop()

	require.NoError(t, w.WaitUntilOnline(ctx))

	channel.messages <- appconfiguration.PushMessage{Type: websocket.TextMessage, Payload: []byte("config changed")}

	require.Eventually(t, func() bool {
		m := w.Mode()
		return m.Kind == ModeOffline && m.OfflineReason == appconfiguration.OfflineFailedToGetNewConfiguration
	}, time.Second, time.Millisecond)
}

// TestS7PushChannelCloseReopens: a close frame demotes the worker to
// Offline(WebsocketClosed); it must reopen the push channel at least
// once afterward.
func TestS7PushChannelCloseReopens(t *testing.T) {
	doc := emptyDocument(t)
	first := newFakePushChannel()
	second := newFakePushChannel()
	channels := []*fakePushChannel{first, second}

	sc := &fakeServerClient{
		fetchFunc: func(attempt int32) (*appconfiguration.Document, error) { return doc, nil },
		openFunc: func(attempt int32) (appconfiguration.PushChannel, error) {
			idx := attempt - 1
			if int(idx) >= len(channels) {
				idx = int32(len(channels) - 1)
			}
			return channels[idx], nil
		},
	}
	w := newTestWorker(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	defer w.Stop()

	require.NoError(t, w.WaitUntilOnline(ctx))

	first.messages <- appconfiguration.PushMessage{Type: websocket.CloseMessage}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&sc.openCount) >= 2
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return w.Mode().Kind == ModeOnline
	}, time.Second, time.Millisecond)
}

func TestWaitUntilOnlineRespectsContextCancellation(t *testing.T) {
	sc := &fakeServerClient{
		fetchFunc: func(attempt int32) (*appconfiguration.Document, error) { return nil, errors.New("down") },
		openFunc:  func(attempt int32) (appconfiguration.PushChannel, error) { return nil, errors.New("down") },
	}
	w := newTestWorker(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	defer w.Stop()
	defer cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	err := w.WaitUntilOnline(waitCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStopTerminatesWorker(t *testing.T) {
	doc := emptyDocument(t)
	channel := newFakePushChannel()
	sc := &fakeServerClient{
		fetchFunc: func(attempt int32) (*appconfiguration.Document, error) { return doc, nil },
		openFunc:  func(attempt int32) (appconfiguration.PushChannel, error) { return channel, nil },
	}
	w := newTestWorker(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.NoError(t, w.WaitUntilOnline(context.Background()))
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not terminate after Stop")
	}
	assert.Equal(t, ModeDefunct, w.Mode().Kind)
}
