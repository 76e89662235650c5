package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/transport"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context) (*models.SyncBatch, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return models.NewSyncBatch("acc-1"), nil
}

// fakeClient counts pushes, optionally fails them, and can hold a push open
// until released so tests can observe in-flight behavior.
type fakeClient struct {
	mu         sync.Mutex
	pushes     int
	inFlight   int
	maxIn      int
	pushErr    error
	lastCtxErr error
	block      chan struct{} // when non-nil, PushBatch waits on it
}

func (f *fakeClient) Close() error                   { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) PushBatch(ctx context.Context, batch *models.SyncBatch) (*models.SyncReceipt, error) {
	f.mu.Lock()
	f.pushes++
	f.inFlight++
	if f.inFlight > f.maxIn {
		f.maxIn = f.inFlight
	}
	block := f.block
	err := f.pushErr
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	f.lastCtxErr = ctx.Err()
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &models.SyncReceipt{SyncCount: 1, Timestamp: time.Now().UnixMilli()}, nil
}

func (f *fakeClient) FetchBundle(ctx context.Context, accountID string) (*transport.RemoteBundle, error) {
	return nil, common.ErrNotFound
}

func (f *fakeClient) DeleteBundle(ctx context.Context, accountID, confirm string) error {
	return nil
}

func (f *fakeClient) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes
}

func (f *fakeClient) maxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxIn
}

func (f *fakeClient) pushContextErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCtxErr
}

// statusRecorder collects transitions and lets tests wait for one.
type statusRecorder struct {
	mu     sync.Mutex
	states []SyncStatus
	ch     chan SyncStatus
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{ch: make(chan SyncStatus, 32)}
}

func (r *statusRecorder) record(s SyncStatus) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *statusRecorder) waitFor(t *testing.T, want SyncStatus) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %v", want)
		}
	}
}

func (r *statusRecorder) all() []SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SyncStatus(nil), r.states...)
}

func startEngine(t *testing.T, snap Snapshotter, client transport.Client, debounce time.Duration) (*SyncEngine, *statusRecorder) {
	t.Helper()
	rec := newStatusRecorder()
	e := NewSyncEngine(snap, client, debounce, logging.NewNopLogger(), rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return e, rec
}

func TestSchedule_BurstCoalescesToOnePush(t *testing.T) {
	snap := &fakeSnapshotter{}
	client := &fakeClient{}
	e, rec := startEngine(t, snap, client, 50*time.Millisecond)

	for i := 0; i < 10; i++ {
		e.Schedule()
	}
	rec.waitFor(t, SyncStatusSynced)

	assert.Equal(t, 1, client.pushCount())
	assert.EqualValues(t, 1, snap.calls.Load())
	assert.Equal(t, SyncStatusSynced, e.Status())
}

func TestSchedule_SpacedMutationsEachSync(t *testing.T) {
	snap := &fakeSnapshotter{}
	client := &fakeClient{}
	e, rec := startEngine(t, snap, client, 20*time.Millisecond)

	for i := 0; i < 3; i++ {
		e.Schedule()
		rec.waitFor(t, SyncStatusSynced)
	}

	assert.Equal(t, 3, client.pushCount())
}

func TestMutationDuringFlight_AtMostOneInFlight(t *testing.T) {
	snap := &fakeSnapshotter{}
	release := make(chan struct{})
	client := &fakeClient{block: release}
	e, rec := startEngine(t, snap, client, 10*time.Millisecond)

	e.Schedule()
	rec.waitFor(t, SyncStatusSyncing)

	// mutations while a push is open must not start a second push
	e.Schedule()
	e.Schedule()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, client.pushCount())

	close(release)
	rec.waitFor(t, SyncStatusSynced)

	// the parked mutation triggers exactly one follow-up cycle
	rec.waitFor(t, SyncStatusSyncing)
	rec.waitFor(t, SyncStatusSynced)
	assert.Equal(t, 2, client.pushCount())
	assert.Equal(t, 1, client.maxInFlight())
}

func TestTransportFailure_GoesOffline(t *testing.T) {
	snap := &fakeSnapshotter{}
	client := &fakeClient{pushErr: fmt.Errorf("%w: connection refused", common.ErrTransport)}
	e, rec := startEngine(t, snap, client, 10*time.Millisecond)

	e.Schedule()
	rec.waitFor(t, SyncStatusOffline)
	assert.Equal(t, SyncStatusOffline, e.Status())

	// recovery: next mutation retries and succeeds
	client.mu.Lock()
	client.pushErr = nil
	client.mu.Unlock()

	e.Schedule()
	rec.waitFor(t, SyncStatusSynced)
	assert.Equal(t, 2, client.pushCount())
}

func TestServerRejection_GoesError(t *testing.T) {
	snap := &fakeSnapshotter{}
	client := &fakeClient{pushErr: fmt.Errorf("%w: bundle too large", common.ErrValidation)}
	e, rec := startEngine(t, snap, client, 10*time.Millisecond)

	e.Schedule()
	rec.waitFor(t, SyncStatusError)
	assert.Equal(t, SyncStatusError, e.Status())
}

func TestSnapshotFailure_GoesError(t *testing.T) {
	snap := &fakeSnapshotter{err: errors.New("database is locked")}
	client := &fakeClient{}
	e, rec := startEngine(t, snap, client, 10*time.Millisecond)

	e.Schedule()
	rec.waitFor(t, SyncStatusError)
	assert.Equal(t, 0, client.pushCount())
}

func TestRun_CancelDropsPendingDebounce(t *testing.T) {
	snap := &fakeSnapshotter{}
	client := &fakeClient{}
	rec := newStatusRecorder()
	e := NewSyncEngine(snap, client, time.Hour, logging.NewNopLogger(), rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()

	e.Schedule()
	rec.waitFor(t, SyncStatusPending)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop on cancel")
	}
	assert.Equal(t, 0, client.pushCount())
}

func TestRun_CancelDuringFlightDoesNotAbortPush(t *testing.T) {
	snap := &fakeSnapshotter{}
	release := make(chan struct{})
	client := &fakeClient{block: release}
	rec := newStatusRecorder()
	e := NewSyncEngine(snap, client, 10*time.Millisecond, logging.NewNopLogger(), rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()

	e.Schedule()
	rec.waitFor(t, SyncStatusSyncing)

	// sign out while the push is on the wire; park another mutation too
	cancel()
	e.Schedule()
	time.Sleep(20 * time.Millisecond)

	// the push is still open: cancellation must not have reached it
	assert.Equal(t, 1, client.pushCount())
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after the push returned")
	}

	// the dispatched push ran to completion with a live context, and the
	// parked mutation never started a follow-up cycle
	assert.NoError(t, client.pushContextErr())
	assert.Equal(t, 1, client.pushCount())
	assert.Equal(t, SyncStatusSynced, e.Status())
}

func TestStatusTransitions_HappyPathOrder(t *testing.T) {
	snap := &fakeSnapshotter{}
	client := &fakeClient{}
	e, rec := startEngine(t, snap, client, 10*time.Millisecond)

	e.Schedule()
	rec.waitFor(t, SyncStatusSynced)

	require.Equal(t,
		[]SyncStatus{SyncStatusPending, SyncStatusSyncing, SyncStatusSynced},
		rec.all()[:3])
}

func TestSyncStatus_String(t *testing.T) {
	assert.Equal(t, "idle", SyncStatusIdle.String())
	assert.Equal(t, "offline", SyncStatusOffline.String())
	assert.Equal(t, "unknown", SyncStatus(99).String())
}
