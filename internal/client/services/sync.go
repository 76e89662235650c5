package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/transport"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/logging"
)

// SyncStatus is the externally observable state of the sync engine.
type SyncStatus int

const (
	SyncStatusIdle SyncStatus = iota
	SyncStatusPending
	SyncStatusSyncing
	SyncStatusSynced
	SyncStatusOffline
	SyncStatusError
)

func (s SyncStatus) String() string {
	switch s {
	case SyncStatusIdle:
		return "idle"
	case SyncStatusPending:
		return "pending"
	case SyncStatusSyncing:
		return "syncing"
	case SyncStatusSynced:
		return "synced"
	case SyncStatusOffline:
		return "offline"
	case SyncStatusError:
		return "error"
	}
	return "unknown"
}

// Snapshotter provides the full-state batch the engine pushes. The local
// store implements it.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*models.SyncBatch, error)
}

// DefaultDebounce is the window after the last mutation before a batch is
// built and pushed.
const DefaultDebounce = 2 * time.Second

// SyncEngine coalesces local mutations into at most one outbound sync per
// debounce window and guarantees at most one request in flight.
//
// The engine is a single consumer goroutine fed by a capacity-1 mailbox:
// Schedule is a non-blocking send, so any burst of mutations collapses into
// one wakeup. Each wakeup (re)starts the debounce timer; when the timer
// fires the engine snapshots the store and pushes. A mutation arriving
// while a push is in flight parks in the mailbox and starts a fresh
// debounce cycle as soon as the push returns. There is no queue and no
// second goroutine, so concurrent syncs are impossible by construction.
//
// Transport failures surface as SyncStatusOffline, application rejections
// as SyncStatusError. The engine never retries on its own; the next attempt
// rides the next mutation-triggered cycle.
type SyncEngine struct {
	snap     Snapshotter
	client   transport.Client
	debounce time.Duration
	logger   logging.Logger

	notify   chan struct{}
	onStatus func(SyncStatus)

	mu     sync.Mutex
	status SyncStatus
}

// NewSyncEngine constructs an engine. onStatus may be nil; when set it is
// invoked synchronously from the engine goroutine on every transition.
func NewSyncEngine(snap Snapshotter, client transport.Client, debounce time.Duration, logger logging.Logger, onStatus func(SyncStatus)) *SyncEngine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SyncEngine{
		snap:     snap,
		client:   client,
		debounce: debounce,
		logger:   logger,
		notify:   make(chan struct{}, 1),
		onStatus: onStatus,
		status:   SyncStatusIdle,
	}
}

// Schedule requests a sync "soon". It is safe from any goroutine, never
// blocks, and coalesces with any request already pending.
func (e *SyncEngine) Schedule() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Status returns the engine's current state.
func (e *SyncEngine) Status() SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *SyncEngine) setStatus(s SyncStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
	if e.onStatus != nil {
		e.onStatus(s)
	}
}

// Run drives the engine until ctx is cancelled. Cancellation drops any
// pending debounce; a push already dispatched runs to its transport
// timeout but is never followed by another.
func (e *SyncEngine) Run(ctx context.Context) {
	for {
		// Idle: wait for the first mutation.
		select {
		case <-ctx.Done():
			return
		case <-e.notify:
		}
		e.setStatus(SyncStatusPending)

		// Debounce: further mutations reset the timer instead of
		// creating new ones.
		timer := time.NewTimer(e.debounce)
	debounce:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-e.notify:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(e.debounce)
			case <-timer.C:
				break debounce
			}
		}

		e.setStatus(SyncStatusSyncing)
		// A dispatched push is never cancelled, only superseded: detach
		// it from run-context cancellation and let the transport timeout
		// bound it instead.
		err := e.syncOnce(context.WithoutCancel(ctx))
		switch {
		case err == nil:
			e.setStatus(SyncStatusSynced)
		case errors.Is(err, common.ErrTransport):
			e.logger.Warn(ctx, "sync failed, server unreachable", "error", err)
			e.setStatus(SyncStatusOffline)
		default:
			e.logger.Error(ctx, "sync rejected", "error", err)
			e.setStatus(SyncStatusError)
		}
		// Cancellation during the push means sign-out: stop before a
		// parked mutation can start another cycle.
		select {
		case <-ctx.Done():
			return
		default:
		}
		// Mutations that arrived mid-flight are parked in the mailbox;
		// the outer loop picks them up immediately and begins a fresh
		// debounce cycle.
	}
}

func (e *SyncEngine) syncOnce(ctx context.Context) error {
	batch, err := e.snap.Snapshot(ctx)
	if err != nil {
		return err
	}

	receipt, err := e.client.PushBatch(ctx, batch)
	if err != nil {
		return err
	}

	e.logger.Debug(ctx, "sync complete",
		"records", batch.Len(), "sync_count", receipt.SyncCount)
	return nil
}
