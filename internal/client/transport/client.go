// Package transport implements the client side of the sync protocol: a thin
// HTTP client that ships ciphertext bundles to the remote store and maps
// HTTP failures onto the shared error taxonomy.
package transport

import (
	"context"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
)

// RemoteBundle is the server's stored state for one account: the same
// groups as a SyncBatch plus server-side bookkeeping.
type RemoteBundle struct {
	models.SyncBatch
	LastSync  int64 `json:"lastSync"` // epoch-ms
	SyncCount int64 `json:"syncCount"`
}

// Client is the transport surface the sync engine depends on.
//
// All methods honor context cancellation, and every request is bounded by
// the client's own timeout, so a hung server cannot wedge the caller.
// Failures are reported through the common sentinel errors:
// common.ErrTransport for network-level trouble, common.ErrValidation and
// common.ErrRateLimited for the corresponding rejections.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	PushBatch(ctx context.Context, batch *models.SyncBatch) (*models.SyncReceipt, error)
	FetchBundle(ctx context.Context, accountID string) (*RemoteBundle, error)
	DeleteBundle(ctx context.Context, accountID, confirm string) error
}
