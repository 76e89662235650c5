package bundles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/logging"
	"github.com/ledgerlock/ledgerlock/internal/server/models"
)

// DefaultMaxBundleBytes bounds an accepted push when the config does not
// override it.
const DefaultMaxBundleBytes = 1 << 20 // 1 MiB

// Service validates incoming pushes and owns the bookkeeping the repository
// stores verbatim. It never looks inside a group element.
type Service struct {
	repo     Repository
	maxBytes int64
	logger   logging.Logger
}

// NewService builds a Service. maxBytes <= 0 selects DefaultMaxBundleBytes.
func NewService(repo Repository, maxBytes int64, logger logging.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBundleBytes
	}
	return &Service{repo: repo, maxBytes: maxBytes, logger: logger}
}

// MaxBytes returns the accepted push size limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Put accepts a raw push body, validates it and replaces the account's
// bundle. Validation failures leave the stored bundle untouched. On success
// the bundle carries a fresh lastSync stamp and an incremented syncCount,
// both echoed in the receipt.
func (s *Service) Put(ctx context.Context, raw []byte) (*models.SyncReceipt, error) {
	if int64(len(raw)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", common.ErrBundleTooLarge, len(raw), s.maxBytes)
	}

	b := &models.Bundle{}
	if err := json.Unmarshal(raw, b); err != nil {
		return nil, fmt.Errorf("%w: malformed bundle: %v", common.ErrValidation, err)
	}
	if b.AccountID == "" {
		return nil, fmt.Errorf("%w: accountId is required", common.ErrValidation)
	}
	if !ValidAccountID(b.AccountID) {
		return nil, fmt.Errorf("%w: invalid accountId", common.ErrValidation)
	}
	if b.Settings != nil && !json.Valid(b.Settings) {
		return nil, fmt.Errorf("%w: malformed settings", common.ErrValidation)
	}
	b.Normalize()

	// Carry the counter forward. Two devices racing here resolve at
	// last-write-wins granularity, same as the bundle content itself.
	prev, err := s.repo.Get(ctx, b.AccountID)
	switch {
	case err == nil:
		b.SyncCount = prev.SyncCount + 1
	case errors.Is(err, common.ErrNotFound):
		b.SyncCount = 1
	default:
		return nil, fmt.Errorf("loading previous bundle: %w", err)
	}
	b.LastSync = time.Now().UnixMilli()

	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("saving bundle: %w", err)
	}

	s.logger.Info(ctx, "bundle stored",
		"account_id", b.AccountID, "records", b.Records(), "sync_count", b.SyncCount)

	return &models.SyncReceipt{SyncCount: b.SyncCount, Timestamp: b.LastSync}, nil
}

// Get returns the stored bundle, or the structurally valid empty bundle for
// an account that never synced. The response shape never reveals whether an
// account exists.
func (s *Service) Get(ctx context.Context, accountID string) (*models.Bundle, error) {
	if !ValidAccountID(accountID) {
		return nil, fmt.Errorf("%w: invalid accountId", common.ErrValidation)
	}

	b, err := s.repo.Get(ctx, accountID)
	if errors.Is(err, common.ErrNotFound) {
		return models.EmptyBundle(accountID), nil
	}
	if err != nil {
		return nil, err
	}
	b.Normalize()
	return b, nil
}

// ConfirmPhrase is the literal a delete request must carry.
const ConfirmPhrase = "DELETE"

// Delete irreversibly removes the account's bundle. The confirmation phrase
// is required verbatim.
func (s *Service) Delete(ctx context.Context, accountID, confirm string) error {
	if !ValidAccountID(accountID) {
		return fmt.Errorf("%w: invalid accountId", common.ErrValidation)
	}
	if confirm != ConfirmPhrase {
		return fmt.Errorf("%w: confirmation %q required", common.ErrValidation, ConfirmPhrase)
	}

	if err := s.repo.Delete(ctx, accountID); err != nil {
		return err
	}

	s.logger.Info(ctx, "bundle deleted", "account_id", accountID)
	return nil
}
