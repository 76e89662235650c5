// Package bundles stores and validates per-account ciphertext bundles. The
// Service enforces shape and size; persistence is pluggable behind
// Repository with file, Postgres and S3 backends.
package bundles

import (
	"context"
	"regexp"

	"github.com/ledgerlock/ledgerlock/internal/server/models"
)

// Repository persists one bundle per account. Save replaces the whole
// bundle atomically; Get returns common.ErrNotFound for accounts that never
// synced; Delete returns common.ErrNotFound when there is nothing to remove.
type Repository interface {
	Save(ctx context.Context, b *models.Bundle) error
	Get(ctx context.Context, accountID string) (*models.Bundle, error)
	Delete(ctx context.Context, accountID string) error
	Close() error
}

// accountIDPattern bounds what an account id may look like before it is used
// as a file name or object key. UUIDs pass; path tricks do not.
var accountIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidAccountID reports whether id is safe to use as a storage key.
func ValidAccountID(id string) bool {
	return accountIDPattern.MatchString(id)
}
