package records

import (
	"context"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
)

// Repository describes durable storage for encrypted finance records.
// All queries are scoped to one account; the envelope column is opaque
// ciphertext to this layer.
type Repository interface {
	// Insert persists a new record.
	Insert(ctx context.Context, accountID string, rec *models.Record) error

	// Update overwrites the envelope and updated_at of an existing record.
	// Returns common.ErrNotFound if the id is absent for this account.
	Update(ctx context.Context, accountID string, rec *models.Record) error

	// DeleteByID removes a record permanently (hard delete, no tombstone).
	// Returns common.ErrNotFound if the id is absent for this account.
	DeleteByID(ctx context.Context, accountID, id string) error

	// DeleteAll removes every record of the account. Deleting from an
	// account with no records is not an error.
	DeleteAll(ctx context.Context, accountID string) error

	// GetByID returns a single record.
	GetByID(ctx context.Context, accountID, id string) (*models.Record, error)

	// GetAll returns every record for the account.
	GetAll(ctx context.Context, accountID string) ([]models.Record, error)

	// GetByType returns records of one type for the account.
	GetByType(ctx context.Context, accountID string, t models.RecordType) ([]models.Record, error)

	// SetSettings upserts the account's encrypted settings blob.
	SetSettings(ctx context.Context, accountID string, env *cryptox.Envelope) error

	// GetSettings returns the settings blob, or (nil, nil) if none was set.
	GetSettings(ctx context.Context, accountID string) (*cryptox.Envelope, error)
}
