package accounts

import (
	"context"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
)

// Repository describes durable storage for the account registry.
// Implementations are backed by the local SQLite database.
type Repository interface {
	// Create persists a new account row. The row is immutable afterwards.
	Create(ctx context.Context, a *models.Account) error

	// GetByID returns the full account row, including salt and verifier.
	// Returns common.ErrNotFound if the id is unknown.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// List returns identity fields only (id, name, createdAt), never salt
	// or verifier.
	List(ctx context.Context) ([]models.AccountInfo, error)
}
