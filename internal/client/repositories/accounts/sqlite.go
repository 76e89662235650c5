package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (id, name, salt, verifier, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Salt, a.Verifier, a.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, name, salt, verifier, created_at FROM accounts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	a := &models.Account{}
	var createdAt int64
	if err := row.Scan(&a.ID, &a.Name, &a.Salt, &a.Verifier, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return a, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.AccountInfo, error) {
	query := `SELECT id, name, created_at FROM accounts ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	var result []models.AccountInfo
	for rows.Next() {
		var item models.AccountInfo
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.Name, &createdAt); err != nil {
			return nil, err
		}
		item.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
