package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
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

func (r *SQLiteRepository) Insert(ctx context.Context, accountID string, rec *models.Record) error {
	blob, err := json.Marshal(rec.Envelope)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	query := `INSERT INTO records (id, account_id, type, envelope, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, accountID, string(rec.Type), blob,
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, accountID string, rec *models.Record) error {
	blob, err := json.Marshal(rec.Envelope)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	query := `UPDATE records SET envelope = ?, updated_at = ? WHERE id = ? AND account_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		blob, rec.UpdatedAt.UnixMilli(), rec.ID, accountID)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, accountID, id string) error {
	query := `DELETE FROM records WHERE id = ? AND account_id = ?`
	res, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, accountID, id string) (*models.Record, error) {
	query := `SELECT id, type, envelope, created_at, updated_at FROM records
			WHERE id = ? AND account_id = ?`
	row := r.db.QueryRowContext(ctx, query, id, accountID)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, accountID string) ([]models.Record, error) {
	query := `SELECT id, type, envelope, created_at, updated_at FROM records
			WHERE account_id = ? ORDER BY created_at`
	return r.selectRecords(ctx, query, accountID)
}

func (r *SQLiteRepository) GetByType(ctx context.Context, accountID string, t models.RecordType) ([]models.Record, error) {
	query := `SELECT id, type, envelope, created_at, updated_at FROM records
			WHERE account_id = ? AND type = ? ORDER BY created_at`
	return r.selectRecords(ctx, query, accountID, string(t))
}

func (r *SQLiteRepository) selectRecords(ctx context.Context, query string, args ...any) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SetSettings(ctx context.Context, accountID string, env *cryptox.Envelope) error {
	blob, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode settings envelope: %w", err)
	}
	query := `INSERT INTO settings (account_id, envelope, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(account_id) DO UPDATE SET envelope = excluded.envelope,
				updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query, accountID, blob, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, accountID string) (*cryptox.Envelope, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT envelope FROM settings WHERE account_id = ?`, accountID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	env := &cryptox.Envelope{}
	if err := json.Unmarshal(blob, env); err != nil {
		return nil, fmt.Errorf("failed to decode settings envelope: %w", err)
	}
	return env, nil
}

// ReplaceAll swaps the account's entire local state for the given records
// and settings in one transaction: either the full replacement lands or the
// previous state survives untouched. Used when restoring from the server's
// bundle.
func ReplaceAll(ctx context.Context, db *sql.DB, accountID string, recs []models.Record, settings *cryptox.Envelope) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)

		if err := repo.DeleteAll(ctx, accountID); err != nil {
			return err
		}
		for i := range recs {
			if err := repo.Insert(ctx, accountID, &recs[i]); err != nil {
				return err
			}
		}

		if settings == nil {
			_, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE account_id = ?`, accountID)
			if err != nil {
				return fmt.Errorf("failed to delete settings: %w", err)
			}
			return nil
		}
		return repo.SetSettings(ctx, accountID, settings)
	})
}

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	rec := &models.Record{}
	var typ string
	var blob []byte
	var createdAt, updatedAt int64
	if err := scan(&rec.ID, &typ, &blob, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	env := &cryptox.Envelope{}
	if err := json.Unmarshal(blob, env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	rec.Type = models.RecordType(typ)
	rec.Envelope = env
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return rec, nil
}
