package bundles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/server/migrations"
	"github.com/ledgerlock/ledgerlock/internal/server/models"
	"github.com/pressly/goose/v3"
)

// PostgresRepository stores each bundle as a single jsonb row; the replace
// is one upsert, so it is atomic per account.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository connects via the pgx stdlib driver and applies the
// embedded migrations.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Save(ctx context.Context, b *models.Bundle) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}

	query := `INSERT INTO bundles (account_id, payload, last_sync, sync_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE SET
			payload = excluded.payload,
			last_sync = excluded.last_sync,
			sync_count = excluded.sync_count`

	if _, err := r.db.ExecContext(ctx, query, b.AccountID, payload, b.LastSync, b.SyncCount); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*models.Bundle, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM bundles WHERE account_id = $1`, accountID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	b := &models.Bundle{}
	if err := json.Unmarshal(payload, b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bundles WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
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

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
