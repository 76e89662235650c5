package accounts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE accounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  salt BLOB NOT NULL,
  verifier BLOB NOT NULL,
  created_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestCreateAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Millisecond)
	a := &models.Account{
		ID:        "acc-1",
		Name:      "Alex",
		Salt:      []byte{0x01, 0x02},
		Verifier:  []byte{0x03, 0x04},
		CreatedAt: created,
	}
	require.NoError(t, r.Create(ctx, a))

	got, err := r.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, []byte{0x01, 0x02}, got.Salt)
	assert.Equal(t, []byte{0x03, 0x04}, got.Verifier)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DuplicateIDFails(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := &models.Account{ID: "dup", Name: "A", Salt: []byte{1}, Verifier: []byte{2}, CreatedAt: time.Now()}
	require.NoError(t, r.Create(ctx, a))
	require.Error(t, r.Create(ctx, a))
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_IdentityOnly(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &models.Account{
		ID: "a1", Name: "First", Salt: []byte{1}, Verifier: []byte{2},
		CreatedAt: time.UnixMilli(1000),
	}))
	require.NoError(t, r.Create(ctx, &models.Account{
		ID: "a2", Name: "Second", Salt: []byte{3}, Verifier: []byte{4},
		CreatedAt: time.UnixMilli(2000),
	}))

	got, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "First", got[0].Name)
	assert.Equal(t, "a2", got[1].ID)
}
