package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const accID = "acc-1"

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  type TEXT NOT NULL,
  envelope BLOB NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE TABLE settings (
  account_id TEXT PRIMARY KEY,
  envelope BLOB NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func testRecord(t *testing.T, typ models.RecordType) *models.Record {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Record{
		ID:   models.NewRecordID(typ),
		Type: typ,
		Envelope: &cryptox.Envelope{
			Version:   cryptox.EnvelopeVersion,
			Algorithm: cryptox.EnvelopeAlgorithm,
			IV:        common.GenerateRandByteArray(12),
			Data:      common.GenerateRandByteArray(48),
			Timestamp: now.UnixMilli(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := testRecord(t, models.RecordTypeTransaction)
	require.NoError(t, r.Insert(ctx, accID, rec))

	got, err := r.GetByID(ctx, accID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, models.RecordTypeTransaction, got.Type)
	assert.Equal(t, rec.Envelope, got.Envelope)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
}

func TestGetByID_WrongAccountIsNotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := testRecord(t, models.RecordTypeGoal)
	require.NoError(t, r.Insert(ctx, accID, rec))

	_, err := r.GetByID(ctx, "other-account", rec.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdate_OverwritesEnvelopeInPlace(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := testRecord(t, models.RecordTypeBill)
	require.NoError(t, r.Insert(ctx, accID, rec))

	rec.Envelope.IV = common.GenerateRandByteArray(12)
	rec.Envelope.Data = common.GenerateRandByteArray(64)
	rec.UpdatedAt = rec.UpdatedAt.Add(5 * time.Second)
	require.NoError(t, r.Update(ctx, accID, rec))

	got, err := r.GetByID(ctx, accID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Envelope, got.Envelope)
	assert.Equal(t, rec.UpdatedAt, got.UpdatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	rec := testRecord(t, models.RecordTypeBudget)
	err := r.Update(context.Background(), accID, rec)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteByID_HardDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec := testRecord(t, models.RecordTypeReminder)
	require.NoError(t, r.Insert(ctx, accID, rec))
	require.NoError(t, r.DeleteByID(ctx, accID, rec.ID))

	// no tombstone: row is gone
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n))
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, r.DeleteByID(ctx, accID, rec.ID), common.ErrNotFound)
}

func TestGetAllAndGetByType(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	tx1 := testRecord(t, models.RecordTypeTransaction)
	tx2 := testRecord(t, models.RecordTypeTransaction)
	goal := testRecord(t, models.RecordTypeGoal)
	require.NoError(t, r.Insert(ctx, accID, tx1))
	require.NoError(t, r.Insert(ctx, accID, tx2))
	require.NoError(t, r.Insert(ctx, accID, goal))

	// a different account's records must not leak in
	foreign := testRecord(t, models.RecordTypeTransaction)
	require.NoError(t, r.Insert(ctx, "other-account", foreign))

	all, err := r.GetAll(ctx, accID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	txs, err := r.GetByType(ctx, accID, models.RecordTypeTransaction)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	goals, err := r.GetByType(ctx, accID, models.RecordTypeGoal)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, goal.ID, goals[0].ID)
}

func TestReplaceAll_SwapsWholeAccountState(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	old1 := testRecord(t, models.RecordTypeTransaction)
	old2 := testRecord(t, models.RecordTypeGoal)
	require.NoError(t, r.Insert(ctx, accID, old1))
	require.NoError(t, r.Insert(ctx, accID, old2))
	require.NoError(t, r.SetSettings(ctx, accID, testRecord(t, models.RecordTypeTransaction).Envelope))

	// another account's data must survive the swap
	foreign := testRecord(t, models.RecordTypeBill)
	require.NoError(t, r.Insert(ctx, "other-account", foreign))

	newRec := testRecord(t, models.RecordTypeBudget)
	newSettings := testRecord(t, models.RecordTypeTransaction).Envelope
	require.NoError(t, ReplaceAll(ctx, db, accID, []models.Record{*newRec}, newSettings))

	all, err := r.GetAll(ctx, accID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, newRec.ID, all[0].ID)

	got, err := r.GetSettings(ctx, accID)
	require.NoError(t, err)
	assert.Equal(t, newSettings, got)

	others, err := r.GetAll(ctx, "other-account")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestReplaceAll_NilSettingsClearsRow(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SetSettings(ctx, accID, testRecord(t, models.RecordTypeTransaction).Envelope))
	require.NoError(t, ReplaceAll(ctx, db, accID, nil, nil))

	got, err := r.GetSettings(ctx, accID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReplaceAll_FailureLeavesOldStateIntact(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	old := testRecord(t, models.RecordTypeTransaction)
	require.NoError(t, r.Insert(ctx, accID, old))

	// a duplicate id in the replacement violates the primary key mid-way
	dup := testRecord(t, models.RecordTypeGoal)
	err := ReplaceAll(ctx, db, accID, []models.Record{*dup, *dup}, nil)
	require.Error(t, err)

	all, err := r.GetAll(ctx, accID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, old.ID, all[0].ID)
}

func TestSettings_UpsertAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	got, err := r.GetSettings(ctx, accID)
	require.NoError(t, err)
	assert.Nil(t, got)

	env1 := testRecord(t, models.RecordTypeTransaction).Envelope
	require.NoError(t, r.SetSettings(ctx, accID, env1))

	got, err = r.GetSettings(ctx, accID)
	require.NoError(t, err)
	assert.Equal(t, env1, got)

	env2 := testRecord(t, models.RecordTypeTransaction).Envelope
	require.NoError(t, r.SetSettings(ctx, accID, env2))

	got, err = r.GetSettings(ctx, accID)
	require.NoError(t, err)
	assert.Equal(t, env2, got)
}
