package services

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/repositories/records"
	"github.com/ledgerlock/ledgerlock/internal/client/session"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
	"github.com/ledgerlock/ledgerlock/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScheduler struct {
	n atomic.Int64
}

func (c *countingScheduler) Schedule() { c.n.Add(1) }

func setupRecordsDB(t *testing.T) *sql.DB {
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

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	key, err := cryptox.NewKeyHandle(common.GenerateRandByteArray(32))
	require.NoError(t, err)
	return session.New("acc-1", "Alex", key)
}

func newTestStore(t *testing.T) (*LocalStore, *countingScheduler, records.Repository) {
	t.Helper()
	repo := records.NewSQLiteRepository(setupRecordsDB(t))
	store := NewLocalStore(newTestSession(t), repo, logging.NewNopLogger())
	sch := &countingScheduler{}
	store.SetScheduler(sch)
	return store, sch, repo
}

func TestPutAndGetByType(t *testing.T) {
	store, sch, _ := newTestStore(t)
	ctx := context.Background()

	tx := models.Transaction{
		Amount:   42.50,
		Category: "groceries",
		Note:     "weekly shop",
		Date:     "2026-08-30",
	}
	id, err := store.Put(ctx, models.RecordTypeTransaction, tx)
	require.NoError(t, err)
	assert.Regexp(t, `^transaction_`, id)
	assert.EqualValues(t, 1, sch.n.Load())

	results, err := store.GetByType(ctx, models.RecordTypeTransaction)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	got, ok := results[0].Payload.(*models.Transaction)
	require.True(t, ok)
	assert.Equal(t, 42.50, got.Amount)
	assert.Equal(t, "groceries", got.Category)
}

func TestPut_UnknownTypeRejected(t *testing.T) {
	store, sch, _ := newTestStore(t)

	_, err := store.Put(context.Background(), models.RecordType("wallet"), struct{}{})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.EqualValues(t, 0, sch.n.Load())
}

func TestUpdate_ReplacesPayloadAndIV(t *testing.T) {
	store, sch, repo := newTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, models.RecordTypeGoal, models.Goal{Name: "vacation", Target: 1000})
	require.NoError(t, err)

	before, err := repo.GetByID(ctx, "acc-1", id)
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, id, models.Goal{Name: "vacation", Target: 1000, Saved: 250}))

	after, err := repo.GetByID(ctx, "acc-1", id)
	require.NoError(t, err)
	assert.NotEqual(t, before.Envelope.IV, after.Envelope.IV)

	res, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 250.0, res.Payload.(*models.Goal).Saved)
	assert.EqualValues(t, 2, sch.n.Load())
}

func TestUpdate_NotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	err := store.Update(context.Background(), "goal_missing", models.Goal{})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_SchedulesSync(t *testing.T) {
	store, sch, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, models.RecordTypeBill, models.Bill{Name: "rent", Amount: 900, DueDay: 1})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	assert.EqualValues(t, 2, sch.n.Load())

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMalformedRecordID_RejectedBeforeLookup(t *testing.T) {
	store, sch, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "noseparator", "wallet_123"} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, common.ErrValidation, "get %q", id)

		err = store.Update(ctx, id, models.Goal{})
		assert.ErrorIs(t, err, common.ErrValidation, "update %q", id)

		err = store.Delete(ctx, id)
		assert.ErrorIs(t, err, common.ErrValidation, "delete %q", id)
	}
	assert.EqualValues(t, 0, sch.n.Load())
}

func TestGetAll_CarriesCorruptRecords(t *testing.T) {
	store, _, repo := newTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, models.RecordTypeTransaction, models.Transaction{Amount: 10})
	require.NoError(t, err)

	// a record encrypted under some other account's key decrypts to an
	// authentication failure, not garbage
	foreignKey, err := cryptox.NewKeyHandle(common.GenerateRandByteArray(32))
	require.NoError(t, err)
	env, err := foreignKey.Encrypt(models.Transaction{Amount: 99})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, repo.Insert(ctx, "acc-1", &models.Record{
		ID:        models.NewRecordID(models.RecordTypeTransaction),
		Type:      models.RecordTypeTransaction,
		Envelope:  env,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	results, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var good, bad int
	for _, res := range results {
		if res.Err != nil {
			assert.ErrorIs(t, res.Err, common.ErrDecrypt)
			bad++
		} else {
			good++
		}
	}
	assert.Equal(t, 1, good)
	assert.Equal(t, 1, bad)
}

func TestSettings_RoundTrip(t *testing.T) {
	store, sch, _ := newTestStore(t)
	ctx := context.Background()

	// unset settings read back as zero values
	got, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Currency)

	require.NoError(t, store.PutSettings(ctx, models.Settings{Currency: "EUR", DisplayName: "Alex"}))
	assert.EqualValues(t, 1, sch.n.Load())

	got, err = store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "Alex", got.DisplayName)
}

func TestSnapshot_GroupsCiphertextOnly(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, models.RecordTypeTransaction, models.Transaction{Amount: 1})
	require.NoError(t, err)
	_, err = store.Put(ctx, models.RecordTypeTransaction, models.Transaction{Amount: 2})
	require.NoError(t, err)
	_, err = store.Put(ctx, models.RecordTypeBudget, models.Budget{Category: "food", Limit: 300})
	require.NoError(t, err)
	require.NoError(t, store.PutSettings(ctx, models.Settings{Currency: "USD"}))

	batch, err := store.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, "acc-1", batch.AccountID)
	assert.Len(t, batch.Transactions, 2)
	assert.Len(t, batch.Budgets, 1)
	assert.Empty(t, batch.Goals)
	require.NotNil(t, batch.Settings)
	assert.Equal(t, 3, batch.Len())
}

func TestStore_ClosedSessionFailsEverywhere(t *testing.T) {
	sess := newTestSession(t)
	repo := records.NewSQLiteRepository(setupRecordsDB(t))
	store := NewLocalStore(sess, repo, logging.NewNopLogger())
	ctx := context.Background()

	id, err := store.Put(ctx, models.RecordTypeReminder, models.Reminder{Text: "pay rent"})
	require.NoError(t, err)

	sess.Close()

	_, err = store.Put(ctx, models.RecordTypeReminder, models.Reminder{Text: "again"})
	assert.ErrorIs(t, err, common.ErrSessionClosed)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, common.ErrSessionClosed)

	results, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, common.ErrSessionClosed)
}
