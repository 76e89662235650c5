package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/client/repositories/records"
	"github.com/ledgerlock/ledgerlock/internal/client/session"
	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/logging"
)

// Scheduler is the piece of the sync engine the store needs: a request to
// sync "soon". Calls must be cheap and non-blocking.
type Scheduler interface {
	Schedule()
}

// DecryptResult is the per-item outcome of a bulk read. Either Payload is
// populated or Err explains why this record could not be decrypted; a
// caller can therefore distinguish "zero records" from "N records, M of
// them corrupted".
type DecryptResult struct {
	Record  models.Record
	Payload models.TypedPayload
	Err     error
}

// LocalStore is the only surface the UI and other consumers are given.
// It encrypts on write, decrypts on read, and schedules a sync after every
// mutation. It never exposes key material or raw repository access.
type LocalStore struct {
	sess      *session.Session
	repo      records.Repository
	scheduler Scheduler
	logger    logging.Logger
}

// NewLocalStore binds a store to a signed-in session. The scheduler is
// attached separately (SetScheduler) because the engine is constructed
// around the store's snapshots.
func NewLocalStore(sess *session.Session, repo records.Repository, logger logging.Logger) *LocalStore {
	return &LocalStore{sess: sess, repo: repo, logger: logger}
}

// SetScheduler attaches the sync engine. A nil scheduler leaves the store
// fully functional but never triggers a sync (useful in tests).
func (s *LocalStore) SetScheduler(sch Scheduler) {
	s.scheduler = sch
}

func (s *LocalStore) scheduleSync() {
	if s.scheduler != nil {
		s.scheduler.Schedule()
	}
}

// Put encrypts payload under the session key and persists it as a new
// record with id "<type>_<uuid>".
func (s *LocalStore) Put(ctx context.Context, t models.RecordType, payload any) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown record type %q", common.ErrValidation, t)
	}

	key, err := s.sess.Key()
	if err != nil {
		return "", err
	}
	env, err := key.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("encrypting record: %w", err)
	}

	now := time.Now().UTC()
	rec := &models.Record{
		ID:        models.NewRecordID(t),
		Type:      t,
		Envelope:  env,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.sess.AccountID(), rec); err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}

	s.scheduleSync()
	return rec.ID, nil
}

// checkRecordID rejects ids without a "<type>_" prefix before any
// repository round trip, so a typo reads as a validation error rather
// than a not-found.
func checkRecordID(id string) error {
	if _, ok := models.RecordTypeFromID(id); !ok {
		return fmt.Errorf("%w: malformed record id %q", common.ErrValidation, id)
	}
	return nil
}

// Update re-encrypts payload with a fresh iv and overwrites the record in
// place. Returns common.ErrNotFound for an unknown id.
func (s *LocalStore) Update(ctx context.Context, id string, payload any) error {
	if err := checkRecordID(id); err != nil {
		return err
	}

	key, err := s.sess.Key()
	if err != nil {
		return err
	}

	rec, err := s.repo.GetByID(ctx, s.sess.AccountID(), id)
	if err != nil {
		return err
	}

	env, err := key.Encrypt(payload)
	if err != nil {
		return fmt.Errorf("encrypting record: %w", err)
	}
	rec.Envelope = env
	rec.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.sess.AccountID(), rec); err != nil {
		return err
	}

	s.scheduleSync()
	return nil
}

// Delete removes the record permanently and schedules a sync.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	if err := checkRecordID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, s.sess.AccountID(), id); err != nil {
		return err
	}
	s.scheduleSync()
	return nil
}

// Get reads and decrypts a single record. Unlike the bulk reads, a decrypt
// failure here is surfaced to the caller.
func (s *LocalStore) Get(ctx context.Context, id string) (*DecryptResult, error) {
	if err := checkRecordID(id); err != nil {
		return nil, err
	}

	key, err := s.sess.Key()
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByID(ctx, s.sess.AccountID(), id)
	if err != nil {
		return nil, err
	}

	payload := models.NewPayload(rec.Type)
	if err := key.Decrypt(rec.Envelope, payload); err != nil {
		return nil, err
	}
	return &DecryptResult{Record: *rec, Payload: payload}, nil
}

// GetAll decrypts every record of the account. A record that fails to
// decrypt (corruption, foreign-key envelope) is logged and carried in the
// result with Err set; it never aborts the listing.
func (s *LocalStore) GetAll(ctx context.Context) ([]DecryptResult, error) {
	recs, err := s.repo.GetAll(ctx, s.sess.AccountID())
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return s.decryptAll(ctx, recs), nil
}

// GetByType decrypts all records of one type, with the same per-item
// resilience as GetAll.
func (s *LocalStore) GetByType(ctx context.Context, t models.RecordType) ([]DecryptResult, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown record type %q", common.ErrValidation, t)
	}
	recs, err := s.repo.GetByType(ctx, s.sess.AccountID(), t)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return s.decryptAll(ctx, recs), nil
}

func (s *LocalStore) decryptAll(ctx context.Context, recs []models.Record) []DecryptResult {
	key, err := s.sess.Key()
	if err != nil {
		results := make([]DecryptResult, 0, len(recs))
		for _, rec := range recs {
			results = append(results, DecryptResult{Record: rec, Err: err})
		}
		return results
	}

	results := make([]DecryptResult, 0, len(recs))
	for _, rec := range recs {
		payload := models.NewPayload(rec.Type)
		if derr := key.Decrypt(rec.Envelope, payload); derr != nil {
			s.logger.Warn(ctx, "skipping undecryptable record", "id", rec.ID, "error", derr)
			results = append(results, DecryptResult{Record: rec, Err: derr})
			continue
		}
		results = append(results, DecryptResult{Record: rec, Payload: payload})
	}
	return results
}

// PutSettings encrypts and stores the account settings blob.
func (s *LocalStore) PutSettings(ctx context.Context, settings models.Settings) error {
	key, err := s.sess.Key()
	if err != nil {
		return err
	}
	env, err := key.Encrypt(settings)
	if err != nil {
		return fmt.Errorf("encrypting settings: %w", err)
	}
	if err := s.repo.SetSettings(ctx, s.sess.AccountID(), env); err != nil {
		return err
	}
	s.scheduleSync()
	return nil
}

// Settings returns the decrypted settings, or zero values if none were set.
func (s *LocalStore) Settings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings

	key, err := s.sess.Key()
	if err != nil {
		return settings, err
	}
	env, err := s.repo.GetSettings(ctx, s.sess.AccountID())
	if err != nil {
		return settings, err
	}
	if env == nil {
		return settings, nil
	}
	if err := key.Decrypt(env, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Snapshot builds a full-state sync batch from the current store contents.
// It moves ciphertext only; nothing is decrypted on the sync path.
func (s *LocalStore) Snapshot(ctx context.Context) (*models.SyncBatch, error) {
	recs, err := s.repo.GetAll(ctx, s.sess.AccountID())
	if err != nil {
		return nil, fmt.Errorf("snapshotting records: %w", err)
	}

	batch := models.NewSyncBatch(s.sess.AccountID())
	for _, rec := range recs {
		batch.Add(rec)
	}

	settings, err := s.repo.GetSettings(ctx, s.sess.AccountID())
	if err != nil {
		return nil, fmt.Errorf("snapshotting settings: %w", err)
	}
	batch.Settings = settings

	return batch, nil
}
