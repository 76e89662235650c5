package models

import (
	"time"

	"github.com/ledgerlock/ledgerlock/internal/cryptox"
)

// WireRecord is the JSON form of one encrypted record inside a sync batch.
type WireRecord struct {
	ID        string            `json:"id"`
	Type      RecordType        `json:"type"`
	Envelope  *cryptox.Envelope `json:"envelope"`
	CreatedAt int64             `json:"createdAt"` // epoch-ms
	UpdatedAt int64             `json:"updatedAt"` // epoch-ms
}

// WireRecordFrom converts a local Record for transmission.
func WireRecordFrom(r Record) WireRecord {
	return WireRecord{
		ID:        r.ID,
		Type:      r.Type,
		Envelope:  r.Envelope,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
}

// Record converts a received wire record back to its local form, for
// restoring an account from the server's bundle.
func (w WireRecord) Record() Record {
	return Record{
		ID:        w.ID,
		Type:      w.Type,
		Envelope:  w.Envelope,
		CreatedAt: time.UnixMilli(w.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(w.UpdatedAt).UTC(),
	}
}

// SyncBatch is a full current-state snapshot of one account's ciphertext,
// grouped by record type. It is built fresh for every sync attempt and is
// never an incremental diff, so resending after a partial failure is always
// safe: the server replaces the whole bundle.
type SyncBatch struct {
	AccountID      string            `json:"accountId"`
	Transactions   []WireRecord      `json:"transactions"`
	RecurringBills []WireRecord      `json:"recurring_bills"`
	Goals          []WireRecord      `json:"goals"`
	Budgets        []WireRecord      `json:"budgets"`
	Reminders      []WireRecord      `json:"reminders"`
	Settings       *cryptox.Envelope `json:"settings,omitempty"`
	BuiltAt        int64             `json:"builtAt"` // epoch-ms
}

// NewSyncBatch returns an empty batch with all groups allocated, so the
// JSON form always carries arrays rather than nulls.
func NewSyncBatch(accountID string) *SyncBatch {
	return &SyncBatch{
		AccountID:      accountID,
		Transactions:   []WireRecord{},
		RecurringBills: []WireRecord{},
		Goals:          []WireRecord{},
		Budgets:        []WireRecord{},
		Reminders:      []WireRecord{},
		BuiltAt:        time.Now().UnixMilli(),
	}
}

// Add places r into its type group.
func (b *SyncBatch) Add(r Record) {
	w := WireRecordFrom(r)
	switch r.Type {
	case RecordTypeTransaction:
		b.Transactions = append(b.Transactions, w)
	case RecordTypeBill:
		b.RecurringBills = append(b.RecurringBills, w)
	case RecordTypeGoal:
		b.Goals = append(b.Goals, w)
	case RecordTypeBudget:
		b.Budgets = append(b.Budgets, w)
	case RecordTypeReminder:
		b.Reminders = append(b.Reminders, w)
	}
}

// Len reports the total number of records across all groups.
func (b *SyncBatch) Len() int {
	return len(b.Transactions) + len(b.RecurringBills) + len(b.Goals) +
		len(b.Budgets) + len(b.Reminders)
}

// SyncReceipt is the server's acknowledgement of a stored batch.
type SyncReceipt struct {
	SyncCount int64 `json:"syncCount"`
	Timestamp int64 `json:"timestamp"` // epoch-ms
}
