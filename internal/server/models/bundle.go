// Package models defines the server's view of stored data. The server is a
// dumb ciphertext store: every group element is an opaque JSON blob it never
// parses beyond the array structure.
package models

import "encoding/json"

// Bundle is the unit of storage: one full-state snapshot per account, plus
// server-side bookkeeping. The group fields mirror the client's sync batch
// but stay raw; only the client holds keys.
type Bundle struct {
	AccountID      string            `json:"accountId"`
	Transactions   []json.RawMessage `json:"transactions"`
	RecurringBills []json.RawMessage `json:"recurring_bills"`
	Goals          []json.RawMessage `json:"goals"`
	Budgets        []json.RawMessage `json:"budgets"`
	Reminders      []json.RawMessage `json:"reminders"`
	Settings       json.RawMessage   `json:"settings,omitempty"`
	BuiltAt        int64             `json:"builtAt,omitempty"` // client-side, epoch-ms

	LastSync  int64 `json:"lastSync"` // epoch-ms, stamped on every accepted push
	SyncCount int64 `json:"syncCount"`
}

// EmptyBundle returns the structurally valid zero bundle for an account:
// every group present and empty, counters at zero. Fetching a never-synced
// account yields exactly this.
func EmptyBundle(accountID string) *Bundle {
	b := &Bundle{AccountID: accountID}
	b.Normalize()
	return b
}

// Normalize replaces nil groups with empty slices so the bundle always
// serializes arrays, never null.
func (b *Bundle) Normalize() {
	if b.Transactions == nil {
		b.Transactions = []json.RawMessage{}
	}
	if b.RecurringBills == nil {
		b.RecurringBills = []json.RawMessage{}
	}
	if b.Goals == nil {
		b.Goals = []json.RawMessage{}
	}
	if b.Budgets == nil {
		b.Budgets = []json.RawMessage{}
	}
	if b.Reminders == nil {
		b.Reminders = []json.RawMessage{}
	}
}

// Records is the total number of group elements, used for logging only.
func (b *Bundle) Records() int {
	return len(b.Transactions) + len(b.RecurringBills) + len(b.Goals) +
		len(b.Budgets) + len(b.Reminders)
}

// SyncReceipt is the acknowledgement returned on a successful push.
type SyncReceipt struct {
	SyncCount int64 `json:"syncCount"`
	Timestamp int64 `json:"timestamp"` // epoch-ms
}
