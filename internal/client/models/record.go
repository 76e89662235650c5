// Package models defines client-side data models used by the LedgerLock CLI:
// accounts, encrypted records and the wire-level sync batch.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerlock/ledgerlock/internal/cryptox"
)

// RecordType classifies a finance record.
type RecordType string

const (
	RecordTypeTransaction RecordType = "transaction"
	RecordTypeBill        RecordType = "bill"
	RecordTypeGoal        RecordType = "goal"
	RecordTypeBudget      RecordType = "budget"
	RecordTypeReminder    RecordType = "reminder"
)

// RecordTypes lists every valid record type in bundle-group order.
var RecordTypes = []RecordType{
	RecordTypeTransaction,
	RecordTypeBill,
	RecordTypeGoal,
	RecordTypeBudget,
	RecordTypeReminder,
}

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeTransaction, RecordTypeBill, RecordTypeGoal, RecordTypeBudget, RecordTypeReminder:
		return true
	}
	return false
}

// NewRecordID builds a record id of the form "<type>_<uuid>".
func NewRecordID(t RecordType) string {
	return fmt.Sprintf("%s_%s", t, uuid.NewString())
}

// RecordTypeFromID extracts the type prefix from a record id.
func RecordTypeFromID(id string) (RecordType, bool) {
	prefix, _, ok := strings.Cut(id, "_")
	if !ok {
		return "", false
	}
	t := RecordType(prefix)
	return t, t.Valid()
}

// Record is one encrypted finance record as persisted locally. The payload
// is opaque outside the owning session; only the id, type and timestamps
// are plaintext.
type Record struct {
	// ID is "<type>_<uuid>", globally unique.
	ID string

	// Type duplicates the id prefix for indexed lookups.
	Type RecordType

	// Envelope holds the authenticated ciphertext of the payload.
	Envelope *cryptox.Envelope

	// CreatedAt / UpdatedAt are wall-clock times in UTC.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account is the durable registry row for one account. Salt and Verifier
// never leave the registry layer; the passphrase and derived key are never
// stored at all.
type Account struct {
	ID        string
	Name      string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

// AccountInfo is the listing view of an account: identity only, no secrets.
type AccountInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
