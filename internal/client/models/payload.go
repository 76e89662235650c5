package models

// Typed plaintext payloads. These exist only inside the signed-in process;
// they are serialized to JSON and sealed into an Envelope before they touch
// disk or network.

// TypedPayload is implemented by every record payload.
type TypedPayload interface {
	GetType() RecordType
}

// Transaction is a single income or expense entry.
type Transaction struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note,omitempty"`
	Date     string  `json:"date"` // ISO date, local to the user
}

func (Transaction) GetType() RecordType { return RecordTypeTransaction }

// Bill is a recurring payment obligation.
type Bill struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	DueDay int     `json:"dueDay"` // day of month, 1..31
}

func (Bill) GetType() RecordType { return RecordTypeBill }

// Goal is a savings target.
type Goal struct {
	Name   string  `json:"name"`
	Target float64 `json:"target"`
	Saved  float64 `json:"saved"`
}

func (Goal) GetType() RecordType { return RecordTypeGoal }

// Budget is a per-category monthly spending limit.
type Budget struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
}

func (Budget) GetType() RecordType { return RecordTypeBudget }

// Reminder is a free-form dated note.
type Reminder struct {
	Text     string `json:"text"`
	RemindAt string `json:"remindAt"` // ISO date
}

func (Reminder) GetType() RecordType { return RecordTypeReminder }

// Settings is the per-account preferences blob, synced encrypted alongside
// the record groups.
type Settings struct {
	Currency    string `json:"currency"`
	DisplayName string `json:"displayName,omitempty"`
}

// NewPayload returns a zero value of the payload type for t, suitable as a
// json.Unmarshal target.
func NewPayload(t RecordType) TypedPayload {
	switch t {
	case RecordTypeTransaction:
		return &Transaction{}
	case RecordTypeBill:
		return &Bill{}
	case RecordTypeGoal:
		return &Goal{}
	case RecordTypeBudget:
		return &Budget{}
	case RecordTypeReminder:
		return &Reminder{}
	}
	return nil
}
