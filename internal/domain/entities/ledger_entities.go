package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSchemaVersion is the current on-disk shape of a ledger entry.
// Replay-based reconciliation depends on stable entry shapes, so any
// change to LedgerEntry requires a version bump and a migration path.
const LedgerSchemaVersion = 1

// EntryKind represents the kind of monetary event recorded in the ledger
type EntryKind string

const (
	EntryKindCreate     EntryKind = "create"
	EntryKindDeposit    EntryKind = "deposit"
	EntryKindWithdrawal EntryKind = "withdrawal"
	EntryKindUpdate     EntryKind = "update"
	EntryKindDelete     EntryKind = "delete"
)

// Validate checks if the entry kind is valid
func (k EntryKind) Validate() error {
	switch k {
	case EntryKindCreate, EntryKindDeposit, EntryKindWithdrawal, EntryKindUpdate, EntryKindDelete:
		return nil
	default:
		return fmt.Errorf("invalid ledger entry kind: %s", k)
	}
}

// LedgerEntry is an immutable, append-only record of a monetary event.
// Entries are never edited or removed; they are the audit trail that
// survives deletion of the plan they describe.
type LedgerEntry struct {
	ID          uuid.UUID       `json:"id"`
	PlanID      uuid.UUID       `json:"plan_id"`
	Sequence    uint64          `json:"sequence"`
	Kind        EntryKind       `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	// ArchetypeID is recorded on create entries so a replay can rebuild
	// the projection without the plan store
	ArchetypeID   string    `json:"archetype_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	SchemaVersion int       `json:"schema_version"`
}

// Validate validates the ledger entry
func (e *LedgerEntry) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("entry ID is required")
	}
	if e.PlanID == uuid.Nil {
		return fmt.Errorf("plan ID is required")
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if e.Kind == EntryKindUpdate && !e.Amount.IsZero() {
		return fmt.Errorf("update entries must carry a zero amount, got %s", e.Amount)
	}
	if e.SchemaVersion != LedgerSchemaVersion {
		return fmt.Errorf("unsupported ledger schema version: %d", e.SchemaVersion)
	}
	return nil
}

// LedgerEntryDraft is a request to append a new ledger entry.
// ID, sequence and timestamp are assigned by the repository.
type LedgerEntryDraft struct {
	PlanID      uuid.UUID
	Kind        EntryKind
	Amount      decimal.Decimal
	Description string
	ArchetypeID string
}

// Validate validates the draft before it is persisted
func (d *LedgerEntryDraft) Validate() error {
	if d.PlanID == uuid.Nil {
		return fmt.Errorf("plan ID is required")
	}
	if err := d.Kind.Validate(); err != nil {
		return err
	}
	if d.Kind == EntryKindUpdate && !d.Amount.IsZero() {
		return fmt.Errorf("update entries must carry a zero amount, got %s", d.Amount)
	}
	return nil
}
