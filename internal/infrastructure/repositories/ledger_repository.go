package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/kvstore"
)

const ledgerKeyPrefix = "ledger/"

// ledgerKey yields "ledger/<planID>/<seq>" with a fixed-width sequence so
// lexicographic key order matches append order.
func ledgerKey(planID uuid.UUID, seq uint64) string {
	return fmt.Sprintf("%s%s/%020d", ledgerKeyPrefix, planID, seq)
}

// LedgerRepository persists the append-only transaction ledger in the
// durable store. Entries are never edited or removed.
type LedgerRepository struct {
	store kvstore.Store
	clock func() time.Time

	mu   sync.Mutex
	seqs map[uuid.UUID]uint64
}

// NewLedgerRepository creates a ledger repository over the given store
func NewLedgerRepository(store kvstore.Store, clock func() time.Time) *LedgerRepository {
	if clock == nil {
		clock = time.Now
	}
	return &LedgerRepository{
		store: store,
		clock: clock,
		seqs:  make(map[uuid.UUID]uint64),
	}
}

// Append assigns an id, sequence and timestamp, persists the entry and
// returns the stored value. A storage failure fails the enclosing engine
// operation; entries are never dropped silently.
func (r *LedgerRepository) Append(ctx context.Context, draft entities.LedgerEntryDraft) (*entities.LedgerEntry, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("validate draft: %w", err)
	}

	seq, err := r.nextSequence(ctx, draft.PlanID)
	if err != nil {
		return nil, err
	}

	entry := &entities.LedgerEntry{
		ID:            uuid.New(),
		PlanID:        draft.PlanID,
		Sequence:      seq,
		Kind:          draft.Kind,
		Amount:        draft.Amount,
		Description:   draft.Description,
		ArchetypeID:   draft.ArchetypeID,
		Timestamp:     r.clock().UTC(),
		SchemaVersion: entities.LedgerSchemaVersion,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	if err := r.store.Put(ctx, ledgerKey(entry.PlanID, entry.Sequence), data); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	return entry, nil
}

// History returns entries most-recent-first. A nil planID returns entries
// for all plans.
func (r *LedgerRepository) History(ctx context.Context, planID *uuid.UUID) ([]*entities.LedgerEntry, error) {
	prefix := ledgerKeyPrefix
	if planID != nil {
		prefix = fmt.Sprintf("%s%s/", ledgerKeyPrefix, planID)
	}

	pairs, err := r.store.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	entries := make([]*entities.LedgerEntry, 0, len(pairs))
	for _, kv := range pairs {
		var entry entities.LedgerEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal ledger entry %s: %w", kv.Key, err)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("corrupt ledger entry %s: %w", kv.Key, err)
		}
		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Sequence > entries[j].Sequence
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// Replay returns entries for one plan oldest-first, for reconciliation
func (r *LedgerRepository) Replay(ctx context.Context, planID uuid.UUID) ([]*entities.LedgerEntry, error) {
	entries, err := r.History(ctx, &planID)
	if err != nil {
		return nil, err
	}
	// History is most-recent-first; replay wants append order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// nextSequence returns the next per-plan sequence number, recovering it
// from the store on first use after a restart
func (r *LedgerRepository) nextSequence(ctx context.Context, planID uuid.UUID) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq, ok := r.seqs[planID]; ok {
		r.seqs[planID] = seq + 1
		return seq + 1, nil
	}

	pairs, err := r.store.Scan(ctx, fmt.Sprintf("%s%s/", ledgerKeyPrefix, planID))
	if err != nil {
		return 0, fmt.Errorf("recover ledger sequence: %w", err)
	}

	var last uint64
	for _, kv := range pairs {
		var entry entities.LedgerEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			return 0, fmt.Errorf("unmarshal ledger entry %s: %w", kv.Key, err)
		}
		if entry.Sequence > last {
			last = entry.Sequence
		}
	}

	r.seqs[planID] = last + 1
	return last + 1, nil
}
