package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/kvstore"
)

// steppingClock advances one second per call so entries get distinct
// timestamps
func steppingClock() func() time.Time {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func draft(planID uuid.UUID, kind entities.EntryKind, amount string) entities.LedgerEntryDraft {
	return entities.LedgerEntryDraft{
		PlanID: planID,
		Kind:   kind,
		Amount: decimal.RequireFromString(amount),
	}
}

func TestAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id, sequence and timestamp", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())
		planID := uuid.New()

		first, err := repo.Append(ctx, draft(planID, entities.EntryKindCreate, "100"))
		require.NoError(t, err)
		second, err := repo.Append(ctx, draft(planID, entities.EntryKindDeposit, "50"))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, first.ID)
		assert.Equal(t, uint64(1), first.Sequence)
		assert.Equal(t, uint64(2), second.Sequence)
		assert.True(t, second.Timestamp.After(first.Timestamp))
		assert.Equal(t, entities.LedgerSchemaVersion, first.SchemaVersion)
	})

	t.Run("sequences are per plan", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())
		a, b := uuid.New(), uuid.New()

		ea, err := repo.Append(ctx, draft(a, entities.EntryKindCreate, "100"))
		require.NoError(t, err)
		eb, err := repo.Append(ctx, draft(b, entities.EntryKindCreate, "200"))
		require.NoError(t, err)

		assert.Equal(t, uint64(1), ea.Sequence)
		assert.Equal(t, uint64(1), eb.Sequence)
	})

	t.Run("rejects an update draft with a non-zero amount", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())

		_, err := repo.Append(ctx, draft(uuid.New(), entities.EntryKindUpdate, "5"))
		assert.Error(t, err)
	})

	t.Run("rejects a draft without a plan id", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())

		_, err := repo.Append(ctx, draft(uuid.Nil, entities.EntryKindCreate, "100"))
		assert.Error(t, err)
	})

	t.Run("recovers the sequence from the store after a restart", func(t *testing.T) {
		store := kvstore.NewMemory()
		clock := steppingClock()

		repo := NewLedgerRepository(store, clock)
		planID := uuid.New()
		_, err := repo.Append(ctx, draft(planID, entities.EntryKindCreate, "100"))
		require.NoError(t, err)
		_, err = repo.Append(ctx, draft(planID, entities.EntryKindDeposit, "50"))
		require.NoError(t, err)

		// A fresh repository over the same store continues the sequence
		restarted := NewLedgerRepository(store, clock)
		entry, err := restarted.Append(ctx, draft(planID, entities.EntryKindDeposit, "25"))
		require.NoError(t, err)
		assert.Equal(t, uint64(3), entry.Sequence)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns entries most-recent-first", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())
		planID := uuid.New()

		_, err := repo.Append(ctx, draft(planID, entities.EntryKindCreate, "100"))
		require.NoError(t, err)
		_, err = repo.Append(ctx, draft(planID, entities.EntryKindDeposit, "50"))
		require.NoError(t, err)
		_, err = repo.Append(ctx, draft(planID, entities.EntryKindWithdrawal, "-30"))
		require.NoError(t, err)

		entries, err := repo.History(ctx, &planID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, entities.EntryKindWithdrawal, entries[0].Kind)
		assert.Equal(t, entities.EntryKindDeposit, entries[1].Kind)
		assert.Equal(t, entities.EntryKindCreate, entries[2].Kind)
	})

	t.Run("a nil plan id spans all plans", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())
		a, b := uuid.New(), uuid.New()

		_, err := repo.Append(ctx, draft(a, entities.EntryKindCreate, "100"))
		require.NoError(t, err)
		_, err = repo.Append(ctx, draft(b, entities.EntryKindCreate, "200"))
		require.NoError(t, err)

		entries, err := repo.History(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("an unknown plan yields an empty history", func(t *testing.T) {
		repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())
		unknown := uuid.New()

		entries, err := repo.History(ctx, &unknown)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestReplay(t *testing.T) {
	ctx := context.Background()

	repo := NewLedgerRepository(kvstore.NewMemory(), steppingClock())
	planID := uuid.New()

	_, err := repo.Append(ctx, draft(planID, entities.EntryKindCreate, "100"))
	require.NoError(t, err)
	_, err = repo.Append(ctx, draft(planID, entities.EntryKindDeposit, "50"))
	require.NoError(t, err)

	entries, err := repo.Replay(ctx, planID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].Sequence, "replay is oldest-first")
	assert.Equal(t, uint64(2), entries[1].Sequence)
}
