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
	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/kvstore"
)

func testPlan(createdAt time.Time) *entities.InvestmentPlan {
	return &entities.InvestmentPlan{
		ID:          uuid.New(),
		ArchetypeID: "Plan-20-80",
		DisplayName: "Conservative 20/80",
		Principal:   decimal.RequireFromString("100"),
		Balance:     decimal.RequireFromString("100"),
		Allocation:  entities.Allocation{StocksPct: 20, BondsPct: 80},
		Performance: entities.Performance{
			TotalReturn:      decimal.Zero,
			PercentageReturn: decimal.Zero,
			Trend:            entities.TrendFlat,
		},
		CreatedAt:     createdAt,
		LastUpdatedAt: createdAt,
	}
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("put then get round-trips", func(t *testing.T) {
		repo := NewPlanRepository(kvstore.NewMemory())
		plan := testPlan(base)

		require.NoError(t, repo.Put(ctx, plan))

		got, err := repo.Get(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, plan.ID, got.ID)
		assert.True(t, got.Principal.Equal(plan.Principal))
		assert.Equal(t, plan.Allocation, got.Allocation)
		assert.Equal(t, entities.TrendFlat, got.Performance.Trend)
	})

	t.Run("get of an unknown plan returns not found", func(t *testing.T) {
		repo := NewPlanRepository(kvstore.NewMemory())

		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("put rejects an invalid plan", func(t *testing.T) {
		repo := NewPlanRepository(kvstore.NewMemory())
		plan := testPlan(base)
		plan.Balance = decimal.RequireFromString("-1")

		assert.Error(t, repo.Put(ctx, plan))
	})

	t.Run("list orders by creation time", func(t *testing.T) {
		repo := NewPlanRepository(kvstore.NewMemory())

		newer := testPlan(base.Add(time.Hour))
		older := testPlan(base)
		require.NoError(t, repo.Put(ctx, newer))
		require.NoError(t, repo.Put(ctx, older))

		plans, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, older.ID, plans[0].ID)
		assert.Equal(t, newer.ID, plans[1].ID)
	})

	t.Run("remove deletes the projection", func(t *testing.T) {
		repo := NewPlanRepository(kvstore.NewMemory())
		plan := testPlan(base)

		require.NoError(t, repo.Put(ctx, plan))
		require.NoError(t, repo.Remove(ctx, plan.ID))

		_, err := repo.Get(ctx, plan.ID)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}
