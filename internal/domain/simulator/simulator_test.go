package simulator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
)

func testArchetype(vol string) entities.PlanArchetype {
	return entities.PlanArchetype{
		ID:                   "Plan-50-50",
		HistoricalVolatility: decimal.RequireFromString(vol),
	}
}

func testPlan(principal, pct string) *entities.InvestmentPlan {
	return &entities.InvestmentPlan{
		Principal: decimal.RequireFromString(principal),
		Performance: entities.Performance{
			PercentageReturn: decimal.RequireFromString(pct),
		},
	}
}

func TestAccrue(t *testing.T) {
	t.Run("zero elapsed time leaves the return unchanged", func(t *testing.T) {
		plan := testPlan("100", "3.5")

		res := Accrue(plan, testArchetype("0.15"), 0, SourceFunc(func() float64 { return 1.0 }))

		assert.True(t, res.PercentageReturn.Equal(decimal.RequireFromString("3.5")))
		assert.True(t, res.Balance.Equal(decimal.RequireFromString("103.5")))
	})

	t.Run("negative elapsed time is treated as zero", func(t *testing.T) {
		plan := testPlan("100", "0")

		res := Accrue(plan, testArchetype("0.15"), -5, SourceFunc(func() float64 { return 1.0 }))

		assert.True(t, res.PercentageReturn.IsZero())
		assert.True(t, res.Balance.Equal(decimal.RequireFromString("100")))
	})

	t.Run("a maximal draw moves the return by vol times sqrt of days", func(t *testing.T) {
		plan := testPlan("100", "0")

		res := Accrue(plan, testArchetype("0.15"), 4, SourceFunc(func() float64 { return 1.0 }))

		// 0.15 * sqrt(4) = 0.30 percentage points
		assert.True(t, res.PercentageReturn.Equal(decimal.NewFromFloat(0.3)),
			"got %s", res.PercentageReturn)
		assert.Equal(t, entities.TrendUp, res.Trend)
	})

	t.Run("a minimal draw moves the return down", func(t *testing.T) {
		plan := testPlan("100", "0")

		res := Accrue(plan, testArchetype("0.15"), 4, SourceFunc(func() float64 { return 0.0 }))

		assert.True(t, res.PercentageReturn.IsNegative())
		assert.Equal(t, entities.TrendDown, res.Trend)
		assert.True(t, res.Balance.LessThan(plan.Principal))
	})

	t.Run("clamps at the return ceiling", func(t *testing.T) {
		plan := testPlan("100", "49.9")

		res := Accrue(plan, testArchetype("1"), 365, SourceFunc(func() float64 { return 1.0 }))

		assert.True(t, res.PercentageReturn.Equal(decimal.NewFromInt(50)))
		assert.True(t, res.Balance.Equal(decimal.RequireFromString("150")))
	})

	t.Run("clamps at the return floor", func(t *testing.T) {
		plan := testPlan("100", "-49.9")

		res := Accrue(plan, testArchetype("1"), 365, SourceFunc(func() float64 { return 0.0 }))

		assert.True(t, res.PercentageReturn.Equal(decimal.NewFromInt(-50)))
		assert.True(t, res.Balance.Equal(decimal.RequireFromString("50")))
		assert.Equal(t, entities.TrendDown, res.Trend)
	})

	t.Run("derives balance from principal, not the previous balance", func(t *testing.T) {
		plan := testPlan("200", "10")
		plan.Balance = decimal.RequireFromString("9999")

		res := Accrue(plan, testArchetype("0.15"), 0, SourceFunc(func() float64 { return 0.5 }))

		assert.True(t, res.Balance.Equal(decimal.RequireFromString("220")),
			"balance re-derived from principal, got %s", res.Balance)
	})

	t.Run("random draws stay within the clamp under long horizons", func(t *testing.T) {
		plan := testPlan("100", "0")
		src := NewRandomSource()
		arch := testArchetype("0.4")

		for i := 0; i < 500; i++ {
			res := Accrue(plan, arch, 90, src)
			assert.True(t, res.PercentageReturn.GreaterThanOrEqual(decimal.NewFromInt(-50)))
			assert.True(t, res.PercentageReturn.LessThanOrEqual(decimal.NewFromInt(50)))
			assert.False(t, res.Balance.IsNegative())
			plan.Performance.PercentageReturn = res.PercentageReturn
		}
	})
}

func TestTrendMapping(t *testing.T) {
	assert.Equal(t, entities.TrendUp, entities.TrendFromReturn(decimal.RequireFromString("0.01")))
	assert.Equal(t, entities.TrendDown, entities.TrendFromReturn(decimal.RequireFromString("-0.01")))
	assert.Equal(t, entities.TrendFlat, entities.TrendFromReturn(decimal.Zero))
}
