// Package simulator evolves a plan's return percentage over elapsed time
// using a bounded random-walk model. This is a simulation, not a price
// feed: the walk is parameterized by the archetype's historical volatility
// and clamped so returns cannot run away.
package simulator

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
)

// Return percentage bounds, in percent
var (
	minReturnPct = decimal.NewFromInt(-50)
	maxReturnPct = decimal.NewFromInt(50)
)

// Source supplies uniform randomness in [0, 1). Injected so tests can fix
// the walk; production wraps math/rand/v2.
type Source interface {
	Float64() float64
}

// SourceFunc adapts a function to a Source
type SourceFunc func() float64

// Float64 implements Source
func (f SourceFunc) Float64() float64 {
	return f()
}

// NewRandomSource returns the production randomness source
func NewRandomSource() Source {
	return SourceFunc(rand.Float64)
}

// Result is the output of one accrual step
type Result struct {
	Balance          decimal.Decimal
	PercentageReturn decimal.Decimal
	Trend            entities.Trend
}

// Accrue advances the plan's return by a bounded perturbation drawn from
// src and re-derives the balance from principal. The derivation is
// principal-anchored: balance = principal * (1 + pct/100) on every step,
// not previous-balance compounding.
func Accrue(plan *entities.InvestmentPlan, archetype entities.PlanArchetype, elapsedDays float64, src Source) Result {
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	vol, _ := archetype.HistoricalVolatility.Float64()
	// delta uniform in [-vol, +vol] scaled by sqrt of elapsed time
	delta := (src.Float64()*2 - 1) * vol * math.Sqrt(elapsedDays)

	pct := plan.Performance.PercentageReturn.Add(decimal.NewFromFloat(delta))
	if pct.LessThan(minReturnPct) {
		pct = minReturnPct
	}
	if pct.GreaterThan(maxReturnPct) {
		pct = maxReturnPct
	}

	balance := plan.Principal.Mul(decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100))))
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	return Result{
		Balance:          balance,
		PercentageReturn: pct,
		Trend:            entities.TrendFromReturn(pct),
	}
}
