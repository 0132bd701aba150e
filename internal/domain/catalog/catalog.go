// Package catalog holds the static table of plan archetypes. The catalog
// is read-only; Get returns a copy so callers cannot mutate the table.
package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
)

// Catalog is a lookup table of plan archetypes
type Catalog struct {
	ids        []string
	archetypes map[string]entities.PlanArchetype
}

// New creates a catalog from the given archetypes, preserving order
func New(archetypes []entities.PlanArchetype) *Catalog {
	c := &Catalog{archetypes: make(map[string]entities.PlanArchetype, len(archetypes))}
	for _, a := range archetypes {
		if _, dup := c.archetypes[a.ID]; dup {
			continue
		}
		c.ids = append(c.ids, a.ID)
		c.archetypes[a.ID] = a
	}
	return c
}

// Default returns the built-in archetype table
func Default() *Catalog {
	return New(defaultArchetypes())
}

// Get returns the archetype, or a not found error
func (c *Catalog) Get(id string) (entities.PlanArchetype, error) {
	a, ok := c.archetypes[id]
	if !ok {
		return entities.PlanArchetype{}, domainerrors.ArchetypeNotFoundError(id)
	}
	return a, nil
}

// IDs returns archetype ids in catalog order
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func defaultArchetypes() []entities.PlanArchetype {
	return []entities.PlanArchetype{
		{
			ID:                     "Plan-20-80",
			Name:                   "Conservative 20/80",
			Description:            "Capital preservation with a small equity sleeve",
			Allocation:             entities.Allocation{StocksPct: 20, BondsPct: 80},
			RiskTier:               entities.RiskTierLow,
			ExpectedAnnualYieldPct: dec("4.5"),
			MinInvestment:          dec("100"),
			HistoricalVolatility:   dec("0.08"),
			Perf30d:                dec("0.4"),
			Perf90d:                dec("1.1"),
			Perf365d:               dec("4.2"),
		},
		{
			ID:                     "Plan-50-50",
			Name:                   "Balanced 50/50",
			Description:            "Even split between growth and stability",
			Allocation:             entities.Allocation{StocksPct: 50, BondsPct: 50},
			RiskTier:               entities.RiskTierMedium,
			ExpectedAnnualYieldPct: dec("6.8"),
			MinInvestment:          dec("250"),
			HistoricalVolatility:   dec("0.15"),
			Perf30d:                dec("0.7"),
			Perf90d:                dec("1.9"),
			Perf365d:               dec("6.5"),
		},
		{
			ID:                     "Plan-80-20",
			Name:                   "Growth 80/20",
			Description:            "Equity-heavy mix for long horizons",
			Allocation:             entities.Allocation{StocksPct: 80, BondsPct: 20},
			RiskTier:               entities.RiskTierHigh,
			ExpectedAnnualYieldPct: dec("9.2"),
			MinInvestment:          dec("500"),
			HistoricalVolatility:   dec("0.25"),
			Perf30d:                dec("1.2"),
			Perf90d:                dec("3.1"),
			Perf365d:               dec("8.9"),
		},
		{
			ID:                     "Plan-100-0",
			Name:                   "Aggressive 100/0",
			Description:            "All-equity exposure, highest drawdown risk",
			Allocation:             entities.Allocation{StocksPct: 100, BondsPct: 0},
			RiskTier:               entities.RiskTierVariable,
			ExpectedAnnualYieldPct: dec("11.5"),
			MinInvestment:          dec("1000"),
			HistoricalVolatility:   dec("0.40"),
			Perf30d:                dec("1.8"),
			Perf90d:                dec("4.4"),
			Perf365d:               dec("11.0"),
		},
	}
}
