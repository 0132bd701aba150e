package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskTier represents the risk classification of a plan archetype
type RiskTier string

const (
	RiskTierLow      RiskTier = "low"
	RiskTierMedium   RiskTier = "medium"
	RiskTierHigh     RiskTier = "high"
	RiskTierVariable RiskTier = "variable"
)

// Validate checks if the risk tier is valid
func (r RiskTier) Validate() error {
	switch r {
	case RiskTierLow, RiskTierMedium, RiskTierHigh, RiskTierVariable:
		return nil
	default:
		return fmt.Errorf("invalid risk tier: %s", r)
	}
}

// Trend represents the direction of a plan's percentage return
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// TrendFromReturn maps a percentage return to its trend. Zero is flat.
func TrendFromReturn(pct decimal.Decimal) Trend {
	switch pct.Sign() {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	default:
		return TrendFlat
	}
}

// Allocation describes a stocks/bonds split in whole percents
type Allocation struct {
	StocksPct int `json:"stocks_pct"`
	BondsPct  int `json:"bonds_pct"`
}

// Validate checks that the allocation sums to 100
func (a Allocation) Validate() error {
	if a.StocksPct < 0 || a.BondsPct < 0 {
		return fmt.Errorf("allocation percentages cannot be negative")
	}
	if a.StocksPct+a.BondsPct != 100 {
		return fmt.Errorf("allocation must sum to 100, got %d", a.StocksPct+a.BondsPct)
	}
	return nil
}

// PlanArchetype is an immutable, catalog-defined plan template
type PlanArchetype struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	Allocation             Allocation      `json:"allocation"`
	RiskTier               RiskTier        `json:"risk_tier"`
	ExpectedAnnualYieldPct decimal.Decimal `json:"expected_annual_yield_pct"`
	MinInvestment          decimal.Decimal `json:"min_investment"`
	HistoricalVolatility   decimal.Decimal `json:"historical_volatility"`
	Perf30d                decimal.Decimal `json:"perf_30d"`
	Perf90d                decimal.Decimal `json:"perf_90d"`
	Perf365d               decimal.Decimal `json:"perf_365d"`
}

// Validate validates the archetype definition
func (a *PlanArchetype) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("archetype ID is required")
	}
	if err := a.RiskTier.Validate(); err != nil {
		return err
	}
	if err := a.Allocation.Validate(); err != nil {
		return err
	}
	if a.MinInvestment.IsNegative() {
		return fmt.Errorf("minimum investment cannot be negative")
	}
	if a.HistoricalVolatility.IsNegative() || a.HistoricalVolatility.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("historical volatility must be within [0, 1], got %s", a.HistoricalVolatility)
	}
	return nil
}

// Performance captures a plan's marked performance state
type Performance struct {
	TotalReturn      decimal.Decimal `json:"total_return"`
	PercentageReturn decimal.Decimal `json:"percentage_return"`
	Trend            Trend           `json:"trend"`
}

// InvestmentPlan is the mutable current-state projection of a user plan
type InvestmentPlan struct {
	ID            uuid.UUID       `json:"id"`
	ArchetypeID   string          `json:"archetype_id"`
	DisplayName   string          `json:"display_name"`
	Principal     decimal.Decimal `json:"principal"`
	Balance       decimal.Decimal `json:"balance"`
	Allocation    Allocation      `json:"allocation"`
	Performance   Performance     `json:"performance"`
	CreatedAt     time.Time       `json:"created_at"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}

// Validate checks the plan's structural invariants
func (p *InvestmentPlan) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("plan ID is required")
	}
	if p.ArchetypeID == "" {
		return fmt.Errorf("archetype ID is required")
	}
	if p.Principal.IsNegative() {
		return fmt.Errorf("principal cannot be negative: %s", p.Principal)
	}
	if p.Balance.IsNegative() {
		return fmt.Errorf("balance cannot be negative: %s", p.Balance)
	}
	if p.Performance.Trend != TrendFromReturn(p.Performance.PercentageReturn) {
		return fmt.Errorf("trend %s does not match percentage return %s",
			p.Performance.Trend, p.Performance.PercentageReturn)
	}
	return nil
}

// GlobalStats aggregates all active plans
type GlobalStats struct {
	TotalInvested   decimal.Decimal `json:"total_invested"`
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalReturn     decimal.Decimal `json:"total_return"`
	TotalReturnPct  decimal.Decimal `json:"total_return_pct"`
	ActivePlanCount int             `json:"active_plan_count"`
}
