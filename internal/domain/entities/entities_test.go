package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAllocationValidate(t *testing.T) {
	assert.NoError(t, Allocation{StocksPct: 20, BondsPct: 80}.Validate())
	assert.NoError(t, Allocation{StocksPct: 100, BondsPct: 0}.Validate())
	assert.Error(t, Allocation{StocksPct: 60, BondsPct: 50}.Validate())
	assert.Error(t, Allocation{StocksPct: -10, BondsPct: 110}.Validate())
}

func TestInvestmentPlanValidate(t *testing.T) {
	valid := func() *InvestmentPlan {
		return &InvestmentPlan{
			ID:          uuid.New(),
			ArchetypeID: "Plan-20-80",
			Principal:   decimal.RequireFromString("100"),
			Balance:     decimal.RequireFromString("100"),
			Performance: Performance{Trend: TrendFlat},
		}
	}

	assert.NoError(t, valid().Validate())

	p := valid()
	p.Principal = decimal.RequireFromString("-1")
	assert.Error(t, p.Validate())

	p = valid()
	p.Balance = decimal.RequireFromString("-1")
	assert.Error(t, p.Validate())

	p = valid()
	p.Performance.Trend = TrendUp
	assert.Error(t, p.Validate(), "trend must match the return sign")

	p = valid()
	p.Performance.PercentageReturn = decimal.RequireFromString("2")
	p.Performance.Trend = TrendUp
	assert.NoError(t, p.Validate())
}

func TestLedgerEntryValidate(t *testing.T) {
	valid := func() *LedgerEntry {
		return &LedgerEntry{
			ID:            uuid.New(),
			PlanID:        uuid.New(),
			Sequence:      1,
			Kind:          EntryKindDeposit,
			Amount:        decimal.RequireFromString("50"),
			Timestamp:     time.Now().UTC(),
			SchemaVersion: LedgerSchemaVersion,
		}
	}

	assert.NoError(t, valid().Validate())

	e := valid()
	e.Kind = EntryKindUpdate
	assert.Error(t, e.Validate(), "update entries must carry a zero amount")

	e = valid()
	e.Kind = EntryKindUpdate
	e.Amount = decimal.Zero
	assert.NoError(t, e.Validate())

	e = valid()
	e.Kind = "transfer"
	assert.Error(t, e.Validate())

	e = valid()
	e.SchemaVersion = 2
	assert.Error(t, e.Validate())

	e = valid()
	e.PlanID = uuid.Nil
	assert.Error(t, e.Validate())
}
