// Package plan implements the investment plan engine: create, fund,
// withdraw, delete and accrual operations over the plan store and the
// transaction ledger.
package plan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/catalog"
	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
	"github.com/stackfolio/stackfolio_service/internal/domain/simulator"
	"github.com/stackfolio/stackfolio_service/pkg/logger"
	"github.com/stackfolio/stackfolio_service/pkg/metrics"
)

// LedgerRepository interface for appending and reading ledger entries
type LedgerRepository interface {
	Append(ctx context.Context, draft entities.LedgerEntryDraft) (*entities.LedgerEntry, error)
	History(ctx context.Context, planID *uuid.UUID) ([]*entities.LedgerEntry, error)
}

// PlanRepository interface for the current-state projection
type PlanRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.InvestmentPlan, error)
	List(ctx context.Context) ([]*entities.InvestmentPlan, error)
	Put(ctx context.Context, plan *entities.InvestmentPlan) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Service is the investment plan engine. Every write operation appends a
// ledger entry before touching the plan store, so a crash between the two
// leaves the ledger ahead of the projection and a reconciliation replay
// can rebuild the projection.
type Service struct {
	catalog    *catalog.Catalog
	ledgerRepo LedgerRepository
	planRepo   PlanRepository
	randSrc    simulator.Source
	clock      func() time.Time
	logger     *logger.Logger
	metrics    *metrics.Metrics

	// locks serializes writes per plan id; cross-plan operations proceed
	// concurrently
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewService creates a new plan engine
func NewService(
	cat *catalog.Catalog,
	ledgerRepo LedgerRepository,
	planRepo PlanRepository,
	randSrc simulator.Source,
	clock func() time.Time,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	if randSrc == nil {
		randSrc = simulator.NewRandomSource()
	}
	return &Service{
		catalog:    cat,
		ledgerRepo: ledgerRepo,
		planRepo:   planRepo,
		randSrc:    randSrc,
		clock:      clock,
		logger:     log,
		metrics:    m,
	}
}

func (s *Service) lockPlan(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) observe(op string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "error"
	}
	s.metrics.ObserveEngineOp(op, outcome, time.Since(start))
}

// Create opens a new investment plan funded with amount. The amount must
// meet the archetype's minimum investment.
func (s *Service) Create(ctx context.Context, archetypeID string, amount decimal.Decimal) (plan *entities.InvestmentPlan, err error) {
	defer s.observe("create", time.Now(), &err)

	archetype, err := s.catalog.Get(archetypeID)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(archetype.MinInvestment) {
		return nil, domainerrors.BelowMinimumInvestmentError(
			archetypeID, amount.String(), archetype.MinInvestment.String())
	}

	now := s.clock().UTC()
	plan = &entities.InvestmentPlan{
		ID:            uuid.New(),
		ArchetypeID:   archetype.ID,
		DisplayName:   archetype.Name,
		Principal:     amount,
		Balance:       amount,
		Allocation:    archetype.Allocation,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	// Seed performance over zero elapsed days
	res := simulator.Accrue(plan, archetype, 0, s.randSrc)
	plan.Balance = res.Balance
	plan.Performance = entities.Performance{
		TotalReturn:      res.Balance.Sub(plan.Principal),
		PercentageReturn: res.PercentageReturn,
		Trend:            res.Trend,
	}

	unlock := s.lockPlan(plan.ID)
	defer unlock()

	if _, err = s.ledgerRepo.Append(ctx, entities.LedgerEntryDraft{
		PlanID:      plan.ID,
		Kind:        entities.EntryKindCreate,
		Amount:      amount,
		Description: fmt.Sprintf("Created %s plan with %s", archetype.Name, amount),
		ArchetypeID: archetype.ID,
	}); err != nil {
		return nil, fmt.Errorf("append create entry: %w", err)
	}
	if err = s.planRepo.Put(ctx, plan); err != nil {
		return nil, fmt.Errorf("store new plan: %w", err)
	}

	s.logger.Info("Investment plan created",
		"plan_id", plan.ID,
		"archetype_id", archetypeID,
		"amount", amount.String())
	return plan, nil
}

// Fund deposits amount into the plan, increasing principal and balance
func (s *Service) Fund(ctx context.Context, planID uuid.UUID, amount decimal.Decimal) (plan *entities.InvestmentPlan, err error) {
	defer s.observe("fund", time.Now(), &err)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domainerrors.NonPositiveAmountError(amount.String())
	}

	unlock := s.lockPlan(planID)
	defer unlock()

	plan, err = s.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	plan.Principal = plan.Principal.Add(amount)
	plan.Balance = plan.Balance.Add(amount)
	plan.LastUpdatedAt = s.clock().UTC()

	if _, err = s.ledgerRepo.Append(ctx, entities.LedgerEntryDraft{
		PlanID:      planID,
		Kind:        entities.EntryKindDeposit,
		Amount:      amount,
		Description: fmt.Sprintf("Deposited %s", amount),
	}); err != nil {
		return nil, fmt.Errorf("append deposit entry: %w", err)
	}
	if err = s.planRepo.Put(ctx, plan); err != nil {
		return nil, fmt.Errorf("store funded plan: %w", err)
	}

	s.logger.Info("Plan funded", "plan_id", planID, "amount", amount.String())
	return plan, nil
}

// Withdraw removes amount from the plan. The amount must not exceed the
// current balance; principal is floored at zero.
func (s *Service) Withdraw(ctx context.Context, planID uuid.UUID, amount decimal.Decimal) (plan *entities.InvestmentPlan, err error) {
	defer s.observe("withdraw", time.Now(), &err)

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domainerrors.NonPositiveAmountError(amount.String())
	}

	unlock := s.lockPlan(planID)
	defer unlock()

	plan, err = s.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(plan.Balance) {
		return nil, domainerrors.InsufficientBalanceError(
			planID.String(), amount.String(), plan.Balance.String())
	}

	plan.Balance = plan.Balance.Sub(amount)
	plan.Principal = decimal.Max(decimal.Zero, plan.Principal.Sub(amount))
	plan.LastUpdatedAt = s.clock().UTC()

	if _, err = s.ledgerRepo.Append(ctx, entities.LedgerEntryDraft{
		PlanID:      planID,
		Kind:        entities.EntryKindWithdrawal,
		Amount:      amount.Neg(),
		Description: fmt.Sprintf("Withdrew %s", amount),
	}); err != nil {
		return nil, fmt.Errorf("append withdrawal entry: %w", err)
	}
	if err = s.planRepo.Put(ctx, plan); err != nil {
		return nil, fmt.Errorf("store plan after withdrawal: %w", err)
	}

	s.logger.Info("Withdrawal applied", "plan_id", planID, "amount", amount.String())
	return plan, nil
}

// Delete removes the plan from the store and records a terminal ledger
// entry carrying the balance at deletion. The ledger history remains.
func (s *Service) Delete(ctx context.Context, planID uuid.UUID) (err error) {
	defer s.observe("delete", time.Now(), &err)

	unlock := s.lockPlan(planID)
	defer unlock()

	plan, err := s.planRepo.Get(ctx, planID)
	if err != nil {
		return err
	}

	if _, err = s.ledgerRepo.Append(ctx, entities.LedgerEntryDraft{
		PlanID:      planID,
		Kind:        entities.EntryKindDelete,
		Amount:      plan.Balance,
		Description: fmt.Sprintf("Deleted plan with balance %s", plan.Balance),
	}); err != nil {
		return fmt.Errorf("append delete entry: %w", err)
	}
	if err = s.planRepo.Remove(ctx, planID); err != nil {
		return fmt.Errorf("remove plan: %w", err)
	}

	s.logger.Info("Plan deleted", "plan_id", planID, "balance_at_deletion", plan.Balance.String())
	return nil
}

// SimulateUpdate accrues the plan over the time elapsed since its last
// update and records a zero-amount ledger entry describing the delta
func (s *Service) SimulateUpdate(ctx context.Context, planID uuid.UUID) (plan *entities.InvestmentPlan, err error) {
	defer s.observe("simulate_update", time.Now(), &err)

	unlock := s.lockPlan(planID)
	defer unlock()

	plan, err = s.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	archetype, err := s.catalog.Get(plan.ArchetypeID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	elapsedDays := now.Sub(plan.LastUpdatedAt).Hours() / 24

	prevPct := plan.Performance.PercentageReturn
	res := simulator.Accrue(plan, archetype, elapsedDays, s.randSrc)
	delta := res.PercentageReturn.Sub(prevPct)

	plan.Balance = res.Balance
	plan.Performance = entities.Performance{
		TotalReturn:      res.Balance.Sub(plan.Principal),
		PercentageReturn: res.PercentageReturn,
		Trend:            res.Trend,
	}
	plan.LastUpdatedAt = now

	if _, err = s.ledgerRepo.Append(ctx, entities.LedgerEntryDraft{
		PlanID:      planID,
		Kind:        entities.EntryKindUpdate,
		Amount:      decimal.Zero,
		Description: fmt.Sprintf("Performance update: %s%%", delta.StringFixed(4)),
	}); err != nil {
		return nil, fmt.Errorf("append update entry: %w", err)
	}
	if err = s.planRepo.Put(ctx, plan); err != nil {
		return nil, fmt.Errorf("store updated plan: %w", err)
	}

	return plan, nil
}

// Get returns the plan after read-time accrual over the elapsed time
// since its last update. Reads trigger accrual: two reads without an
// intervening write can return different performance numbers. Use Peek
// for a side-effect-free read.
func (s *Service) Get(ctx context.Context, planID uuid.UUID) (plan *entities.InvestmentPlan, err error) {
	defer s.observe("get", time.Now(), &err)

	unlock := s.lockPlan(planID)
	defer unlock()

	plan, err = s.planRepo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err = s.accrueInPlace(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Peek returns the stored projection without accruing
func (s *Service) Peek(ctx context.Context, planID uuid.UUID) (*entities.InvestmentPlan, error) {
	return s.planRepo.Get(ctx, planID)
}

// ListAll returns every plan after read-time accrual
func (s *Service) ListAll(ctx context.Context) (plans []*entities.InvestmentPlan, err error) {
	defer s.observe("list_all", time.Now(), &err)

	plans, err = s.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range plans {
		unlock := s.lockPlan(p.ID)
		if err = s.accrueInPlace(ctx, p); err != nil {
			unlock()
			return nil, err
		}
		unlock()
	}

	s.metrics.SetActivePlans(len(plans))
	return plans, nil
}

// History returns the ledger history, most-recent-first. A nil planID
// returns entries across all plans, including deleted ones.
func (s *Service) History(ctx context.Context, planID *uuid.UUID) ([]*entities.LedgerEntry, error) {
	return s.ledgerRepo.History(ctx, planID)
}

// GlobalStats aggregates all active plans. An empty plan set yields zeros.
func (s *Service) GlobalStats(ctx context.Context) (stats entities.GlobalStats, err error) {
	defer s.observe("global_stats", time.Now(), &err)

	plans, err := s.ListAll(ctx)
	if err != nil {
		return entities.GlobalStats{}, err
	}

	stats = entities.GlobalStats{
		TotalInvested:  decimal.Zero,
		TotalValue:     decimal.Zero,
		TotalReturn:    decimal.Zero,
		TotalReturnPct: decimal.Zero,
	}
	for _, p := range plans {
		stats.TotalInvested = stats.TotalInvested.Add(p.Principal)
		stats.TotalValue = stats.TotalValue.Add(p.Balance)
	}
	stats.TotalReturn = stats.TotalValue.Sub(stats.TotalInvested)
	if stats.TotalInvested.IsPositive() {
		stats.TotalReturnPct = stats.TotalReturn.
			Div(stats.TotalInvested).
			Mul(decimal.NewFromInt(100))
	}
	stats.ActivePlanCount = len(plans)
	return stats, nil
}

// accrueInPlace refreshes balance and performance for a read. The refresh
// is persisted to the projection but intentionally does not write a
// ledger entry: the ledger records monetary events, and read-time drift
// is principal-neutral.
func (s *Service) accrueInPlace(ctx context.Context, plan *entities.InvestmentPlan) error {
	archetype, err := s.catalog.Get(plan.ArchetypeID)
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	elapsedDays := now.Sub(plan.LastUpdatedAt).Hours() / 24

	res := simulator.Accrue(plan, archetype, elapsedDays, s.randSrc)
	plan.Balance = res.Balance
	plan.Performance = entities.Performance{
		TotalReturn:      res.Balance.Sub(plan.Principal),
		PercentageReturn: res.PercentageReturn,
		Trend:            res.Trend,
	}
	plan.LastUpdatedAt = now

	if err := s.planRepo.Put(ctx, plan); err != nil {
		return fmt.Errorf("persist read-time accrual: %w", err)
	}
	return nil
}
