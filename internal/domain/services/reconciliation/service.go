// Package reconciliation rebuilds the plan store projection by replaying
// the transaction ledger. The engine writes the ledger before the
// projection, so after a crash between the two the ledger is the source
// of truth and a replay restores consistency.
package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/catalog"
	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
	"github.com/stackfolio/stackfolio_service/pkg/logger"
)

// LedgerRepository interface for replaying ledger entries
type LedgerRepository interface {
	Replay(ctx context.Context, planID uuid.UUID) ([]*entities.LedgerEntry, error)
	History(ctx context.Context, planID *uuid.UUID) ([]*entities.LedgerEntry, error)
}

// PlanRepository interface for the projection being rebuilt
type PlanRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.InvestmentPlan, error)
	Put(ctx context.Context, plan *entities.InvestmentPlan) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Service replays ledger history into plan projections
type Service struct {
	ledgerRepo LedgerRepository
	planRepo   PlanRepository
	catalog    *catalog.Catalog
	logger     *logger.Logger
}

// NewService creates a reconciliation service
func NewService(ledgerRepo LedgerRepository, planRepo PlanRepository, cat *catalog.Catalog, log *logger.Logger) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		planRepo:   planRepo,
		catalog:    cat,
		logger:     log,
	}
}

// Drift reports a divergence between the live projection and the ledger
type Drift struct {
	PlanID            uuid.UUID
	LivePrincipal     decimal.Decimal
	ReplayedPrincipal decimal.Decimal
}

// RebuildPlan replays the full ledger for one plan and writes the rebuilt
// projection to the plan store. A plan whose last entry is a delete is
// removed from the store.
func (s *Service) RebuildPlan(ctx context.Context, planID uuid.UUID) error {
	rebuilt, deleted, err := s.replay(ctx, planID)
	if err != nil {
		return err
	}

	if deleted {
		if err := s.planRepo.Remove(ctx, planID); err != nil {
			return fmt.Errorf("remove deleted plan: %w", err)
		}
		s.logger.Info("Rebuilt plan is deleted, projection removed", "plan_id", planID)
		return nil
	}

	// Preserve performance state from the live projection when present:
	// the ledger records monetary events, not simulated drift.
	if live, err := s.planRepo.Get(ctx, planID); err == nil {
		rebuilt.Performance = live.Performance
		rebuilt.Balance = live.Balance
		rebuilt.DisplayName = live.DisplayName
		rebuilt.LastUpdatedAt = live.LastUpdatedAt
	}

	if err := s.planRepo.Put(ctx, rebuilt); err != nil {
		return fmt.Errorf("store rebuilt plan: %w", err)
	}

	s.logger.Info("Plan projection rebuilt from ledger",
		"plan_id", planID,
		"principal", rebuilt.Principal.String())
	return nil
}

// VerifyPlan compares the live projection's principal against a ledger
// replay and returns the drift, or nil when they agree
func (s *Service) VerifyPlan(ctx context.Context, planID uuid.UUID) (*Drift, error) {
	rebuilt, deleted, err := s.replay(ctx, planID)
	if err != nil {
		return nil, err
	}

	live, err := s.planRepo.Get(ctx, planID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		if deleted {
			return nil, nil
		}
		return &Drift{PlanID: planID, ReplayedPrincipal: rebuilt.Principal}, nil
	}
	if err != nil {
		return nil, err
	}

	if live.Principal.Equal(rebuilt.Principal) {
		return nil, nil
	}
	return &Drift{
		PlanID:            planID,
		LivePrincipal:     live.Principal,
		ReplayedPrincipal: rebuilt.Principal,
	}, nil
}

// RebuildAll replays every plan id found in the ledger. Used at startup
// to repair any crash gap between ledger append and projection write.
func (s *Service) RebuildAll(ctx context.Context) error {
	entries, err := s.ledgerRepo.History(ctx, nil)
	if err != nil {
		return fmt.Errorf("scan ledger: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		seen[e.PlanID] = true
	}
	for planID := range seen {
		if err := s.RebuildPlan(ctx, planID); err != nil {
			return fmt.Errorf("rebuild plan %s: %w", planID, err)
		}
	}
	return nil
}

// replay folds the ledger into a projection. Create and deposit entries
// add to principal and balance; withdrawal entries carry negative
// amounts and subtract, flooring principal at zero; update entries are
// principal-neutral; a delete entry terminates the plan.
func (s *Service) replay(ctx context.Context, planID uuid.UUID) (*entities.InvestmentPlan, bool, error) {
	entries, err := s.ledgerRepo.Replay(ctx, planID)
	if err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, domainerrors.PlanNotFoundError(planID.String())
	}

	plan := &entities.InvestmentPlan{
		ID:        planID,
		Principal: decimal.Zero,
		Balance:   decimal.Zero,
		Performance: entities.Performance{
			TotalReturn:      decimal.Zero,
			PercentageReturn: decimal.Zero,
			Trend:            entities.TrendFlat,
		},
	}
	deleted := false

	for _, e := range entries {
		switch e.Kind {
		case entities.EntryKindCreate:
			plan.Principal = e.Amount
			plan.Balance = e.Amount
			plan.CreatedAt = e.Timestamp
			plan.LastUpdatedAt = e.Timestamp
			plan.ArchetypeID = e.ArchetypeID
			if archetype, aerr := s.catalog.Get(e.ArchetypeID); aerr == nil {
				plan.DisplayName = archetype.Name
				plan.Allocation = archetype.Allocation
			}
		case entities.EntryKindDeposit:
			plan.Principal = plan.Principal.Add(e.Amount)
			plan.Balance = plan.Balance.Add(e.Amount)
			plan.LastUpdatedAt = e.Timestamp
		case entities.EntryKindWithdrawal:
			withdrawn := e.Amount.Neg()
			plan.Balance = decimal.Max(decimal.Zero, plan.Balance.Sub(withdrawn))
			plan.Principal = decimal.Max(decimal.Zero, plan.Principal.Sub(withdrawn))
			plan.LastUpdatedAt = e.Timestamp
		case entities.EntryKindUpdate:
			plan.LastUpdatedAt = e.Timestamp
		case entities.EntryKindDelete:
			deleted = true
		}
	}

	return plan, deleted, nil
}
