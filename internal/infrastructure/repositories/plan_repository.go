package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/kvstore"
)

const planKeyPrefix = "plan/"

func planKey(id uuid.UUID) string {
	return planKeyPrefix + id.String()
}

// PlanRepository persists the current-state projection of each investment
// plan. It carries no business logic; the projection is always derivable
// from the ledger.
type PlanRepository struct {
	store kvstore.Store
}

// NewPlanRepository creates a plan repository over the given store
func NewPlanRepository(store kvstore.Store) *PlanRepository {
	return &PlanRepository{store: store}
}

// Get returns the plan, or ErrNotFound
func (r *PlanRepository) Get(ctx context.Context, id uuid.UUID) (*entities.InvestmentPlan, error) {
	data, err := r.store.Get(ctx, planKey(id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, domainerrors.PlanNotFoundError(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var plan entities.InvestmentPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan %s: %w", id, err)
	}
	return &plan, nil
}

// List returns all plans ordered by creation time
func (r *PlanRepository) List(ctx context.Context) ([]*entities.InvestmentPlan, error) {
	pairs, err := r.store.Scan(ctx, planKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan plans: %w", err)
	}

	plans := make([]*entities.InvestmentPlan, 0, len(pairs))
	for _, kv := range pairs {
		var plan entities.InvestmentPlan
		if err := json.Unmarshal(kv.Value, &plan); err != nil {
			return nil, fmt.Errorf("unmarshal plan %s: %w", kv.Key, err)
		}
		plans = append(plans, &plan)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
	return plans, nil
}

// Put upserts the plan projection
func (r *PlanRepository) Put(ctx context.Context, plan *entities.InvestmentPlan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validate plan: %w", err)
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := r.store.Put(ctx, planKey(plan.ID), data); err != nil {
		return fmt.Errorf("put plan: %w", err)
	}
	return nil
}

// Remove deletes the plan projection. The ledger history is untouched.
func (r *PlanRepository) Remove(ctx context.Context, id uuid.UUID) error {
	if err := r.store.Delete(ctx, planKey(id)); err != nil {
		return fmt.Errorf("remove plan: %w", err)
	}
	return nil
}
