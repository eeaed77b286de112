package repayment

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanFilter defines filtering options for repayment plan queries
type PlanFilter struct {
	shared.Filter
	Settled *bool // Filter by settlement state
}

// PlanRepository defines the interface for repayment plan persistence
type PlanRepository interface {
	// FindByID finds a repayment plan by ID for a specific tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*RepaymentPlan, error)

	// FindByReference finds a repayment plan by reference for a tenant
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*RepaymentPlan, error)

	// FindAllForTenant finds all repayment plans for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PlanFilter) ([]RepaymentPlan, error)

	// Save creates a new repayment plan
	Save(ctx context.Context, plan *RepaymentPlan) error

	// SaveWithLock updates a repayment plan with optimistic locking (version check)
	SaveWithLock(ctx context.Context, plan *RepaymentPlan) error

	// CountForTenant counts repayment plans for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PlanFilter) (int64, error)

	// ExistsByReference checks if a plan reference exists for a tenant
	ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error)

	// SumOutstandingForTenant calculates the total unpaid principal for a tenant
	SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
}
