package persistence

import (
	"context"
	"errors"

	"github.com/billing/backend/internal/domain/repayment"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/billing/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPlanRepository implements PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a repayment plan by ID for a specific tenant
func (r *GormPlanRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*repayment.RepaymentPlan, error) {
	var model models.RepaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds a repayment plan by reference for a tenant
func (r *GormPlanRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*repayment.RepaymentPlan, error) {
	var model models.RepaymentPlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all repayment plans for a tenant with filtering
func (r *GormPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter repayment.PlanFilter) ([]repayment.RepaymentPlan, error) {
	var planModels []models.RepaymentPlanModel
	query := r.db.WithContext(ctx).Model(&models.RepaymentPlanModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyPlanFilter(query, filter)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}
	plans := make([]repayment.RepaymentPlan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans, nil
}

// Save creates or updates a repayment plan
func (r *GormPlanRepository) Save(ctx context.Context, plan *repayment.RepaymentPlan) error {
	model := models.RepaymentPlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Columns are selected
// explicitly so nil fields such as next_due_date are written back instead
// of being skipped as zero values.
func (r *GormPlanRepository) SaveWithLock(ctx context.Context, plan *repayment.RepaymentPlan) error {
	model := models.RepaymentPlanModelFromDomain(plan)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("reference", "principal", "term_months", "start_date",
			"repaid_amount", "schedule", "next_due_date", "remark",
			"version", "updated_at").
		Where("id = ? AND version = ?", plan.ID, plan.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// CountForTenant counts repayment plans for a tenant
func (r *GormPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter repayment.PlanFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.RepaymentPlanModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyPlanFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByReference checks if a plan reference exists for a tenant
func (r *GormPlanRepository) ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RepaymentPlanModel{}).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumOutstandingForTenant calculates the total unpaid principal for a tenant
func (r *GormPlanRepository) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RepaymentPlanModel{}).
		Select("COALESCE(SUM(principal - repaid_amount), 0) as total").
		Where("tenant_id = ? AND repaid_amount < principal - ?", tenantID, valueobject.Tolerance).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyPlanFilter applies filter options to the query
func (r *GormPlanRepository) applyPlanFilter(query *gorm.DB, filter repayment.PlanFilter) *gorm.DB {
	query = r.applyPlanFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply ordering, restricted to whitelisted columns
	orderBy := ValidateSortField(filter.OrderBy, RepaymentPlanSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyPlanFilterWithoutPagination applies filter options without pagination
func (r *GormPlanRepository) applyPlanFilterWithoutPagination(query *gorm.DB, filter repayment.PlanFilter) *gorm.DB {
	if filter.Settled != nil {
		if *filter.Settled {
			query = query.Where("repaid_amount >= principal - ?", valueobject.Tolerance)
		} else {
			query = query.Where("repaid_amount < principal - ?", valueobject.Tolerance)
		}
	}
	return query
}

// Ensure GormPlanRepository implements PlanRepository
var _ repayment.PlanRepository = (*GormPlanRepository)(nil)
