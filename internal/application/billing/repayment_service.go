package billing

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/repayment"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepaymentService provides application-level repayment plan operations
type RepaymentService struct {
	planRepo repayment.PlanRepository
}

// NewRepaymentService creates a new RepaymentService
func NewRepaymentService(planRepo repayment.PlanRepository) *RepaymentService {
	return &RepaymentService{planRepo: planRepo}
}

// PlanResponse represents a repayment plan in API responses
type PlanResponse struct {
	ID           uuid.UUID                 `json:"id"`
	TenantID     uuid.UUID                 `json:"tenant_id"`
	Reference    string                    `json:"reference"`
	Principal    decimal.Decimal           `json:"principal"`
	TermMonths   int                       `json:"term_months"`
	StartDate    time.Time                 `json:"start_date"`
	RepaidAmount decimal.Decimal           `json:"repaid_amount"`
	Outstanding  decimal.Decimal           `json:"outstanding"`
	Settled      bool                      `json:"settled"`
	Schedule     []repayment.ScheduleEntry `json:"schedule"`
	NextDueDate  *time.Time                `json:"next_due_date,omitempty"`
	Remark       string                    `json:"remark,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
	Version      int                       `json:"version"`
}

// PlanListFilter defines filtering options for plan list queries
type PlanListFilter struct {
	Settled  *bool  `form:"settled"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// CreatePlanRequest carries the inputs for a new repayment plan
type CreatePlanRequest struct {
	Reference  string          `json:"reference" binding:"required"`
	Principal  decimal.Decimal `json:"principal" binding:"required"`
	TermMonths int             `json:"term_months" binding:"required"`
	StartDate  time.Time       `json:"start_date" binding:"required"`
	Remark     string          `json:"remark"`
}

// CreatePlan creates a repayment plan and generates its schedule
func (s *RepaymentService) CreatePlan(ctx context.Context, tenantID uuid.UUID, req CreatePlanRequest) (*PlanResponse, error) {
	exists, err := s.planRepo.ExistsByReference(ctx, tenantID, req.Reference)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_REFERENCE", "Plan reference already exists for this tenant")
	}

	plan, err := repayment.NewRepaymentPlan(tenantID, req.Reference, valueobject.NewMoneyUSD(req.Principal), req.TermMonths, req.StartDate)
	if err != nil {
		return nil, err
	}
	plan.Remark = req.Remark

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	return toPlanResponse(plan), nil
}

// GetPlan gets a repayment plan by ID
func (s *RepaymentService) GetPlan(ctx context.Context, tenantID, id uuid.UUID) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

// GetPlanByReference gets a repayment plan by its reference
func (s *RepaymentService) GetPlanByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByReference(ctx, tenantID, reference)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

// ListPlans lists repayment plans with filtering
func (s *RepaymentService) ListPlans(ctx context.Context, tenantID uuid.UUID, filter PlanListFilter) (*shared.Paginated[PlanResponse], error) {
	domainFilter := repayment.PlanFilter{Settled: filter.Settled}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Normalize()

	plans, err := s.planRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.planRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]PlanResponse, len(plans))
	for i, p := range plans {
		responses[i] = *toPlanResponse(&p)
	}

	page := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// RecordRepaymentRequest credits a repayment against a plan
type RecordRepaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RecordRepayment adds a repayment to the plan and reallocates its schedule
func (s *RepaymentService) RecordRepayment(ctx context.Context, tenantID, id uuid.UUID, req RecordRepaymentRequest) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := plan.RecordRepayment(valueobject.NewMoneyUSD(req.Amount)); err != nil {
		return nil, err
	}

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	return toPlanResponse(plan), nil
}

// SchedulePreviewRequest carries the inputs for a schedule preview
type SchedulePreviewRequest struct {
	Principal   decimal.Decimal `json:"principal" binding:"required"`
	TermMonths  int             `json:"term_months" binding:"required"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	RepaidSoFar decimal.Decimal `json:"repaid_so_far"`
}

// SchedulePreviewResponse is a generated schedule that was never persisted
type SchedulePreviewResponse struct {
	Schedule    []repayment.ScheduleEntry `json:"schedule"`
	NextDueDate *time.Time                `json:"next_due_date,omitempty"`
}

// PreviewSchedule generates a schedule and allocates any repaid amount
// across it without touching storage
func (s *RepaymentService) PreviewSchedule(req SchedulePreviewRequest) SchedulePreviewResponse {
	schedule := repayment.GenerateRepaymentSchedule(req.Principal, req.TermMonths, req.StartDate)
	result := repayment.UpdateRepaymentStatuses(schedule, req.RepaidSoFar)
	return SchedulePreviewResponse{
		Schedule:    result.Schedule,
		NextDueDate: result.NextDueDate,
	}
}

// RepaymentSummaryResponse aggregates a tenant's repayment plans
type RepaymentSummaryResponse struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	OpenCount        int64           `json:"open_count"`
	SettledCount     int64           `json:"settled_count"`
}

// GetSummary sums outstanding principal and counts open and settled plans
func (s *RepaymentService) GetSummary(ctx context.Context, tenantID uuid.UUID) (*RepaymentSummaryResponse, error) {
	totalOutstanding, err := s.planRepo.SumOutstandingForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	open := false
	openCount, err := s.planRepo.CountForTenant(ctx, tenantID, repayment.PlanFilter{Settled: &open})
	if err != nil {
		return nil, err
	}

	settled := true
	settledCount, err := s.planRepo.CountForTenant(ctx, tenantID, repayment.PlanFilter{Settled: &settled})
	if err != nil {
		return nil, err
	}

	return &RepaymentSummaryResponse{
		TotalOutstanding: totalOutstanding,
		OpenCount:        openCount,
		SettledCount:     settledCount,
	}, nil
}

func toPlanResponse(plan *repayment.RepaymentPlan) *PlanResponse {
	return &PlanResponse{
		ID:           plan.ID,
		TenantID:     plan.TenantID,
		Reference:    plan.Reference,
		Principal:    plan.Principal,
		TermMonths:   plan.TermMonths,
		StartDate:    plan.StartDate,
		RepaidAmount: plan.RepaidAmount,
		Outstanding:  plan.OutstandingAmount(),
		Settled:      plan.IsSettled(),
		Schedule:     []repayment.ScheduleEntry(plan.Schedule),
		NextDueDate:  plan.NextDueDate,
		Remark:       plan.Remark,
		CreatedAt:    plan.CreatedAt,
		UpdatedAt:    plan.UpdatedAt,
		Version:      plan.Version,
	}
}
