package billing

import (
	"context"
	"testing"
	"time"

	"github.com/billing/backend/internal/domain/repayment"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPlanRepository is a mock implementation of repayment.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*repayment.RepaymentPlan, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.RepaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*repayment.RepaymentPlan, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.RepaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter repayment.PlanFilter) ([]repayment.RepaymentPlan, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]repayment.RepaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *repayment.RepaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, plan *repayment.RepaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter repayment.PlanFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) ExistsByReference(ctx context.Context, tenantID uuid.UUID, reference string) (bool, error) {
	args := m.Called(ctx, tenantID, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var svcPlanStart = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func newStoredPlan(t *testing.T, tenantID uuid.UUID) *repayment.RepaymentPlan {
	t.Helper()
	plan, err := repayment.NewRepaymentPlan(tenantID, "LOAN-001", valueobject.NewMoneyUSD(decimal.NewFromInt(1000)), 3, svcPlanStart)
	require.NoError(t, err)
	return plan
}

func TestRepaymentService_CreatePlan(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates plan with generated schedule", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		repo.On("ExistsByReference", ctx, tenantID, "LOAN-001").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*repayment.RepaymentPlan")).Return(nil)

		resp, err := svc.CreatePlan(ctx, tenantID, CreatePlanRequest{
			Reference:  "LOAN-001",
			Principal:  decimal.NewFromInt(1000),
			TermMonths: 3,
			StartDate:  svcPlanStart,
		})

		require.NoError(t, err)
		assert.Len(t, resp.Schedule, 3)
		assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(1000)))
		assert.False(t, resp.Settled)
		require.NotNil(t, resp.NextDueDate)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate reference", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		repo.On("ExistsByReference", ctx, tenantID, "LOAN-001").Return(true, nil)

		_, err := svc.CreatePlan(ctx, tenantID, CreatePlanRequest{
			Reference:  "LOAN-001",
			Principal:  decimal.NewFromInt(1000),
			TermMonths: 3,
			StartDate:  svcPlanStart,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_REFERENCE", domainErr.Code)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("propagates validation error", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		repo.On("ExistsByReference", ctx, tenantID, "LOAN-001").Return(false, nil)

		_, err := svc.CreatePlan(ctx, tenantID, CreatePlanRequest{
			Reference:  "LOAN-001",
			Principal:  decimal.Zero,
			TermMonths: 3,
			StartDate:  svcPlanStart,
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	})
}

func TestRepaymentService_GetPlan(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("returns plan response", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		plan := newStoredPlan(t, tenantID)
		repo.On("FindByID", ctx, tenantID, plan.ID).Return(plan, nil)

		resp, err := svc.GetPlan(ctx, tenantID, plan.ID)

		require.NoError(t, err)
		assert.Equal(t, plan.ID, resp.ID)
		assert.Equal(t, "LOAN-001", resp.Reference)
	})

	t.Run("propagates not found", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		id := uuid.New()
		repo.On("FindByID", ctx, tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := svc.GetPlan(ctx, tenantID, id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestRepaymentService_ListPlans(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("normalizes filter and returns total", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		plan := newStoredPlan(t, tenantID)
		settled := false
		expectedFilter := repayment.PlanFilter{Settled: &settled}
		expectedFilter.Page = 1
		expectedFilter.PageSize = 20
		expectedFilter.OrderBy = "created_at"
		expectedFilter.OrderDir = "desc"

		repo.On("FindAllForTenant", ctx, tenantID, expectedFilter).Return([]repayment.RepaymentPlan{*plan}, nil)
		repo.On("CountForTenant", ctx, tenantID, expectedFilter).Return(int64(1), nil)

		page, err := svc.ListPlans(ctx, tenantID, PlanListFilter{Settled: &settled})

		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.Equal(t, 1, page.TotalPages)
		repo.AssertExpectations(t)
	})
}

func TestRepaymentService_RecordRepayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("allocates repayment and persists", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		plan := newStoredPlan(t, tenantID)
		repo.On("FindByID", ctx, tenantID, plan.ID).Return(plan, nil)
		repo.On("SaveWithLock", ctx, plan).Return(nil)

		resp, err := svc.RecordRepayment(ctx, tenantID, plan.ID, RecordRepaymentRequest{
			Amount: decimal.NewFromInt(400),
		})

		require.NoError(t, err)
		assert.True(t, resp.RepaidAmount.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, repayment.EntryPaid, resp.Schedule[0].Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects repayment on settled plan", func(t *testing.T) {
		repo := new(MockPlanRepository)
		svc := NewRepaymentService(repo)

		plan := newStoredPlan(t, tenantID)
		require.NoError(t, plan.RecordRepayment(valueobject.NewMoneyUSD(decimal.NewFromInt(1000))))
		repo.On("FindByID", ctx, tenantID, plan.ID).Return(plan, nil)

		_, err := svc.RecordRepayment(ctx, tenantID, plan.ID, RecordRepaymentRequest{
			Amount: decimal.NewFromInt(10),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		repo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestRepaymentService_PreviewSchedule(t *testing.T) {
	svc := NewRepaymentService(new(MockPlanRepository))

	resp := svc.PreviewSchedule(SchedulePreviewRequest{
		Principal:   decimal.NewFromInt(1000),
		TermMonths:  3,
		StartDate:   svcPlanStart,
		RepaidSoFar: decimal.NewFromFloat(333.33),
	})

	require.Len(t, resp.Schedule, 3)
	assert.Equal(t, repayment.EntryPaid, resp.Schedule[0].Status)
	assert.Equal(t, repayment.EntryPending, resp.Schedule[1].Status)
	require.NotNil(t, resp.NextDueDate)
	assert.True(t, resp.NextDueDate.Equal(svcPlanStart.AddDate(0, 1, 0)))
}

func TestRepaymentService_GetSummary(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := new(MockPlanRepository)
	svc := NewRepaymentService(repo)

	repo.On("SumOutstandingForTenant", ctx, tenantID).Return(decimal.NewFromInt(1500), nil)
	repo.On("CountForTenant", ctx, tenantID, mock.MatchedBy(func(f repayment.PlanFilter) bool {
		return f.Settled != nil && !*f.Settled
	})).Return(int64(2), nil)
	repo.On("CountForTenant", ctx, tenantID, mock.MatchedBy(func(f repayment.PlanFilter) bool {
		return f.Settled != nil && *f.Settled
	})).Return(int64(3), nil)

	summary, err := svc.GetSummary(ctx, tenantID)

	require.NoError(t, err)
	assert.True(t, summary.TotalOutstanding.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, int64(2), summary.OpenCount)
	assert.Equal(t, int64(3), summary.SettledCount)
}
