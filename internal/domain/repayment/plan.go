package repayment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleEntries is a slice of ScheduleEntry that implements GORM
// Scanner/Valuer for JSONB storage
type ScheduleEntries []ScheduleEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (s ScheduleEntries) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (s *ScheduleEntries) Scan(value interface{}) error {
	if value == nil {
		*s = ScheduleEntries{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ScheduleEntries: unsupported type")
	}

	if len(bytes) == 0 {
		*s = ScheduleEntries{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// RepaymentPlan is the repayment plan aggregate root. It owns a generated
// monthly schedule and tracks the cumulative repaid amount allocated across
// it.
type RepaymentPlan struct {
	shared.TenantAggregateRoot
	Reference    string          `json:"reference"`
	Principal    decimal.Decimal `json:"principal"`
	TermMonths   int             `json:"term_months"`
	StartDate    time.Time       `json:"start_date"`
	RepaidAmount decimal.Decimal `json:"repaid_amount"`
	Schedule     ScheduleEntries `json:"schedule"`
	NextDueDate  *time.Time      `json:"next_due_date,omitempty"`
	Remark       string          `json:"remark,omitempty"`
}

// NewRepaymentPlan creates a repayment plan and generates its schedule.
func NewRepaymentPlan(tenantID uuid.UUID, reference string, principal valueobject.Money, termMonths int, startDate time.Time) (*RepaymentPlan, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Plan reference cannot be empty")
	}
	if len(reference) > 50 {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Plan reference cannot exceed 50 characters")
	}
	if principal.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Principal must be positive")
	}
	if termMonths <= 0 {
		return nil, shared.NewDomainError("INVALID_TERM", "Term must be at least one month")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}

	schedule := GenerateRepaymentSchedule(principal.Amount(), termMonths, startDate)
	allocation := UpdateRepaymentStatuses(schedule, decimal.Zero)

	plan := &RepaymentPlan{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Reference:           reference,
		Principal:           valueobject.Round2(principal.Amount()),
		TermMonths:          termMonths,
		StartDate:           startDate,
		RepaidAmount:        decimal.Zero,
		Schedule:            ScheduleEntries(allocation.Schedule),
		NextDueDate:         allocation.NextDueDate,
	}

	return plan, nil
}

// RecordRepayment adds an amount to the cumulative repaid total and re-runs
// allocation across the schedule.
func (p *RepaymentPlan) RecordRepayment(amount valueobject.Money) error {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Repayment amount must be positive")
	}
	if p.IsSettled() {
		return shared.NewDomainError("INVALID_STATE", "Plan is already fully repaid")
	}

	p.RepaidAmount = valueobject.Round2(p.RepaidAmount.Add(amount.Amount()))
	p.Reallocate()
	return nil
}

// Reallocate re-derives every entry status and the next due date from the
// current repaid total.
func (p *RepaymentPlan) Reallocate() {
	result := UpdateRepaymentStatuses([]ScheduleEntry(p.Schedule), p.RepaidAmount)
	p.Schedule = ScheduleEntries(result.Schedule)
	p.NextDueDate = result.NextDueDate
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsSettled reports whether the repaid total covers the principal within
// tolerance.
func (p *RepaymentPlan) IsSettled() bool {
	return p.RepaidAmount.GreaterThanOrEqual(p.Principal.Sub(valueobject.Tolerance))
}

// OutstandingAmount returns the principal remainder, never negative.
func (p *RepaymentPlan) OutstandingAmount() decimal.Decimal {
	outstanding := p.Principal.Sub(p.RepaidAmount)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return valueobject.Round2(outstanding)
}
