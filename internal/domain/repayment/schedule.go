package repayment

import (
	"time"

	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the status of a repayment schedule entry.
// Unlike invoice installments, schedule entries are binary: a repayment is
// either fully covered by the cumulative repaid amount or it is not.
type EntryStatus string

const (
	EntryPending EntryStatus = "PENDING"
	EntryPaid    EntryStatus = "PAID"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	return s == EntryPending || s == EntryPaid
}

// String returns the string representation of EntryStatus
func (s EntryStatus) String() string {
	return string(s)
}

// ScheduleEntry is one monthly obligation of a repayment plan.
type ScheduleEntry struct {
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	Status  EntryStatus     `json:"status"`
}

// GenerateRepaymentSchedule splits a principal amount into monthly
// installments of equal rounded size, with the final entry absorbing the
// rounding remainder so the schedule sums exactly to the principal. A
// non-positive amount or term yields an empty schedule.
//
// The remainder correction is unguarded: a principal small enough relative
// to the term (amount=1, months=12) produces a zero or negative final
// entry, matching the behavior callers already depend on.
func GenerateRepaymentSchedule(amount decimal.Decimal, months int, startDate time.Time) []ScheduleEntry {
	if months <= 0 || !amount.IsPositive() {
		return []ScheduleEntry{}
	}

	baseAmount := valueobject.Round2(amount.Div(decimal.NewFromInt(int64(months))))

	schedule := make([]ScheduleEntry, 0, months)
	allocated := decimal.Zero

	for i := 0; i < months; i++ {
		entryAmount := baseAmount
		if i == months-1 {
			entryAmount = valueobject.Round2(amount.Sub(allocated))
		}
		allocated = allocated.Add(entryAmount)

		schedule = append(schedule, ScheduleEntry{
			DueDate: startDate.AddDate(0, i, 0),
			Amount:  entryAmount,
			Status:  EntryPending,
		})
	}
	return schedule
}

// AllocationResult carries the schedule with freshly derived statuses and
// the due date of the first entry not yet covered. NextDueDate is nil when
// the whole schedule is paid.
type AllocationResult struct {
	Schedule    []ScheduleEntry `json:"schedule"`
	NextDueDate *time.Time      `json:"next_due_date,omitempty"`
}

// UpdateRepaymentStatuses greedily allocates a cumulative repaid amount
// across the schedule in sequence order. An entry is PAID when the running
// remainder covers its amount within tolerance; everything after the money
// runs out stays PENDING. The input schedule is not mutated.
func UpdateRepaymentStatuses(schedule []ScheduleEntry, repaidTotal decimal.Decimal) AllocationResult {
	updated := make([]ScheduleEntry, len(schedule))
	copy(updated, schedule)

	remaining := repaidTotal
	var nextDueDate *time.Time

	for i := range updated {
		if remaining.GreaterThanOrEqual(updated[i].Amount.Sub(valueobject.Tolerance)) {
			updated[i].Status = EntryPaid
			remaining = remaining.Sub(updated[i].Amount)
			continue
		}
		updated[i].Status = EntryPending
		if nextDueDate == nil {
			due := updated[i].DueDate
			nextDueDate = &due
		}
	}

	return AllocationResult{
		Schedule:    updated,
		NextDueDate: nextDueDate,
	}
}
