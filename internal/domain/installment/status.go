package installment

import (
	"time"

	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// isSettled reports whether the paid amount covers the installment amount
// within the monetary tolerance.
func isSettled(inst Installment) bool {
	return inst.PaidAmount.GreaterThanOrEqual(inst.Amount.Sub(valueobject.Tolerance))
}

// DeriveInstallmentStatus derives an installment's status from its paid
// amount, due date, and prior stored status. CANCELLED is absorbing; payment
// evidence outranks date evidence; a manually-set pre-due state (SCHEDULED
// or PENDING) is preserved when nothing contradicts it.
func DeriveInstallmentStatus(inst Installment, referenceDate time.Time) InstallmentStatus {
	if inst.Status == StatusCancelled {
		return StatusCancelled
	}
	if isSettled(inst) {
		return StatusPaid
	}
	if inst.PaidAmount.IsPositive() {
		return StatusPartiallyPaid
	}
	if referenceDate.After(inst.DueDate) {
		return StatusOverdue
	}
	if inst.Status == StatusScheduled || inst.Status == StatusPending {
		return inst.Status
	}
	return StatusScheduled
}

// ClampInstallmentStatus wraps the derivation with hysteresis so repeated
// recomputation cannot oscillate a status or silently downgrade a settled
// installment:
//
//   - CANCELLED always wins.
//   - PARTIALLY_PAID upgrades to PAID when the derivation says so.
//   - A stored PAID with the paid amount still covering the installment is
//     kept PAID regardless of what re-derivation produces.
//   - A stored PARTIALLY_PAID whose payment was reversed (paid <= 0) falls
//     through to the derived status.
//   - A stored PENDING is not reverted to SCHEDULED.
func ClampInstallmentStatus(inst Installment, referenceDate time.Time) InstallmentStatus {
	if inst.Status == StatusCancelled {
		return StatusCancelled
	}

	derived := DeriveInstallmentStatus(inst, referenceDate)

	switch {
	case inst.Status == StatusPartiallyPaid && derived == StatusPaid:
		return StatusPaid
	case inst.Status == StatusPaid && derived != StatusPaid && isSettled(inst):
		return StatusPaid
	case inst.Status == StatusPartiallyPaid && !inst.PaidAmount.IsPositive():
		return derived
	case inst.Status == StatusPending && derived == StatusScheduled:
		return StatusPending
	default:
		return derived
	}
}

// InstallmentTotals aggregates a normalized installment list.
type InstallmentTotals struct {
	Scheduled decimal.Decimal `json:"scheduled"`
	Paid      decimal.Decimal `json:"paid"`
}

// CalculateInstallmentTotals sums scheduled and paid amounts. Each
// installment's credited payment is capped at its own amount so an
// overpayment on one cannot mask an unpaid sibling.
func CalculateInstallmentTotals(list []Installment) InstallmentTotals {
	scheduled := decimal.Zero
	paid := decimal.Zero

	for _, inst := range list {
		scheduled = scheduled.Add(inst.Amount)
		credited := inst.PaidAmount
		if credited.GreaterThan(inst.Amount) {
			credited = inst.Amount
		}
		paid = paid.Add(credited)
	}

	return InstallmentTotals{
		Scheduled: valueobject.Round2(scheduled),
		Paid:      valueobject.Round2(paid),
	}
}
