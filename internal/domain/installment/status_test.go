package installment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var statusRef = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func inst(status InstallmentStatus, amount, paid float64, dueDate time.Time) Installment {
	return Installment{
		Sequence:   1,
		Amount:     decimal.NewFromFloat(amount),
		DueDate:    dueDate,
		Status:     status,
		PaidAmount: decimal.NewFromFloat(paid),
	}
}

func TestDeriveInstallmentStatus(t *testing.T) {
	future := statusRef.AddDate(0, 1, 0)
	past := statusRef.AddDate(0, -1, 0)

	tests := []struct {
		name     string
		inst     Installment
		expected InstallmentStatus
	}{
		{"cancelled is terminal", inst(StatusCancelled, 100, 100, future), StatusCancelled},
		{"fully paid", inst(StatusScheduled, 100, 100, future), StatusPaid},
		{"paid within tolerance", inst(StatusScheduled, 100, 99.99, future), StatusPaid},
		{"partial payment", inst(StatusScheduled, 100, 40, future), StatusPartiallyPaid},
		{"partial payment past due", inst(StatusScheduled, 100, 40, past), StatusPartiallyPaid},
		{"unpaid past due", inst(StatusScheduled, 100, 0, past), StatusOverdue},
		{"unpaid not yet due", inst(StatusScheduled, 100, 0, future), StatusScheduled},
		{"pending preserved", inst(StatusPending, 100, 0, future), StatusPending},
		{"due today is not overdue", inst(StatusScheduled, 100, 0, statusRef), StatusScheduled},
		{"unrecognized stored status resets", inst(InstallmentStatus("WEIRD"), 100, 0, future), StatusScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveInstallmentStatus(tt.inst, statusRef))
		})
	}
}

func TestClampInstallmentStatus(t *testing.T) {
	future := statusRef.AddDate(0, 1, 0)
	past := statusRef.AddDate(0, -1, 0)

	tests := []struct {
		name     string
		inst     Installment
		expected InstallmentStatus
	}{
		{"cancelled always wins", inst(StatusCancelled, 100, 0, past), StatusCancelled},
		{"partially paid upgrades to paid", inst(StatusPartiallyPaid, 100, 100, future), StatusPaid},
		{"settled stays paid past due", inst(StatusPaid, 100, 100, past), StatusPaid},
		{"partial with reversed payment past due", inst(StatusPartiallyPaid, 100, 0, past), StatusOverdue},
		{"partial with reversed payment not due", inst(StatusPartiallyPaid, 100, 0, future), StatusScheduled},
		{"pending not reverted to scheduled", inst(StatusPending, 100, 0, future), StatusPending},
		{"pending goes overdue", inst(StatusPending, 100, 0, past), StatusOverdue},
		{"scheduled follows derivation", inst(StatusScheduled, 100, 40, future), StatusPartiallyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampInstallmentStatus(tt.inst, statusRef))
		})
	}
}

func TestClampInstallmentStatus_Stable(t *testing.T) {
	// Re-clamping an already clamped installment never changes the result.
	future := statusRef.AddDate(0, 1, 0)
	past := statusRef.AddDate(0, -1, 0)

	cases := []Installment{
		inst(StatusScheduled, 100, 100, future),
		inst(StatusPartiallyPaid, 100, 40, past),
		inst(StatusPending, 100, 0, future),
		inst(StatusScheduled, 100, 0, past),
		inst(StatusCancelled, 100, 50, past),
	}

	for _, c := range cases {
		first := ClampInstallmentStatus(c, statusRef)
		c.Status = first
		assert.Equal(t, first, ClampInstallmentStatus(c, statusRef))
	}
}

func TestCalculateInstallmentTotals(t *testing.T) {
	future := statusRef.AddDate(0, 1, 0)

	t.Run("caps paid at the installment amount", func(t *testing.T) {
		totals := CalculateInstallmentTotals([]Installment{
			inst(StatusPaid, 100, 150, future),
			inst(StatusPartiallyPaid, 200, 50, future),
			inst(StatusScheduled, 300, 0, future),
		})
		assertAmount(t, "600", totals.Scheduled)
		assertAmount(t, "150", totals.Paid)
	})

	t.Run("empty list", func(t *testing.T) {
		totals := CalculateInstallmentTotals(nil)
		assertAmount(t, "0", totals.Scheduled)
		assertAmount(t, "0", totals.Paid)
	})
}
