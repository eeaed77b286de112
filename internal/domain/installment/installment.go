package installment

import (
	"sort"
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the lifecycle status of an invoice installment
type InstallmentStatus string

const (
	StatusScheduled     InstallmentStatus = "SCHEDULED"      // Created, not yet due or requested
	StatusPending       InstallmentStatus = "PENDING"        // Manually elevated, awaiting payment
	StatusPartiallyPaid InstallmentStatus = "PARTIALLY_PAID" // 0 < paid < amount
	StatusPaid          InstallmentStatus = "PAID"           // Paid in full (within tolerance)
	StatusOverdue       InstallmentStatus = "OVERDUE"        // Past due date, nothing paid
	StatusCancelled     InstallmentStatus = "CANCELLED"      // Terminal, absorbs all transitions
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusPending, StatusPartiallyPaid,
		StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the installment is in a terminal state
func (s InstallmentStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// ParseInstallmentStatus parses a status token case-insensitively,
// reporting whether a recognized token was supplied.
func ParseInstallmentStatus(raw string) (InstallmentStatus, bool) {
	s := InstallmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s, true
	}
	return StatusScheduled, false
}

// ParseInstallmentStatusOrDefault parses a status token, falling back to
// SCHEDULED for anything unrecognized.
func ParseInstallmentStatusOrDefault(raw string) InstallmentStatus {
	s, _ := ParseInstallmentStatus(raw)
	return s
}

// RawInstallment is a loosely-typed installment as supplied by an external
// caller. Numeric fields may be numbers or strings; the due date may be a
// native time or an ISO-8601 string.
type RawInstallment struct {
	ID         string         `json:"id,omitempty"`
	Sequence   any            `json:"sequence"`
	Amount     any            `json:"amount"`
	DueDate    any            `json:"due_date"`
	Status     string         `json:"status"`
	PaidAmount any            `json:"paid_amount"`
	Notes      string         `json:"notes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Installment is a sanitized invoice installment. HasManualStatus records
// whether a recognized status token was actually supplied by the caller, as
// opposed to the SCHEDULED default.
type Installment struct {
	ID              string            `json:"id,omitempty"`
	Sequence        int               `json:"sequence"`
	Amount          decimal.Decimal   `json:"amount"`
	DueDate         time.Time         `json:"due_date"`
	Status          InstallmentStatus `json:"status"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	Notes           string            `json:"notes,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	HasManualStatus bool              `json:"has_manual_status"`
}

// NormalizeInstallmentInputs sanitizes a raw installment list. Entries with
// an unparseable due date or non-positive amount are silently dropped, not
// rejected; callers requiring strict validation must validate upstream.
// Surviving entries keep a supplied finite sequence or get their 1-based
// position after filtering, and the result is sorted ascending by sequence.
func NormalizeInstallmentInputs(raw []RawInstallment) []Installment {
	normalized := make([]Installment, 0, len(raw))

	for _, r := range raw {
		dueDate, ok := valueobject.CoerceTime(r.DueDate)
		if !ok {
			continue
		}
		amount := valueobject.Round2(valueobject.CoerceDecimal(r.Amount))
		if !amount.IsPositive() {
			continue
		}

		paidAmount := valueobject.Round2(valueobject.CoerceDecimal(r.PaidAmount))
		if paidAmount.IsNegative() {
			paidAmount = decimal.Zero
		}

		status, manual := ParseInstallmentStatus(r.Status)

		sequence, hasSequence := valueobject.CoerceInt(r.Sequence)
		if !hasSequence {
			sequence = len(normalized) + 1
		}

		normalized = append(normalized, Installment{
			ID:              r.ID,
			Sequence:        sequence,
			Amount:          amount,
			DueDate:         dueDate,
			Status:          status,
			PaidAmount:      paidAmount,
			Notes:           r.Notes,
			Metadata:        r.Metadata,
			HasManualStatus: manual,
		})
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Sequence < normalized[j].Sequence
	})
	return normalized
}
