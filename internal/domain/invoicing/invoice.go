package invoicing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/billing/backend/internal/domain/installment"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItems is a slice of NormalizedItem that implements GORM Scanner/Valuer
// for JSONB storage
type LineItems []NormalizedItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// TaxLines is a slice of NormalizedTax that implements GORM Scanner/Valuer
// for JSONB storage
type TaxLines []NormalizedTax

// Value implements driver.Valuer interface for GORM to store as JSONB
func (t TaxLines) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (t *TaxLines) Scan(value interface{}) error {
	if value == nil {
		*t = TaxLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan TaxLines: unsupported type")
	}

	if len(bytes) == 0 {
		*t = TaxLines{}
		return nil
	}

	return json.Unmarshal(bytes, t)
}

// Invoice is the invoice aggregate root. Scalar totals are stored alongside
// the normalized line items, tax lines, and installments; the reconciliation
// engine keeps them consistent on every write.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string                    `json:"invoice_number"`
	CustomerName  string                    `json:"customer_name"`
	Subtotal      decimal.Decimal           `json:"subtotal"`
	TaxAmount     decimal.Decimal           `json:"tax_amount"`
	TotalAmount   decimal.Decimal           `json:"total_amount"`
	PaidAmount    decimal.Decimal           `json:"paid_amount"`
	Items         LineItems                 `json:"items"`
	Taxes         TaxLines                  `json:"taxes"`
	Installments  installment.Installments  `json:"installments"`
	Remark        string                    `json:"remark,omitempty"`
}

// NewInvoice creates an invoice from a raw record, normalizing it on ingest.
// The raw items and taxes may be arbitrarily messy; only the identity fields
// are validated strictly.
func NewInvoice(tenantID uuid.UUID, invoiceNumber, customerName string, raw RawInvoiceRecord) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}

	normalized := NormalizeInvoiceRecord(raw)

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerName:        customerName,
		Subtotal:            normalized.Subtotal,
		TaxAmount:           normalized.TaxAmount,
		TotalAmount:         normalized.TotalAmount,
		PaidAmount:          normalized.PaidAmount,
		Items:               LineItems(normalized.Items),
		Taxes:               TaxLines(normalized.Taxes),
		Installments:        installment.Installments{},
	}

	return inv, nil
}

// RawRecord rebuilds the loosely-typed view of the stored invoice so the
// reconciliation engine can re-run against persisted state.
func (inv *Invoice) RawRecord() RawInvoiceRecord {
	items := make([]RawLineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, RawLineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			TaxRate:     it.TaxRate,
			TaxAmount:   it.TaxAmount,
			Metadata:    it.Metadata,
		})
	}
	taxes := make([]RawTaxRecord, 0, len(inv.Taxes))
	for _, tx := range inv.Taxes {
		taxes = append(taxes, RawTaxRecord{
			ID:          tx.ID,
			TaxType:     tx.TaxType,
			Rate:        tx.Rate,
			TaxAmount:   tx.TaxAmount,
			Description: tx.Description,
		})
	}
	return RawInvoiceRecord{
		Subtotal:    inv.Subtotal,
		TaxAmount:   inv.TaxAmount,
		TotalAmount: inv.TotalAmount,
		PaidAmount:  inv.PaidAmount,
		Items:       items,
		Taxes:       taxes,
	}
}

// Normalize re-runs reconciliation against the stored state and writes the
// corrected values back when anything deviated. Returns true when the
// aggregate changed and needs persisting.
func (inv *Invoice) Normalize() bool {
	normalized := NormalizeInvoiceRecord(inv.RawRecord())
	if !normalized.NeedsNormalization {
		return false
	}

	inv.Subtotal = normalized.Subtotal
	inv.TaxAmount = normalized.TaxAmount
	inv.TotalAmount = normalized.TotalAmount
	inv.Items = LineItems(normalized.Items)
	inv.Taxes = TaxLines(normalized.Taxes)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return true
}

// Normalized returns the reconciled view of the stored invoice without
// mutating the aggregate.
func (inv *Invoice) Normalized() NormalizedInvoiceRecord {
	return NormalizeInvoiceRecord(inv.RawRecord())
}

// Outstanding returns the unpaid remainder, never negative.
func (inv *Invoice) Outstanding() decimal.Decimal {
	outstanding := inv.TotalAmount.Sub(inv.PaidAmount)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return valueobject.Round2(outstanding)
}

// SetInstallments replaces the invoice's installments with a sanitized copy
// of the supplied raw list and clamps every status against the reference
// date.
func (inv *Invoice) SetInstallments(raw []installment.RawInstallment, referenceDate time.Time) {
	list := installment.NormalizeInstallmentInputs(raw)
	for i := range list {
		list[i].Status = installment.ClampInstallmentStatus(list[i], referenceDate)
	}
	inv.Installments = installment.Installments(list)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// RefreshInstallments re-clamps every installment status against the
// reference date. Returns true when any status changed.
func (inv *Invoice) RefreshInstallments(referenceDate time.Time) bool {
	changed := false
	for i := range inv.Installments {
		next := installment.ClampInstallmentStatus(inv.Installments[i], referenceDate)
		if next != inv.Installments[i].Status {
			inv.Installments[i].Status = next
			changed = true
		}
	}
	if changed {
		inv.UpdatedAt = time.Now()
		inv.IncrementVersion()
	}
	return changed
}

// RecordInstallmentPayment credits a payment against the installment with
// the given sequence, re-derives its status, and adds the amount to the
// invoice's paid total.
func (inv *Invoice) RecordInstallmentPayment(sequence int, amount valueobject.Money, referenceDate time.Time) error {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	idx := -1
	for i := range inv.Installments {
		if inv.Installments[i].Sequence == sequence {
			idx = i
			break
		}
	}
	if idx == -1 {
		return shared.NewDomainError("INSTALLMENT_NOT_FOUND", fmt.Sprintf("No installment with sequence %d", sequence))
	}

	target := &inv.Installments[idx]
	if target.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on %s installment", target.Status))
	}

	target.PaidAmount = valueobject.Round2(target.PaidAmount.Add(amount.Amount()))
	target.Status = installment.ClampInstallmentStatus(*target, referenceDate)

	inv.PaidAmount = valueobject.Round2(inv.PaidAmount.Add(amount.Amount()))
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// InstallmentTotals aggregates the invoice's installments.
func (inv *Invoice) InstallmentTotals() installment.InstallmentTotals {
	return installment.CalculateInstallmentTotals([]installment.Installment(inv.Installments))
}
