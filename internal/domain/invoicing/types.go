package invoicing

import (
	"github.com/shopspring/decimal"
)

// RawLineItem is a loosely-typed invoice line item as supplied by an
// external caller. Numeric fields may arrive as native numbers, decimals,
// or loosely formatted strings; they are coerced, never rejected.
type RawLineItem struct {
	Description string         `json:"description"`
	Quantity    any            `json:"quantity"`
	UnitPrice   any            `json:"unit_price"`
	TotalPrice  any            `json:"total_price"`
	TaxRate     any            `json:"tax_rate"`
	TaxAmount   any            `json:"tax_amount"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RawTaxRecord is a previously persisted tax row attached to an invoice.
type RawTaxRecord struct {
	ID          string `json:"id,omitempty"`
	TaxType     string `json:"tax_type,omitempty"`
	Rate        any    `json:"rate"`
	TaxAmount   any    `json:"tax_amount"`
	Description string `json:"description,omitempty"`
}

// RawInvoiceRecord is a raw invoice carrying optionally stored top-level
// totals plus its line items and persisted tax rows.
type RawInvoiceRecord struct {
	Subtotal    any            `json:"subtotal"`
	TaxAmount   any            `json:"tax_amount"`
	TotalAmount any            `json:"total_amount"`
	PaidAmount  any            `json:"paid_amount"`
	Items       []RawLineItem  `json:"items"`
	Taxes       []RawTaxRecord `json:"taxes"`
}

// NormalizedItem is a line item with all numeric fields coerced and rounded
// to 2 decimal places, internally consistent with its own totals.
type NormalizedItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// NormalizedTax is one entry of an invoice's tax breakdown: the summed tax
// amount for a distinct rate bucket.
type NormalizedTax struct {
	ID          string          `json:"id,omitempty"`
	TaxType     string          `json:"tax_type,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Description string          `json:"description,omitempty"`
}

// ItemTotals aggregates normalized line items.
type ItemTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Breakdown   []NormalizedTax `json:"breakdown"`
}

// NormalizedInvoiceRecord is the reconciled view of a raw invoice.
// NeedsNormalization reports whether any stored field deviated from the
// recomputed values beyond tolerance, i.e. whether the caller should write
// the record back.
type NormalizedInvoiceRecord struct {
	Subtotal           decimal.Decimal  `json:"subtotal"`
	TaxAmount          decimal.Decimal  `json:"tax_amount"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	PaidAmount         decimal.Decimal  `json:"paid_amount"`
	Outstanding        decimal.Decimal  `json:"outstanding"`
	Items              []NormalizedItem `json:"items"`
	Taxes              []NormalizedTax  `json:"taxes"`
	NeedsNormalization bool             `json:"needs_normalization"`
}

// InvoiceUpdate is the minimal write surface returned to the caller when a
// persisted invoice needs its scalar totals corrected.
type InvoiceUpdate struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// InvoiceSummary is the fold of independently normalized invoices.
type InvoiceSummary struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
