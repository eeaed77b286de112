package invoicing

import (
	"fmt"

	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// NormalizeInvoiceRecord reconciles a raw invoice's stored totals against
// values recomputed from its line items, deciding per field which side to
// trust. It is a pure function and idempotent: re-running it on its own
// output yields identical totals and NeedsNormalization=false.
func NormalizeInvoiceRecord(raw RawInvoiceRecord) NormalizedInvoiceRecord {
	items, totals := NormalizeLineItems(raw.Items)

	storedSubtotal := valueobject.Round2(valueobject.CoerceDecimal(raw.Subtotal))
	storedTax := valueobject.Round2(valueobject.CoerceDecimal(raw.TaxAmount))
	storedTotal := valueobject.Round2(valueobject.CoerceDecimal(raw.TotalAmount))
	paidAmount := valueobject.Round2(valueobject.CoerceDecimal(raw.PaidAmount))

	// Prefer the subtotal computed from items; an empty or degenerate item
	// set falls back to whatever was stored.
	subtotal := totals.Subtotal
	if !subtotal.IsPositive() {
		subtotal = storedSubtotal
	}

	existingTaxes := normalizeTaxRecords(raw.Taxes)
	existingTaxesSum := sumTaxAmounts(existingTaxes)

	// Tax amount cascade: computed breakdown first, then the persisted tax
	// rows, then the stored scalar field.
	breakdownSum := sumBreakdown(totals.Breakdown)
	taxAmount := breakdownSum
	if !taxAmount.IsPositive() {
		if existingTaxesSum.IsPositive() {
			taxAmount = existingTaxesSum
		} else {
			taxAmount = storedTax
		}
	}

	// When the persisted tax rows no longer agree with the chosen tax
	// amount, rebuild them from the computed breakdown, preserving the
	// identity of the closest existing row per rate bucket.
	taxes := existingTaxes
	taxesRebuilt := false
	if len(totals.Breakdown) > 0 && !valueobject.WithinTolerance(existingTaxesSum, taxAmount) {
		taxes = rebuildTaxes(totals.Breakdown, existingTaxes)
		taxAmount = sumTaxAmounts(taxes)
		taxesRebuilt = true
	}

	// A stored total within tolerance of the computed one is kept verbatim
	// so pre-existing consistent rounding survives; anything further off is
	// treated as corrupted or stale and replaced.
	computedTotal := valueobject.Round2(subtotal.Add(taxAmount))
	totalAmount := computedTotal
	if storedTotal.IsPositive() && valueobject.WithinTolerance(storedTotal, computedTotal) {
		totalAmount = storedTotal
	}

	outstanding := totalAmount.Sub(paidAmount)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	outstanding = valueobject.Round2(outstanding)

	taxRowsConsistent := len(existingTaxes) == 0 ||
		valueobject.WithinTolerance(existingTaxesSum, taxAmount)

	needsNormalization := !valueobject.WithinTolerance(storedSubtotal, subtotal) ||
		!valueobject.WithinTolerance(storedTax, taxAmount) ||
		!valueobject.WithinTolerance(storedTotal, totalAmount) ||
		!taxRowsConsistent ||
		taxesRebuilt

	return NormalizedInvoiceRecord{
		Subtotal:           subtotal,
		TaxAmount:          taxAmount,
		TotalAmount:        totalAmount,
		PaidAmount:         paidAmount,
		Outstanding:        outstanding,
		Items:              items,
		Taxes:              taxes,
		NeedsNormalization: needsNormalization,
	}
}

// ApplyInvoiceNormalization normalizes a raw invoice and, when anything
// changed beyond tolerance, returns the minimal update payload the caller
// should persist. The payload is nil when the stored record is already
// consistent.
func ApplyInvoiceNormalization(raw RawInvoiceRecord) (NormalizedInvoiceRecord, *InvoiceUpdate) {
	normalized := NormalizeInvoiceRecord(raw)
	if !normalized.NeedsNormalization {
		return normalized, nil
	}
	return normalized, &InvoiceUpdate{
		Subtotal:    normalized.Subtotal,
		TaxAmount:   normalized.TaxAmount,
		TotalAmount: normalized.TotalAmount,
	}
}

// SumInvoices normalizes each invoice independently and folds the results.
// There is no cross-invoice coupling: a corrupt record only affects its own
// contribution.
func SumInvoices(invoices []RawInvoiceRecord) InvoiceSummary {
	totalAmount := decimal.Zero
	totalPaid := decimal.Zero
	outstanding := decimal.Zero

	for _, raw := range invoices {
		normalized := NormalizeInvoiceRecord(raw)
		totalAmount = totalAmount.Add(normalized.TotalAmount)
		totalPaid = totalPaid.Add(normalized.PaidAmount)
		outstanding = outstanding.Add(normalized.Outstanding)
	}

	return InvoiceSummary{
		TotalAmount: valueobject.Round2(totalAmount),
		TotalPaid:   valueobject.Round2(totalPaid),
		Outstanding: valueobject.Round2(outstanding),
	}
}

// normalizeTaxRecords coerces persisted tax rows into normalized entries.
func normalizeTaxRecords(records []RawTaxRecord) []NormalizedTax {
	taxes := make([]NormalizedTax, 0, len(records))
	for _, r := range records {
		taxes = append(taxes, NormalizedTax{
			ID:          r.ID,
			TaxType:     r.TaxType,
			Rate:        valueobject.CoerceDecimal(r.Rate),
			TaxAmount:   valueobject.Round2(valueobject.CoerceDecimal(r.TaxAmount)),
			Description: r.Description,
		})
	}
	return taxes
}

// rebuildTaxes replaces the persisted tax rows with the computed breakdown.
// Each new rate bucket adopts the id, type, and description of its existing
// counterpart so stable identities survive the rebuild. Exact rate matches
// are claimed first; leftovers are paired by rate proximity within half a
// percentage point. Buckets with no counterpart get a synthesized
// description.
func rebuildTaxes(breakdown []NormalizedTax, existing []NormalizedTax) []NormalizedTax {
	used := make([]bool, len(existing))
	matched := make([]int, len(breakdown))

	for b, bucket := range breakdown {
		matched[b] = -1
		for i, ex := range existing {
			if !used[i] && rateKey(ex.Rate) == rateKey(bucket.Rate) {
				used[i] = true
				matched[b] = i
				break
			}
		}
	}

	maxDrift := decimal.NewFromFloat(0.5)
	for b, bucket := range breakdown {
		if matched[b] >= 0 {
			continue
		}
		bestIdx := -1
		var bestDiff decimal.Decimal
		for i, ex := range existing {
			if used[i] {
				continue
			}
			diff := ex.Rate.Sub(bucket.Rate).Abs()
			if diff.GreaterThan(maxDrift) {
				continue
			}
			if bestIdx == -1 || diff.LessThan(bestDiff) {
				bestIdx = i
				bestDiff = diff
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			matched[b] = bestIdx
		}
	}

	rebuilt := make([]NormalizedTax, 0, len(breakdown))
	for b, bucket := range breakdown {
		entry := NormalizedTax{
			Rate:        bucket.Rate,
			TaxAmount:   bucket.TaxAmount,
			Description: fmt.Sprintf("Tax at rate %s%%", bucket.Rate.String()),
		}
		if i := matched[b]; i >= 0 {
			match := existing[i]
			entry.ID = match.ID
			entry.TaxType = match.TaxType
			if match.Description != "" {
				entry.Description = match.Description
			}
		}
		rebuilt = append(rebuilt, entry)
	}
	return rebuilt
}

func sumTaxAmounts(taxes []NormalizedTax) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range taxes {
		sum = sum.Add(t.TaxAmount)
	}
	return valueobject.Round2(sum)
}

func sumBreakdown(breakdown []NormalizedTax) decimal.Decimal {
	return sumTaxAmounts(breakdown)
}
