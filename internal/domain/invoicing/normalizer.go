package invoicing

import (
	"sort"

	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// rateKeyScale turns a tax rate into an integer fixed-point bucket key
// (rate x 10000). Grouping on an integer key avoids any floating-point
// bucketing ambiguity between rates like 14.0 and 14.0000001.
var rateKeyScale = decimal.NewFromInt(10000)

func rateKey(rate decimal.Decimal) int64 {
	return rate.Mul(rateKeyScale).Round(0).IntPart()
}

// NormalizeLineItems converts raw line items into rounded, internally
// consistent items and aggregate totals with a per-rate tax breakdown.
//
// Per item, an explicit positive total price wins over quantity*unitPrice,
// and an explicit positive tax amount wins over totalPrice*rate/100. All
// monetary fields in the output are rounded to 2 decimal places.
func NormalizeLineItems(items []RawLineItem) ([]NormalizedItem, ItemTotals) {
	normalized := make([]NormalizedItem, 0, len(items))

	subtotal := decimal.Zero
	taxTotal := decimal.Zero

	type taxBucket struct {
		rate   decimal.Decimal
		amount decimal.Decimal
	}
	buckets := make(map[int64]*taxBucket)

	for _, raw := range items {
		quantity := valueobject.Round2(valueobject.CoerceDecimal(raw.Quantity))
		unitPrice := valueobject.Round2(valueobject.CoerceDecimal(raw.UnitPrice))
		taxRate := valueobject.CoerceDecimal(raw.TaxRate)

		totalPrice := valueobject.CoerceDecimal(raw.TotalPrice)
		if !totalPrice.IsPositive() {
			totalPrice = quantity.Mul(unitPrice)
		}
		totalPrice = valueobject.Round2(totalPrice)

		taxAmount := valueobject.CoerceDecimal(raw.TaxAmount)
		if !taxAmount.IsPositive() {
			taxAmount = totalPrice.Mul(taxRate).Div(oneHundred)
		}
		taxAmount = valueobject.Round2(taxAmount)

		normalized = append(normalized, NormalizedItem{
			Description: raw.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  totalPrice,
			TaxRate:     taxRate,
			TaxAmount:   taxAmount,
			Metadata:    raw.Metadata,
		})

		subtotal = subtotal.Add(totalPrice)
		taxTotal = taxTotal.Add(taxAmount)

		// Items without a positive rate or tax contribute nothing to the
		// breakdown, only to the flat tax total.
		if !taxRate.IsPositive() || !taxAmount.IsPositive() {
			continue
		}
		key := rateKey(taxRate)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &taxBucket{rate: taxRate}
			buckets[key] = bucket
		}
		bucket.amount = bucket.amount.Add(taxAmount)
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	breakdown := make([]NormalizedTax, 0, len(keys))
	for _, k := range keys {
		bucket := buckets[k]
		breakdown = append(breakdown, NormalizedTax{
			Rate:      bucket.rate,
			TaxAmount: valueobject.Round2(bucket.amount),
		})
	}

	subtotal = valueobject.Round2(subtotal)
	taxTotal = valueobject.Round2(taxTotal)

	totals := ItemTotals{
		Subtotal:    subtotal,
		TaxAmount:   taxTotal,
		TotalAmount: valueobject.Round2(subtotal.Add(taxTotal)),
		Breakdown:   breakdown,
	}
	return normalized, totals
}
