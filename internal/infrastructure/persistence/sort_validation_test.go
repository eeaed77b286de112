package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"asc lowercase", "asc", "ASC"},
		{"asc uppercase", "ASC", "ASC"},
		{"asc mixed case", "Asc", "ASC"},
		{"asc with spaces", "  asc  ", "ASC"},
		{"desc lowercase", "desc", "DESC"},
		{"desc uppercase", "DESC", "DESC"},
		{"empty string", "", "DESC"},
		{"invalid input", "random", "DESC"},
		{"sql injection attempt", "ASC; DROP TABLE invoices;", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		expected string
	}{
		{"allowed field", "invoice_number", InvoiceSortFields, "invoice_number"},
		{"allowed amount field", "total_amount", InvoiceSortFields, "total_amount"},
		{"empty field", "", InvoiceSortFields, "created_at"},
		{"field with spaces", "  customer_name  ", InvoiceSortFields, "customer_name"},
		{"unknown field", "secret_column", InvoiceSortFields, "created_at"},
		{"sql injection attempt", "created_at; DROP TABLE invoices;", InvoiceSortFields, "created_at"},
		{"subquery injection attempt", "(SELECT 1)", InvoiceSortFields, "created_at"},
		{"plan reference field", "reference", RepaymentPlanSortFields, "reference"},
		{"plan next due date field", "next_due_date", RepaymentPlanSortFields, "next_due_date"},
		{"invoice column not valid for plans", "invoice_number", RepaymentPlanSortFields, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, "created_at"))
		})
	}
}
