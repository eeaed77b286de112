package billing

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/installment"
	"github.com/billing/backend/internal/domain/invoicing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo invoicing.InvoiceRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoicing.InvoiceRepository) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo}
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID                  `json:"id"`
	TenantID      uuid.UUID                  `json:"tenant_id"`
	InvoiceNumber string                     `json:"invoice_number"`
	CustomerName  string                     `json:"customer_name"`
	Subtotal      decimal.Decimal            `json:"subtotal"`
	TaxAmount     decimal.Decimal            `json:"tax_amount"`
	TotalAmount   decimal.Decimal            `json:"total_amount"`
	PaidAmount    decimal.Decimal            `json:"paid_amount"`
	Outstanding   decimal.Decimal            `json:"outstanding"`
	Items         []invoicing.NormalizedItem `json:"items"`
	Taxes         []invoicing.NormalizedTax  `json:"taxes"`
	Installments  []installment.Installment  `json:"installments"`
	Remark        string                     `json:"remark,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
	Version       int                        `json:"version"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	CustomerName string `form:"customer_name"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir"`
}

// CreateInvoiceRequest carries a raw invoice to be ingested
type CreateInvoiceRequest struct {
	InvoiceNumber string                     `json:"invoice_number" binding:"required"`
	CustomerName  string                     `json:"customer_name" binding:"required"`
	Record        invoicing.RawInvoiceRecord `json:"record"`
	Remark        string                     `json:"remark"`
}

// CreateInvoice ingests a raw invoice record, normalizing it before first
// persist
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	exists, err := s.invoiceRepo.ExistsByNumber(ctx, tenantID, req.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_INVOICE_NUMBER", "Invoice number already exists for this tenant")
	}

	invoice, err := invoicing.NewInvoice(tenantID, req.InvoiceNumber, req.CustomerName, req.Record)
	if err != nil {
		return nil, err
	}
	invoice.Remark = req.Remark

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	return toInvoiceResponse(invoice), nil
}

// GetInvoice gets an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// GetInvoiceByNumber gets an invoice by its invoice number
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, tenantID, invoiceNumber)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	domainFilter := invoicing.InvoiceFilter{CustomerName: filter.CustomerName}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Normalize()

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = *toInvoiceResponse(&inv)
	}

	page := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// NormalizeInvoice re-runs reconciliation against the stored invoice and
// persists any corrections. Returns the reconciled invoice either way.
func (s *InvoiceService) NormalizeInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if invoice.Normalize() {
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			return nil, err
		}
	}

	return toInvoiceResponse(invoice), nil
}

// NormalizePreview reconciles a raw record without touching storage
func (s *InvoiceService) NormalizePreview(record invoicing.RawInvoiceRecord) invoicing.NormalizedInvoiceRecord {
	return invoicing.NormalizeInvoiceRecord(record)
}

// InvoiceSummaryResponse aggregates all invoices of a tenant
type InvoiceSummaryResponse struct {
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	InvoiceCount int64           `json:"invoice_count"`
}

// GetSummary sums totals, payments, and outstanding across a tenant's
// invoices
func (s *InvoiceService) GetSummary(ctx context.Context, tenantID uuid.UUID) (*InvoiceSummaryResponse, error) {
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, invoicing.InvoiceFilter{})
	if err != nil {
		return nil, err
	}

	records := make([]invoicing.RawInvoiceRecord, len(invoices))
	for i, inv := range invoices {
		records[i] = inv.RawRecord()
	}
	summary := invoicing.SumInvoices(records)

	return &InvoiceSummaryResponse{
		TotalAmount:  summary.TotalAmount,
		TotalPaid:    summary.TotalPaid,
		Outstanding:  summary.Outstanding,
		InvoiceCount: int64(len(invoices)),
	}, nil
}

// SetInstallmentsRequest replaces an invoice's installment schedule
type SetInstallmentsRequest struct {
	Installments []installment.RawInstallment `json:"installments" binding:"required"`
}

// SetInstallments replaces the invoice's installments with a sanitized copy
// of the supplied raw list
func (s *InvoiceService) SetInstallments(ctx context.Context, tenantID, id uuid.UUID, req SetInstallmentsRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	invoice.SetInstallments(req.Installments, time.Now())

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	return toInvoiceResponse(invoice), nil
}

// RefreshInstallments re-clamps installment statuses against the current
// date and persists when anything changed
func (s *InvoiceService) RefreshInstallments(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if invoice.RefreshInstallments(time.Now()) {
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			return nil, err
		}
	}

	return toInvoiceResponse(invoice), nil
}

// RecordInstallmentPaymentRequest credits a payment against one installment
type RecordInstallmentPaymentRequest struct {
	Sequence int             `json:"sequence" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

// RecordInstallmentPayment credits a payment against the installment with
// the given sequence
func (s *InvoiceService) RecordInstallmentPayment(ctx context.Context, tenantID, id uuid.UUID, req RecordInstallmentPaymentRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	amount := valueobject.NewMoneyUSD(req.Amount)
	if err := invoice.RecordInstallmentPayment(req.Sequence, amount, time.Now()); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	return toInvoiceResponse(invoice), nil
}

func toInvoiceResponse(inv *invoicing.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		Outstanding:   inv.Outstanding(),
		Items:         []invoicing.NormalizedItem(inv.Items),
		Taxes:         []invoicing.NormalizedTax(inv.Taxes),
		Installments:  []installment.Installment(inv.Installments),
		Remark:        inv.Remark,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}
