package models

import (
	"time"

	"github.com/billing/backend/internal/domain/installment"
	"github.com/billing/backend/internal/domain/invoicing"
	"github.com/billing/backend/internal/domain/repayment"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	CustomerName  string                   `gorm:"type:varchar(200);not null"`
	Subtotal      decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	TaxAmount     decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	TotalAmount   decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Items         invoicing.LineItems      `gorm:"type:jsonb;default:'[]'"`
	Taxes         invoicing.TaxLines       `gorm:"type:jsonb;default:'[]'"`
	Installments  installment.Installments `gorm:"type:jsonb;default:'[]'"`
	Remark        string                   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		CustomerName:  m.CustomerName,
		Subtotal:      m.Subtotal,
		TaxAmount:     m.TaxAmount,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		Items:         m.Items,
		Taxes:         m.Taxes,
		Installments:  m.Installments,
		Remark:        m.Remark,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerName = inv.CustomerName
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.Items = inv.Items
	m.Taxes = inv.Taxes
	m.Installments = inv.Installments
	m.Remark = inv.Remark
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// RepaymentPlanModel is the persistence model for the RepaymentPlan aggregate root.
type RepaymentPlanModel struct {
	TenantAggregateModel
	Reference    string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_plan_tenant_reference,priority:2"`
	Principal    decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	TermMonths   int                       `gorm:"not null"`
	StartDate    time.Time                 `gorm:"not null"`
	RepaidAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Schedule     repayment.ScheduleEntries `gorm:"type:jsonb;default:'[]'"`
	NextDueDate  *time.Time                `gorm:"index"`
	Remark       string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RepaymentPlanModel) TableName() string {
	return "repayment_plans"
}

// ToDomain converts the persistence model to a domain RepaymentPlan entity.
func (m *RepaymentPlanModel) ToDomain() *repayment.RepaymentPlan {
	plan := &repayment.RepaymentPlan{
		Reference:    m.Reference,
		Principal:    m.Principal,
		TermMonths:   m.TermMonths,
		StartDate:    m.StartDate,
		RepaidAmount: m.RepaidAmount,
		Schedule:     m.Schedule,
		NextDueDate:  m.NextDueDate,
		Remark:       m.Remark,
	}
	m.PopulateTenantAggregateRoot(&plan.TenantAggregateRoot)
	return plan
}

// FromDomain populates the persistence model from a domain RepaymentPlan entity.
func (m *RepaymentPlanModel) FromDomain(plan *repayment.RepaymentPlan) {
	m.FromDomainTenantAggregateRoot(plan.TenantAggregateRoot)
	m.Reference = plan.Reference
	m.Principal = plan.Principal
	m.TermMonths = plan.TermMonths
	m.StartDate = plan.StartDate
	m.RepaidAmount = plan.RepaidAmount
	m.Schedule = plan.Schedule
	m.NextDueDate = plan.NextDueDate
	m.Remark = plan.Remark
}

// RepaymentPlanModelFromDomain creates a new persistence model from a domain RepaymentPlan.
func RepaymentPlanModelFromDomain(plan *repayment.RepaymentPlan) *RepaymentPlanModel {
	m := &RepaymentPlanModel{}
	m.FromDomain(plan)
	return m
}

var _ shared.AggregateRoot = (*invoicing.Invoice)(nil)
var _ shared.AggregateRoot = (*repayment.RepaymentPlan)(nil)
