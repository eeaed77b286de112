package handler

import (
	billingapp "github.com/billing/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RepaymentHandler handles repayment plan API endpoints
type RepaymentHandler struct {
	BaseHandler
	repaymentService *billingapp.RepaymentService
}

// NewRepaymentHandler creates a new RepaymentHandler
func NewRepaymentHandler(repaymentService *billingapp.RepaymentService) *RepaymentHandler {
	return &RepaymentHandler{
		repaymentService: repaymentService,
	}
}

// Create godoc
// @ID           createRepaymentPlan
// @Summary      Create a repayment plan
// @Description  Creates a plan and generates its monthly schedule from the principal and term
// @Tags         repayments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body billingapp.CreatePlanRequest true "Plan creation request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /billing/repayment-plans [post]
func (h *RepaymentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.repaymentService.CreatePlan(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
// @ID           getRepaymentPlan
// @Summary      Get a repayment plan by ID
// @Tags         repayments
// @Produce      json
// @Param        id path string true "Plan ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /billing/repayment-plans/{id} [get]
func (h *RepaymentHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	resp, err := h.repaymentService.GetPlan(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetByReference godoc
// @ID           getRepaymentPlanByReference
// @Summary      Get a repayment plan by its reference
// @Tags         repayments
// @Produce      json
// @Param        reference path string true "Plan reference"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /billing/repayment-plans/reference/{reference} [get]
func (h *RepaymentHandler) GetByReference(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	reference := c.Param("reference")
	if reference == "" {
		h.BadRequest(c, "Plan reference is required")
		return
	}

	resp, err := h.repaymentService.GetPlanByReference(c.Request.Context(), tenantID, reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @ID           listRepaymentPlans
// @Summary      List repayment plans
// @Tags         repayments
// @Produce      json
// @Param        settled query bool false "Filter by settlement state"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response
// @Router       /billing/repayment-plans [get]
func (h *RepaymentHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter billingapp.PlanListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.repaymentService.ListPlans(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RecordRepayment godoc
// @ID           recordRepayment
// @Summary      Record a repayment against a plan
// @Description  Credits the amount and reallocates it greedily across the schedule
// @Tags         repayments
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID"
// @Param        request body billingapp.RecordRepaymentRequest true "Repayment request"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /billing/repayment-plans/{id}/repayments [post]
func (h *RepaymentHandler) RecordRepayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	var req billingapp.RecordRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.repaymentService.RecordRepayment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// PreviewSchedule godoc
// @ID           previewRepaymentSchedule
// @Summary      Preview a repayment schedule
// @Description  Generates a schedule and allocates a repaid amount without persisting anything
// @Tags         repayments
// @Accept       json
// @Produce      json
// @Param        request body billingapp.SchedulePreviewRequest true "Schedule preview request"
// @Success      200 {object} dto.Response
// @Router       /billing/repayment-plans/schedule-preview [post]
func (h *RepaymentHandler) PreviewSchedule(c *gin.Context) {
	var req billingapp.SchedulePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result := h.repaymentService.PreviewSchedule(req)
	h.Success(c, result)
}

// Summary godoc
// @ID           getRepaymentSummary
// @Summary      Get the repayment summary for a tenant
// @Description  Total outstanding principal plus open and settled plan counts
// @Tags         repayments
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /billing/repayment-plans/summary [get]
func (h *RepaymentHandler) Summary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	resp, err := h.repaymentService.GetSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers all repayment plan routes
func (h *RepaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/billing/repayment-plans")
	{
		plans.POST("", h.Create)
		plans.GET("", h.List)
		plans.GET("/summary", h.Summary)
		plans.POST("/schedule-preview", h.PreviewSchedule)
		plans.GET("/reference/:reference", h.GetByReference)
		plans.GET("/:id", h.Get)
		plans.POST("/:id/repayments", h.RecordRepayment)
	}
}
