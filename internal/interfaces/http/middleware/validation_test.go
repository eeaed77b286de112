package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoiceBindRouter() *gin.Engine {
	type createInvoice struct {
		InvoiceNumber string `json:"invoice_number" binding:"required"`
		CustomerName  string `json:"customer_name" binding:"required,max=200"`
		Currency      string `json:"currency" binding:"required,len=3"`
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/billing/invoices", func(c *gin.Context) {
		var req createInvoice
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()
	router := newInvoiceBindRouter()

	t.Run("reports each failing field by json name", func(t *testing.T) {
		body := strings.NewReader(`{"customer_name": "Acme Corp", "currency": "USDX"}`)
		req := httptest.NewRequest(http.MethodPost, "/billing/invoices", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "invoice_number")
		assert.Contains(t, fields, "currency")
	})

	t.Run("passes valid payload through", func(t *testing.T) {
		body := strings.NewReader(`{"invoice_number": "INV-2026-001", "customer_name": "Acme Corp", "currency": "USD"}`)
		req := httptest.NewRequest(http.MethodPost, "/billing/invoices", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type plan struct {
		Reference  string `validate:"required"`
		Currency   string `validate:"len=3"`
		TermMonths int    `validate:"gte=1"`
		Principal  string `validate:"numeric"`
		CustomerID string `validate:"uuid"`
		Status     string `validate:"oneof=draft issued settled"`
	}

	v := validator.New()
	err := v.Struct(plan{Currency: "US", TermMonths: 0, Principal: "abc", CustomerID: "nope", Status: "void"})
	require.Error(t, err)

	expected := map[string]string{
		"Reference":  "This field is required",
		"Currency":   "Must be exactly 3 characters",
		"TermMonths": "Must be greater than or equal to 1",
		"Principal":  "Must be numeric",
		"CustomerID": "Invalid UUID format",
		"Status":     "Must be one of: draft issued settled",
	}

	for _, fe := range err.(validator.ValidationErrors) {
		assert.Equal(t, expected[fe.Field()], getValidationMessage(fe), fe.Field())
	}
}
