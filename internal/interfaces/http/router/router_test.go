package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubRegistrar struct {
	prefix string
}

func (s *stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(s.prefix)
	group.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

func TestRouter_Setup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("mounts registrars under default version", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine)
		r.Register(&stubRegistrar{prefix: "/billing/invoices"})
		r.Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoices", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("honors version option", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine, WithAPIVersion("v2"))
		r.Register(&stubRegistrar{prefix: "/billing/invoices"})
		r.Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/billing/invoices", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoices", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("register is chainable", func(t *testing.T) {
		engine := gin.New()
		NewRouter(engine).
			Register(&stubRegistrar{prefix: "/billing/invoices"}).
			Register(&stubRegistrar{prefix: "/billing/repayment-plans"}).
			Setup()

		for _, path := range []string{"/api/v1/billing/invoices", "/api/v1/billing/repayment-plans"} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})
}
