package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireRoleAllowsListedRoles(t *testing.T) {
	handler := RequireRole(nil, "admin", "moderator")(okHandler())

	for _, role := range []string{"admin", "moderator"} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, role)
	}
}

func TestRequireRoleRejectsOthers(t *testing.T) {
	handler := RequireRole(nil, "admin")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req = req.WithContext(WithRole(req.Context(), "moderator"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
