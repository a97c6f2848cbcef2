package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		granted  []string
		required []string
		want     bool
	}{
		{[]string{RoleIntakeWriter}, []string{RoleIntakeWriter}, true},
		{[]string{RoleIntakeReader}, []string{RoleIntakeWriter}, false},
		{[]string{RoleAdmin}, []string{RoleIntakeWriter}, true},
		{[]string{RoleIntakeReader}, []string{RoleIntakeWriter, RoleIntakeReader}, true},
		{nil, []string{RoleIntakeReader}, false},
	}
	for _, tt := range tests {
		if got := HasRole(tt.granted, tt.required...); got != tt.want {
			t.Errorf("HasRole(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}

func roleContext(roles []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, roles))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allowed(t *testing.T) {
	c, rec := roleContext([]string{RoleIntakeWriter})
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	if err := RequireRole(RoleIntakeWriter)(handler)(c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c, _ := roleContext([]string{RoleIntakeReader})
	handler := func(c echo.Context) error {
		t.Error("handler should not be called")
		return nil
	}

	err := RequireRole(RoleIntakeWriter)(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	c, _ := roleContext(nil)
	err := RequireRole(RoleIntakeReader)(func(c echo.Context) error { return nil })(c)
	if err == nil {
		t.Error("expected error when no roles are present")
	}
}
