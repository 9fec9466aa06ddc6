package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(c echo.Context, role string) echo.Context {
	ctx := context.WithValue(c.Request().Context(), UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
	return c
}

func TestRequireRole_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := contextWithRole(e.NewContext(req, rec), RoleDoctor)

	mw := RequireRole(RoleDoctor)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := contextWithRole(e.NewContext(req, rec), RolePatient)

	mw := RequireRole(RoleDoctor)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireRole_AnyOf(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := contextWithRole(e.NewContext(req, rec), RolePatient)

	mw := RequireRole(RoleDoctor, RolePatient)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RolePatient) || !ValidRole(RoleDoctor) {
		t.Error("expected patient and doctor to be valid roles")
	}
	if ValidRole("admin") {
		t.Error("expected admin to be rejected")
	}
	if ValidRole("") {
		t.Error("expected empty role to be rejected")
	}
}
