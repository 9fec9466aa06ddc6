package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/platform/notification"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	repo := newMockUserRepo()
	sessions := auth.NewSessionManager("test-secret", time.Hour)
	t.Cleanup(sessions.Close)
	notifier := notification.NewManager(&notification.MockEmailSender{}, zerolog.Nop())
	svc := NewService(repo, sessions, notifier)
	return NewHandler(svc), svc
}

func TestHandler_Signup(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"name":"Alice Wong","email":"alice@example.com","password":"s3cret-pass"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signup/patient", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("role")
	c.SetParamValues("patient")

	if err := h.Signup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var u User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "alice@example.com" || u.Role != auth.RolePatient {
		t.Errorf("unexpected user: %+v", u)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("expected password hash to be excluded from the response")
	}
}

func TestHandler_Signup_DuplicateEmail(t *testing.T) {
	h, svc := newTestHandler(t)
	svc.Signup(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "Alice Wong", "alice@example.com", "pass", auth.RolePatient)

	body := `{"name":"Other Alice","email":"alice@example.com","password":"pass"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signup/patient", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("role")
	c.SetParamValues("patient")

	err := h.Signup(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_Signup_BadRole(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"name":"Alice Wong","email":"alice@example.com","password":"pass"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signup/admin", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("role")
	c.SetParamValues("admin")

	err := h.Signup(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	h, svc := newTestHandler(t)
	svc.Signup(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "Alice Wong", "alice@example.com", "s3cret-pass", auth.RolePatient)

	body := `{"email":"alice@example.com","password":"s3cret-pass"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login/patient", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("role")
	c.SetParamValues("patient")

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a session token in the response")
	}
}

func TestHandler_Login_WrongRoleForm(t *testing.T) {
	h, svc := newTestHandler(t)
	svc.Signup(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "Alice Wong", "alice@example.com", "s3cret-pass", auth.RolePatient)

	body := `{"email":"alice@example.com","password":"s3cret-pass"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login/doctor", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("role")
	c.SetParamValues("doctor")

	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for role mismatch, got %v", err)
	}
}

func TestHandler_Logout(t *testing.T) {
	h, svc := newTestHandler(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	svc.Signup(ctx, "Alice Wong", "alice@example.com", "s3cret-pass", auth.RolePatient)
	token, _, _ := svc.Login(ctx, "alice@example.com", "s3cret-pass", auth.RolePatient)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Me(t *testing.T) {
	h, svc := newTestHandler(t)
	reqCtx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	u, _ := svc.Signup(reqCtx, "Alice Wong", "alice@example.com", "s3cret-pass", auth.RolePatient)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(auth.ContextWithUser(req.Context(), u.ID.String(), u.Name, u.Role)))

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.ID)
	}
}

func TestHandler_ListDoctors(t *testing.T) {
	h, svc := newTestHandler(t)
	reqCtx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	svc.Signup(reqCtx, "Dr. Lee", "lee@example.com", "pass", auth.RoleDoctor)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Dr. Lee") {
		t.Errorf("expected doctor in response, got %s", rec.Body.String())
	}
}
