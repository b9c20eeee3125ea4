package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/patitas-pets/patitas-backend/pkg/auth"
	"github.com/patitas-pets/patitas-backend/pkg/auth/session"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
)

func sessionTestConfig() config.SessionConfig {
	return config.SessionConfig{Secret: "secret", Issuer: "patitas", ExpirationMinutes: 60}
}

func TestAuthRejectsMissingCookie(t *testing.T) {
	cfg := sessionTestConfig()
	handler := Auth(cfg, stubSessionChecker{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := sessionTestConfig()
	token := mintTestToken(t, cfg, time.Now().Add(-2*time.Hour))
	handler := Auth(cfg, stubSessionChecker{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := sessionTestConfig()
	token := mintTestToken(t, cfg, time.Now())
	handler := Auth(cfg, stubSessionChecker{ok: false}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsDeactivatedAccount(t *testing.T) {
	cfg := sessionTestConfig()
	token := mintTestToken(t, cfg, time.Now())
	accounts := stubAccountChecker{err: pkgerrors.New(pkgerrors.CodeForbidden, "cuenta desactivada")}
	handler := Auth(cfg, stubSessionChecker{ok: true}, accounts, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAuthAllowsLiveSession(t *testing.T) {
	cfg := sessionTestConfig()
	token := mintTestToken(t, cfg, time.Now())

	var captured struct {
		user  string
		role  string
		email string
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.email = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(cfg, stubSessionChecker{ok: true}, stubAccountChecker{role: enums.UserRoleAdmin}, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user == "" {
		t.Fatal("expected user id in context")
	}
	if captured.role != string(enums.UserRoleAdmin) {
		t.Fatalf("expected role admin got %s", captured.role)
	}
	if captured.email != "admin@patitas.pe" {
		t.Fatalf("expected token email in context, got %q", captured.email)
	}
}

func TestAdminGateRedirectsAnonymousToLogin(t *testing.T) {
	cfg := sessionTestConfig()
	handler := AdminGate(cfg, stubSessionChecker{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307 got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "/admin?returnUrl=%2Fadmin%2Fdashboard" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestAdminGateRedirectPreservesQuery(t *testing.T) {
	cfg := sessionTestConfig()
	handler := AdminGate(cfg, stubSessionChecker{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/categories?page=2", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307 got %d", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != "/admin?returnUrl=%2Fadmin%2Fcategories%3Fpage%3D2" {
		t.Fatalf("unexpected redirect %q", got)
	}
}

func TestAdminGateSkipsLoginPage(t *testing.T) {
	cfg := sessionTestConfig()
	handler := AdminGate(cfg, stubSessionChecker{ok: false}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminGateTreatsExpiredCookieAsAnonymous(t *testing.T) {
	cfg := sessionTestConfig()
	token := mintTestToken(t, cfg, time.Now().Add(-2*time.Hour))
	handler := AdminGate(cfg, stubSessionChecker{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307 got %d", resp.Code)
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func mintTestToken(t *testing.T, cfg config.SessionConfig, issuedAt time.Time) string {
	t.Helper()
	payload := auth.SessionPayload{
		UserID: uuid.New(),
		Email:  "admin@patitas.pe",
		Role:   enums.UserRoleAdmin,
		JTI:    session.NewSessionID(),
	}
	token, err := auth.MintSessionToken(cfg, issuedAt, payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type stubSessionChecker struct {
	ok  bool
	err error
}

func (s stubSessionChecker) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}

type stubAccountChecker struct {
	role enums.UserRole
	err  error
}

func (s stubAccountChecker) CheckActive(ctx context.Context, userID string) (enums.UserRole, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.role, nil
}
