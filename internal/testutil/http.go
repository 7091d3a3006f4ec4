package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    models.UserID
	Name  string
	Email string
	Role  string
}

// AsUser returns a TestUser for an existing user record.
func AsUser(u models.User) TestUser {
	return TestUser{ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role}
}

// SuperAdminUser returns a TestUser with the superadmin role and a fresh id.
func SuperAdminUser() TestUser {
	return TestUser{ID: models.NewUserID(), Name: "Test SuperAdmin", Email: "superadmin@test.com", Role: models.RoleSuperAdmin}
}

// ManagerUser returns a TestUser with the manager role and a fresh id.
func ManagerUser() TestUser {
	return TestUser{ID: models.NewUserID(), Name: "Test Manager", Email: "manager@test.com", Role: models.RoleManager}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses LoadUser and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  models.NormalizeRole(user.Role),
	})
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler method directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// JSONRequest builds a request with body marshalled from v.
func JSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if v != nil {
		if err := json.NewEncoder(&body).Encode(v); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes a recorder's body into v, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response (%d %s): %v", rec.Code, rec.Body.String(), err)
	}
}

// AssertStatus checks the response status code, printing the body on mismatch.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status code: got %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
