package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/domain/models"
)

func TestRoleHelpers(t *testing.T) {
	tests := []struct {
		role       string
		superAdmin bool
		admin      bool
		employee   bool
		consultant bool
		client     bool
	}{
		{models.RoleSuperAdmin, true, true, false, false, false},
		{models.RoleManager, false, true, false, false, false},
		{models.RoleEmployee, false, false, true, false, false},
		{models.RoleConsultant, false, false, false, true, false},
		{models.RoleClient, false, false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req = auth.WithTestUser(req, &auth.SessionUser{ID: models.NewUserID(), Role: tt.role})

			if got := authz.IsSuperAdmin(req); got != tt.superAdmin {
				t.Errorf("IsSuperAdmin = %v", got)
			}
			if got := authz.IsAdmin(req); got != tt.admin {
				t.Errorf("IsAdmin = %v", got)
			}
			if got := authz.IsEmployee(req); got != tt.employee {
				t.Errorf("IsEmployee = %v", got)
			}
			if got := authz.IsConsultant(req); got != tt.consultant {
				t.Errorf("IsConsultant = %v", got)
			}
			if got := authz.IsClient(req); got != tt.client {
				t.Errorf("IsClient = %v", got)
			}
		})
	}
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if _, ok := authz.UserCtx(req); ok {
		t.Error("expected no user")
	}
	if authz.HasAnyRole(req, authz.Internal...) {
		t.Error("anonymous caller must not match any role")
	}
}

func TestUserCtx_ZeroIDFailsClosed(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{Role: models.RoleSuperAdmin})
	if authz.IsSuperAdmin(req) {
		t.Error("user without an id must not be trusted")
	}
}
