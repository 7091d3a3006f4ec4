// internal/app/system/authz/authz.go
//
// Package authz names the role groups used by route guards and answers
// role questions about the current request.
package authz

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
)

// Role groups for route allow-lists.
var (
	// Admins manage the pipeline, payments and staff.
	Admins = []string{models.RoleSuperAdmin, models.RoleManager}
	// Staff work client files day to day.
	Staff = []string{models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee}
	// Internal is every non-client role.
	Internal = []string{models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee, models.RoleConsultant}
)

// UserCtx returns the current user and a found flag.
func UserCtx(r *http.Request) (*auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil || u.ID.IsZero() {
		return nil, false
	}
	return u, true
}

// HasAnyRole reports whether the current user holds any of roles.
// Returns false if no user is present.
func HasAnyRole(r *http.Request, roles ...string) bool {
	u, ok := UserCtx(r)
	return ok && u.Is(roles...)
}

// IsSuperAdmin reports whether the caller is a superadmin.
func IsSuperAdmin(r *http.Request) bool { return HasAnyRole(r, models.RoleSuperAdmin) }

// IsAdmin reports whether the caller is a manager or superadmin.
func IsAdmin(r *http.Request) bool { return HasAnyRole(r, Admins...) }

// IsEmployee reports whether the caller is an employee.
func IsEmployee(r *http.Request) bool { return HasAnyRole(r, models.RoleEmployee) }

// IsConsultant reports whether the caller is a consultant.
func IsConsultant(r *http.Request) bool { return HasAnyRole(r, models.RoleConsultant) }

// IsClient reports whether the caller is a client.
func IsClient(r *http.Request) bool { return HasAnyRole(r, models.RoleClient) }
