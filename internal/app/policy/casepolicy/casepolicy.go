// Package casepolicy provides authorization policies for clients and their cases.
//
// Authorization rules:
//   - Superadmins and managers see and manage every client and case
//   - Employees see and update the clients assigned to them and their cases
//   - Consultants may read every client profile but no case
//   - Clients may read their own profile and cases
package casepolicy

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/domain/models"
)

// ClientScope represents the client profiles a user can list.
type ClientScope struct {
	CanList bool
	All     bool
	// EmployeeID restricts to clients assigned to this employee.
	EmployeeID *models.UserID
}

// CanListClients determines what scope of clients the current user can list.
func CanListClients(r *http.Request) ClientScope {
	u, ok := authz.UserCtx(r)
	if !ok {
		return ClientScope{}
	}
	switch u.Role {
	case models.RoleSuperAdmin, models.RoleManager, models.RoleConsultant:
		return ClientScope{CanList: true, All: true}
	case models.RoleEmployee:
		id := u.ID
		return ClientScope{CanList: true, EmployeeID: &id}
	default:
		return ClientScope{}
	}
}

// CanViewClient reports whether the current user can read c.
func CanViewClient(r *http.Request, c models.Client) bool {
	u, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	switch u.Role {
	case models.RoleSuperAdmin, models.RoleManager, models.RoleConsultant:
		return true
	case models.RoleEmployee:
		return c.AssignedEmployeeID != nil && *c.AssignedEmployeeID == u.ID
	case models.RoleClient:
		return c.UserID == u.ID
	default:
		return false
	}
}

// CanReassignClient reports whether the current user may move clients between employees.
func CanReassignClient(r *http.Request) bool {
	return authz.IsAdmin(r)
}

// CaseScope represents the cases a user can list.
type CaseScope struct {
	CanList bool
	All     bool
	// EmployeeID restricts to cases of clients assigned to this employee.
	EmployeeID *models.UserID
	// ClientUserID restricts to cases owned by this client user.
	ClientUserID *models.UserID
}

// CanListCases determines what scope of cases the current user can list.
func CanListCases(r *http.Request) CaseScope {
	u, ok := authz.UserCtx(r)
	if !ok {
		return CaseScope{}
	}
	id := u.ID
	switch u.Role {
	case models.RoleSuperAdmin, models.RoleManager:
		return CaseScope{CanList: true, All: true}
	case models.RoleEmployee:
		return CaseScope{CanList: true, EmployeeID: &id}
	case models.RoleClient:
		return CaseScope{CanList: true, ClientUserID: &id}
	default:
		return CaseScope{}
	}
}

// CanViewCase reports whether the current user can read cs. client is the
// profile the case belongs to and may be nil when it no longer exists.
func CanViewCase(r *http.Request, cs models.Case, client *models.Client) bool {
	u, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	switch u.Role {
	case models.RoleSuperAdmin, models.RoleManager:
		return true
	case models.RoleEmployee:
		return client != nil && client.AssignedEmployeeID != nil && *client.AssignedEmployeeID == u.ID
	case models.RoleClient:
		return cs.ClientID == u.ID
	default:
		return false
	}
}

// CanUpdateCase reports whether the current user may advance cs.
func CanUpdateCase(r *http.Request, cs models.Case, client *models.Client) bool {
	if authz.IsAdmin(r) {
		return true
	}
	return authz.IsEmployee(r) && CanViewCase(r, cs, client)
}
