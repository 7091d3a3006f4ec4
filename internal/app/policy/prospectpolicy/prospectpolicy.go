// Package prospectpolicy provides authorization policies for the prospect pipeline.
//
// Authorization rules:
//   - Superadmins see and act on every prospect
//   - Managers see the prospects assigned to them and those not yet assigned
//   - Employees see the prospects assigned to them
//   - Consultants see prospects awaiting consultation and those they consult on
//   - Clients have no access to prospects
package prospectpolicy

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/domain/models"
)

// States each transition may start from.
var (
	AssignFrom  = []string{models.ProspectNew, models.ProspectAssigned}
	ReferFrom   = []string{models.ProspectAssigned}
	AddNoteFrom = []string{models.ProspectPayment50k, models.ProspectInConsultation}
)

// ListScope represents the prospects a user can list.
type ListScope struct {
	// CanList indicates whether the user can list prospects at all.
	CanList bool
	// All indicates no restriction.
	All bool
	// AssignedTo restricts to prospects assigned to this user.
	AssignedTo *models.UserID
	// Unassigned adds prospects with no assignee to the AssignedTo scope.
	Unassigned bool
	// Consultant restricts to prospects visible to this consultant.
	Consultant *models.UserID
}

// CanListProspects determines what scope of prospects the current user can list.
func CanListProspects(r *http.Request) ListScope {
	u, ok := authz.UserCtx(r)
	if !ok {
		return ListScope{}
	}
	id := u.ID

	switch u.Role {
	case models.RoleSuperAdmin:
		return ListScope{CanList: true, All: true}
	case models.RoleManager:
		return ListScope{CanList: true, AssignedTo: &id, Unassigned: true}
	case models.RoleEmployee:
		return ListScope{CanList: true, AssignedTo: &id}
	case models.RoleConsultant:
		return ListScope{CanList: true, Consultant: &id}
	default:
		return ListScope{}
	}
}

// CanViewProspect reports whether the current user can see m.
func CanViewProspect(r *http.Request, m models.ContactMessage) bool {
	u, ok := authz.UserCtx(r)
	if !ok {
		return false
	}

	switch u.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleManager:
		return m.AssignedTo == nil || *m.AssignedTo == u.ID
	case models.RoleEmployee:
		return m.AssignedTo != nil && *m.AssignedTo == u.ID
	case models.RoleConsultant:
		if m.Status == models.ProspectPayment50k {
			return true
		}
		return m.Status == models.ProspectInConsultation &&
			m.AssignedConsultantID != nil && *m.AssignedConsultantID == u.ID
	default:
		return false
	}
}

// CanAssign reports whether the current user may (re)assign m.
// Managers may pick up unassigned prospects as well as their own.
func CanAssign(r *http.Request, m models.ContactMessage) bool {
	u, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	switch u.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleManager:
		return m.AssignedTo == nil || *m.AssignedTo == u.ID
	default:
		return false
	}
}

// CanReferToConsultant reports whether the current user may send m to consultation.
func CanReferToConsultant(r *http.Request, m models.ContactMessage) bool {
	u, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	switch u.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleManager, models.RoleEmployee:
		return m.AssignedTo != nil && *m.AssignedTo == u.ID
	default:
		return false
	}
}

// CanAddNote reports whether the current user may add a consultation note to m.
func CanAddNote(r *http.Request, m models.ContactMessage) bool {
	if !authz.HasAnyRole(r, models.RoleSuperAdmin, models.RoleManager, models.RoleConsultant) {
		return false
	}
	return CanViewProspect(r, m)
}

// CanConvert reports whether the current user may convert m into a client.
func CanConvert(r *http.Request, m models.ContactMessage) bool {
	if !authz.HasAnyRole(r, models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee) {
		return false
	}
	return CanViewProspect(r, m)
}
