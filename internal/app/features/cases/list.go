// internal/app/features/cases/list.go
package cases

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/policy/casepolicy"
	casestore "github.com/aloria/backoffice/internal/app/store/cases"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
)

// ServeList lists the cases visible to the caller, newest first.
//
// GET /cases
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := casepolicy.CanListCases(r)
	if !scope.CanList {
		respond.Error(w, r, h.Log, apierr.Forbidden("Access denied"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "cases:list")
	defer cancel()

	var f casestore.Filter
	switch {
	case scope.EmployeeID != nil:
		ids, err := h.Clients.UserIDsAssignedTo(ctx, *scope.EmployeeID)
		if err != nil {
			respond.Error(w, r, h.Log, apierr.Internal(err))
			return
		}
		f.ClientUserIDs = ids
	case scope.ClientUserID != nil:
		f.ClientUserIDs = []models.UserID{*scope.ClientUserID}
	}

	list, err := h.Cases.List(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, list)
}

// ServeGet returns one case.
//
// GET /cases/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	cs, client, err := h.load(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !casepolicy.CanViewCase(r, *cs, client) {
		respond.Error(w, r, h.Log, apierr.Forbidden("Access denied"))
		return
	}
	respond.OK(w, cs)
}
