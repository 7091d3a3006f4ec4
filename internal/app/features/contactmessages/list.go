// internal/app/features/contactmessages/list.go
package contactmessages

import (
	"net/http"
	"strings"

	"github.com/aloria/backoffice/internal/app/policy/prospectpolicy"
	contactmessagestore "github.com/aloria/backoffice/internal/app/store/contactmessages"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
)

// ServeList lists the prospects visible to the caller, newest first.
//
// GET /contact-messages?status=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := prospectpolicy.CanListProspects(r)
	if !scope.CanList {
		h.fail(w, r, apierr.Forbidden("Access denied"))
		return
	}

	f := contactmessagestore.Filter{
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		AssignedTo: scope.AssignedTo,
		Unassigned: scope.Unassigned,
		Consultant: scope.Consultant,
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contact-messages:list")
	defer cancel()

	list, err := h.Prospects.List(ctx, f)
	if err != nil {
		h.fail(w, r, apierr.Internal(err))
		return
	}
	respond.OK(w, list)
}

// ServeGet returns one prospect. Prospects outside the caller's scope are
// reported as missing.
//
// GET /contact-messages/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.load(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !prospectpolicy.CanViewProspect(r, *m) {
		h.fail(w, r, apierr.NotFound("Prospect not found"))
		return
	}
	respond.OK(w, m)
}
