// internal/app/features/login/superadmin.go
package login

import (
	"crypto/subtle"
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
)

// HandleCreateSuperAdmin creates a SUPERADMIN account when ?secret_key matches
// the configured bootstrap secret. An unset secret disables the endpoint.
//
// POST /auth/create-superadmin?secret_key=...
func (h *Handler) HandleCreateSuperAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login:create-superadmin")
	defer cancel()

	given := r.URL.Query().Get("secret_key")
	if h.SuperAdminSecret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.SuperAdminSecret)) != 1 {
		h.AuditLog.SuperAdminSecretRejected(ctx, r)
		respond.Error(w, r, h.Log, apierr.Forbidden("Invalid secret key"))
		return
	}

	var in registerInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	u, err := h.createUser(ctx, in.FullName, in.Email, in.Phone, in.Password, models.RoleSuperAdmin)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.AuditLog.SuperAdminBootstrap(ctx, r, u.ID, u.Email, "api")
	respond.Created(w, u)
}
