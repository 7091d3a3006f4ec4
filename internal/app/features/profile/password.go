// internal/app/features/profile/password.go
package profile

import (
	"errors"
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// HandleChangePassword replaces the caller's password and clears the
// must-change flag set on temporary passwords.
//
// PATCH /auth/change-password
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	cu, _ := authz.UserCtx(r)

	var in changePasswordInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile:change-password")
	defer cancel()

	u, err := h.Users.GetByID(ctx, cu.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	// Verify current password
	if !authutil.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		respond.Error(w, r, h.Log, apierr.ValidationFields("Current password is incorrect",
			map[string]string{"current_password": "incorrect"}))
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		respond.Error(w, r, h.Log, apierr.ValidationFields(err.Error(), map[string]string{"new_password": err.Error()}))
		return
	}
	// Don't allow reusing the current password
	if in.NewPassword == in.CurrentPassword {
		respond.Error(w, r, h.Log, apierr.ValidationFields("New password cannot be the same as your current password",
			map[string]string{"new_password": "unchanged"}))
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash, false); err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	h.AuditLog.PasswordChanged(ctx, r, u.ID, u.MustChangePassword)
	respond.Detail(w, http.StatusOK, "Password updated")
}
