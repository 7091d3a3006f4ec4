// internal/app/features/profile/routes.go
package profile

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the account-settings endpoints on the /auth router.
func MountRoutes(r chi.Router, h *Handler) {
	r.With(auth.RequireSignedIn).Patch("/change-password", h.HandleChangePassword)
}
