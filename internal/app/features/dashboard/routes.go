// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature under whatever mount point
// the top-level router chooses (e.g., "/dashboard").
// Clients have no dashboard.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(authz.Internal...))
	r.Get("/stats", h.ServeStats)
	return r
}
