// internal/app/features/login/routes.go
package login

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /auth subrouter. Other features may add signed-in
// endpoints to it (see profile.MountRoutes).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/register", h.HandleRegister)
	r.Post("/create-superadmin", h.HandleCreateSuperAdmin)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/logout", h.HandleLogout)
		pr.Get("/me", h.ServeMe)
	})
	return r
}
