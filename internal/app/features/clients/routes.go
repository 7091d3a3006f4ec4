// internal/app/features/clients/routes.go
package clients

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee, models.RoleConsultant)).
		Get("/", h.ServeList)
	r.With(auth.RequireRole(models.RoleClient)).Get("/me", h.ServeMe)
	r.Get("/{id}", h.ServeGet)
	r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee)).
		Post("/", h.HandleCreate)
	r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager)).
		Patch("/{id}/reassign", h.HandleReassign)
	return r
}
