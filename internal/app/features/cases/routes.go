// internal/app/features/cases/routes.go
package cases

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee, models.RoleClient))
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee)).
		Patch("/{id}", h.HandleUpdate)
	return r
}
