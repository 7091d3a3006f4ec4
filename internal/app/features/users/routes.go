// internal/app/features/users/routes.go
package users

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager))
	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)
	return r
}
