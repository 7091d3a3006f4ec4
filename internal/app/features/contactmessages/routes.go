// internal/app/features/contactmessages/routes.go
package contactmessages

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/app/system/ratelimit"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the prospect endpoints. Intake is public and rate limited
// per client IP; everything else requires a staff role.
func Routes(h *Handler, intake *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.With(intake.Middleware).Post("/", h.HandleCreate)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee, models.RoleConsultant))
		r.Get("/", h.ServeList)
		r.Get("/{id}", h.ServeGet)
		r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager)).
			Patch("/{id}/assign", h.HandleAssign)
		r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee)).
			Patch("/{id}/assign-consultant", h.HandleAssignConsultant)
		r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleConsultant)).
			Patch("/{id}/consultant-notes", h.HandleAddNote)
		r.With(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager, models.RoleEmployee)).
			Post("/{id}/convert-to-client", h.HandleConvert)
	})
	return r
}
