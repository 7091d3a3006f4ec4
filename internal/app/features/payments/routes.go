// internal/app/features/payments/routes.go
package payments

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the payment endpoints under /payments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	staff := auth.RequireRole(models.RoleSuperAdmin, models.RoleManager)
	client := auth.RequireRole(models.RoleClient)

	r.With(client).Post("/declare", h.HandleDeclare)
	r.With(client).Get("/client-history", h.ServeClientHistory)
	r.With(staff).Get("/pending", h.ServePending)
	r.With(staff).Get("/history", h.ServeHistory)
	r.With(staff).Patch("/{id}/confirm", h.HandleConfirm)
	r.With(staff).Post("/{id}/invoice/render", h.HandleRender)
	r.Get("/{id}/invoice", h.ServeInvoice)
	return r
}

// InvoiceRoutes mounts the download-by-number endpoint under /invoices.
func InvoiceRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/{number}", h.ServeInvoiceByNumber)
	return r
}
