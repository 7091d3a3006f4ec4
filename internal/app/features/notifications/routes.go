// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Get("/unread-count", h.ServeUnreadCount)
	r.Patch("/read-all", h.HandleMarkAllRead)
	r.Patch("/{id}/read", h.HandleMarkRead)
	return r
}
