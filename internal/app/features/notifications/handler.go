// internal/app/features/notifications/handler.go
package notifications

import (
	"errors"
	"net/http"
	"strconv"

	notificationstore "github.com/aloria/backoffice/internal/app/store/notifications"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own notifications.
type Handler struct {
	Store *notificationstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Store: notificationstore.New(db), Log: logger}
}

// ServeList returns the caller's notifications, newest first.
//
// GET /notifications?unread=true
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := authz.UserCtx(r)
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notifications:list")
	defer cancel()

	list, err := h.Store.ListForRecipient(ctx, u.ID, unread)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, list)
}

// ServeUnreadCount returns {count}.
//
// GET /notifications/unread-count
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	u, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notifications:unread-count")
	defer cancel()

	n, err := h.Store.UnreadCount(ctx, u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, map[string]int64{"count": n})
}

// HandleMarkRead marks one of the caller's notifications read. Another
// user's notification is reported as missing.
//
// PATCH /notifications/{id}/read
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	u, _ := authz.UserCtx(r)

	id, err := models.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid notification id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notifications:read")
	defer cancel()

	if err := h.Store.MarkRead(ctx, id, u.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, r, h.Log, apierr.NotFound("Notification not found"))
			return
		}
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, map[string]bool{"read": true})
}

// HandleMarkAllRead marks every unread notification of the caller read.
//
// PATCH /notifications/read-all
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notifications:read-all")
	defer cancel()

	n, err := h.Store.MarkAllRead(ctx, u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, map[string]int64{"updated": n})
}
