// internal/app/features/clients/reassign.go
package clients

import (
	"errors"
	"net/http"

	"github.com/aloria/backoffice/internal/app/store/queries/clientviews"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleReassign moves a client to another active employee.
//
// PATCH /clients/{id}/reassign?new_employee_id=
func (h *Handler) HandleReassign(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	id, err := models.ParseClientProfileID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid client id"))
		return
	}
	employeeID, err := models.ParseUserID(r.URL.Query().Get("new_employee_id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.ValidationFields("new_employee_id is required",
			map[string]string{"new_employee_id": "must be a valid user id"}))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "clients:reassign")
	defer cancel()

	employee, err := h.Users.GetActiveWithRole(ctx, employeeID, models.RoleEmployee)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.ValidationFields("Target must be an active employee",
			map[string]string{"new_employee_id": "must be an active employee"}))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	before, err := h.Clients.Reassign(ctx, id, employee.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Client not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	h.AuditLog.ClientReassigned(ctx, r, actor.ID, id, before.AssignedEmployeeID, employee.ID)

	// The move is committed; a failed read only degrades the response.
	after := *before
	after.AssignedEmployeeID = &employee.ID
	view, err := clientviews.Get(ctx, h.DB, id)
	if err != nil {
		h.Log.Warn("reassigned client could not be reloaded",
			zap.String("client_id", id.Hex()), zap.Error(err))
		fallback := models.NewClientView(after, nil, employee)
		view = &fallback
	}

	body := "Un nouveau client vous a été attribué."
	if view.FullName != "" {
		body = "Le client " + view.FullName + " vous a été attribué."
	}
	h.Notifier.Notify(ctx, []models.UserID{employee.ID}, notify.Message{
		Type:      models.NotifyClientAssigned,
		Title:     "Nouveau client attribué",
		Body:      body,
		RelatedID: id.Hex(),
	})
	respond.OK(w, view)
}
