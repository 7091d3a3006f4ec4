// internal/app/features/clients/list.go
package clients

import (
	"errors"
	"net/http"

	"github.com/aloria/backoffice/internal/app/policy/casepolicy"
	"github.com/aloria/backoffice/internal/app/store/queries/clientviews"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList lists the client profiles visible to the caller, newest first.
//
// GET /clients
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := casepolicy.CanListClients(r)
	if !scope.CanList {
		respond.Error(w, r, h.Log, apierr.Forbidden("Access denied"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "clients:list")
	defer cancel()

	views, err := clientviews.List(ctx, h.DB, clientviews.Filter{AssignedEmployeeID: scope.EmployeeID})
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, views)
}

// ServeGet returns one client profile.
//
// GET /clients/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseClientProfileID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid client id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "clients:get")
	defer cancel()

	view, err := clientviews.Get(ctx, h.DB, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Client not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	if !casepolicy.CanViewClient(r, view.Client) {
		respond.Error(w, r, h.Log, apierr.Forbidden("Access denied"))
		return
	}
	respond.OK(w, view)
}

type meResponse struct {
	Client models.ClientView `json:"client"`
	Case   *models.Case      `json:"case"`
}

// ServeMe returns the signed-in client's own profile and latest case.
//
// GET /clients/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "clients:me")
	defer cancel()

	view, err := clientviews.GetByUser(ctx, h.DB, u.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("Client profile not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	cs, err := h.Cases.LatestForClient(ctx, u.ID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, meResponse{Client: *view, Case: cs})
}
