// internal/app/features/contactmessages/handler.go
package contactmessages

import (
	"errors"
	"net/http"

	contactmessagestore "github.com/aloria/backoffice/internal/app/store/contactmessages"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/inputval"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/onboarding"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the prospect pipeline: public intake and the staff-side
// transitions from nouveau to converti_client.
type Handler struct {
	Prospects  *contactmessagestore.Store
	Users      *userstore.Store
	Onboarding *onboarding.Service
	Notifier   *notify.Notifier
	AuditLog   *auditlog.Logger
	Val        *inputval.Validator
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, onboard *onboarding.Service, notifier *notify.Notifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Prospects:  contactmessagestore.New(db),
		Users:      userstore.New(db),
		Onboarding: onboard,
		Notifier:   notifier,
		AuditLog:   audit,
		Val:        inputval.New(),
		Log:        logger,
	}
}

// load resolves the {id} URL parameter to a prospect.
func (h *Handler) load(r *http.Request) (*models.ContactMessage, error) {
	id, err := models.ParseProspectID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, apierr.Validation("Invalid prospect id")
	}
	m, err := h.Prospects.GetByID(r.Context(), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.NotFound("Prospect not found")
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return m, nil
}

// transitionErr maps a failed compare-and-swap to the API taxonomy.
func transitionErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.NotFound("Prospect not found")
	case errors.Is(err, contactmessagestore.ErrStateConflict):
		return apierr.Conflict("Prospect is not in a state that allows this action")
	default:
		return apierr.Internal(err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.Log, err)
}
