// internal/app/features/cases/handler.go
package cases

import (
	"errors"
	"net/http"

	casestore "github.com/aloria/backoffice/internal/app/store/cases"
	clientstore "github.com/aloria/backoffice/internal/app/store/clients"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/inputval"
	"github.com/aloria/backoffice/internal/app/system/mailer"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves case listing, detail and progress updates.
type Handler struct {
	Cases    *casestore.Store
	Clients  *clientstore.Store
	Users    *userstore.Store
	Notifier *notify.Notifier
	Mailer   *mailer.Mailer
	AuditLog *auditlog.Logger
	SiteName string
	Val      *inputval.Validator
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, notifier *notify.Notifier, m *mailer.Mailer, audit *auditlog.Logger, siteName string, logger *zap.Logger) *Handler {
	return &Handler{
		Cases:    casestore.New(db),
		Clients:  clientstore.New(db),
		Users:    userstore.New(db),
		Notifier: notifier,
		Mailer:   m,
		AuditLog: audit,
		SiteName: siteName,
		Val:      inputval.New(),
		Log:      logger,
	}
}

// load resolves {id} to the case and, when it still exists, its client profile.
func (h *Handler) load(r *http.Request) (*models.Case, *models.Client, error) {
	id, err := models.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, apierr.Validation("Invalid case id")
	}
	cs, err := h.Cases.GetByID(r.Context(), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, apierr.NotFound("Case not found")
	}
	if err != nil {
		return nil, nil, apierr.Internal(err)
	}
	client, err := h.Clients.GetByID(r.Context(), cs.ClientProfileID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return cs, nil, nil
	}
	if err != nil {
		return nil, nil, apierr.Internal(err)
	}
	return cs, client, nil
}
