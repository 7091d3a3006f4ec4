// internal/app/features/clients/handler.go
package clients

import (
	casestore "github.com/aloria/backoffice/internal/app/store/cases"
	clientstore "github.com/aloria/backoffice/internal/app/store/clients"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/inputval"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/app/system/onboarding"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves client profiles: listing, detail, direct creation and
// reassignment between employees.
type Handler struct {
	DB         *mongo.Database
	Clients    *clientstore.Store
	Cases      *casestore.Store
	Users      *userstore.Store
	Onboarding *onboarding.Service
	Notifier   *notify.Notifier
	AuditLog   *auditlog.Logger
	Val        *inputval.Validator
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, onboard *onboarding.Service, notifier *notify.Notifier, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Clients:    clientstore.New(db),
		Cases:      casestore.New(db),
		Users:      userstore.New(db),
		Onboarding: onboard,
		Notifier:   notifier,
		AuditLog:   audit,
		Val:        inputval.New(),
		Log:        logger,
	}
}
