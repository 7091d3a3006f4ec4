// internal/app/features/profile/handler.go
package profile

import (
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/inputval"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's own account settings.
type Handler struct {
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Val      *inputval.Validator
	Log      *zap.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		AuditLog: audit,
		Val:      inputval.New(),
		Log:      logger,
	}
}
