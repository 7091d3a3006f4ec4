// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	metricsstore "github.com/aloria/backoffice/internal/app/store/metrics"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// ServeStats returns the dashboard totals visible to the caller.
//
// GET /dashboard/stats
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	u, _ := authz.UserCtx(r)

	scope := metricsstore.Scope{ViewerID: u.ID}
	switch u.Role {
	case models.RoleSuperAdmin, models.RoleManager:
		scope.All = true
	case models.RoleEmployee:
		id := u.ID
		scope.EmployeeID = &id
	case models.RoleConsultant:
		id := u.ID
		scope.ConsultantID = &id
		scope.AllClients = true
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dashboard:stats")
	defer cancel()

	respond.OK(w, metricsstore.FetchDashboardCounts(ctx, h.DB, scope))
}
