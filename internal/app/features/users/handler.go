// internal/app/features/users/handler.go
package users

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/inputval"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves staff account administration.
type Handler struct {
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Val      *inputval.Validator
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		AuditLog: audit,
		Val:      inputval.New(),
		Log:      logger,
	}
}

// creatableBy lists the roles each administrator may hand out. Client
// accounts are created through the client endpoints, superadmins at bootstrap.
var creatableBy = map[string][]string{
	models.RoleSuperAdmin: {models.RoleManager, models.RoleEmployee, models.RoleConsultant},
	models.RoleManager:    {models.RoleEmployee, models.RoleConsultant},
}

type createInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=40"`
	Role     string `json:"role" validate:"required,role"`
}

type createResponse struct {
	User              models.User `json:"user"`
	TemporaryPassword string      `json:"temporary_password"`
}

// HandleCreate creates a staff account with a temporary password that must
// be changed at first sign-in.
//
// POST /users
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	var in createInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	role := models.NormalizeRole(in.Role)
	allowed := false
	for _, c := range creatableBy[actor.Role] {
		if c == role {
			allowed = true
			break
		}
	}
	if !allowed {
		respond.Error(w, r, h.Log, apierr.Forbidden("Not allowed to create "+strings.ToLower(role)+" accounts"))
		return
	}

	temp, err := authutil.GenerateTempPassword()
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	hash, err := authutil.HashPassword(temp)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "users:create")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:           htmlsanitize.Text(in.FullName),
		Email:              in.Email,
		Phone:              in.Phone,
		Role:               role,
		PasswordHash:       hash,
		MustChangePassword: true,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, r, h.Log, apierr.ValidationFields("Email already registered", map[string]string{"email": "already registered"}))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	h.AuditLog.UserCreated(ctx, r, actor.ID, u.ID, u.Role)
	respond.Created(w, createResponse{User: u, TemporaryPassword: temp})
}

// ServeList lists users, optionally by role, sorted by name.
//
// GET /users?role=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var roles []string
	if role := strings.TrimSpace(r.URL.Query().Get("role")); role != "" {
		if !models.IsValidRole(role) {
			respond.Error(w, r, h.Log, apierr.ValidationFields("Unknown role", map[string]string{"role": "must be a valid role"}))
			return
		}
		roles = append(roles, role)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users:list")
	defer cancel()

	list, err := h.Users.ListByRole(ctx, false, roles...)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, list)
}
