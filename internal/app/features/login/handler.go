// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/inputval"
	"github.com/aloria/backoffice/internal/app/system/ratelimit"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves sign-in, sign-out, self-registration and the superadmin
// bootstrap endpoint.
type Handler struct {
	Users            *userstore.Store
	Tokens           *auth.TokenManager
	SessionMgr       *auth.SessionManager // optional
	Limiter          *ratelimit.LoginLimiter
	AuditLog         *auditlog.Logger
	SuperAdminSecret string
	Val              *inputval.Validator
	Log              *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	tokens *auth.TokenManager,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	superAdminSecret string,
	logger *zap.Logger,
) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		Users:            userstore.New(db),
		Tokens:           tokens,
		SessionMgr:       sessionMgr,
		Limiter:          limiter,
		AuditLog:         audit,
		SuperAdminSecret: superAdminSecret,
		Val:              inputval.New(),
		Log:              logger,
	}
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        models.User `json:"user"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/login                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var errBadCredentials = apierr.Unauthorized("Incorrect email or password")

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login:post")
	defer cancel()

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.AuditLog.LoginFailedRateLimit(ctx, r, email, "login")
		respond.Error(w, r, h.Log, apierr.RateLimited(msg))
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	if !authutil.CheckPassword(u.PasswordHash, in.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}
	if !u.IsActive() {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		respond.Error(w, r, h.Log, apierr.Forbidden("Account disabled"))
		return
	}

	h.Limiter.ResetEmail(email)
	h.signIn(ctx, w, r, *u, http.StatusOK)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)
}

// signIn issues an access token and, when a session manager is configured,
// the session cookie. A cookie failure is logged; the token still works.
func (h *Handler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User, status int) {
	tok, exp, err := h.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	if h.SessionMgr != nil {
		if err := h.SessionMgr.SignIn(w, r, u.ID); err != nil {
			h.Log.Warn("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		}
	}
	respond.JSON(w, status, tokenResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresAt:   exp,
		User:        u,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/logout                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogout clears the session cookie. Bearer tokens are stateless and
// simply expire.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if h.SessionMgr != nil {
		if err := h.SessionMgr.SignOut(w, r); err != nil {
			h.Log.Warn("logout: save session", zap.Error(err))
		}
	}
	if u, ok := authz.UserCtx(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	respond.Detail(w, http.StatusOK, "Logged out")
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/me                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	cu, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login:me")
	defer cancel()

	u, err := h.Users.GetByID(ctx, cu.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/register                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type registerInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=40"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a CLIENT account without a client profile and
// signs it in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login:register")
	defer cancel()

	u, err := h.createUser(ctx, in.FullName, in.Email, in.Phone, in.Password, models.RoleClient)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.AuditLog.Registered(ctx, r, u.ID, u.Email)
	h.signIn(ctx, w, r, u, http.StatusCreated)
}

// createUser validates the password and inserts an account with role.
// Errors are already mapped to API errors.
func (h *Handler) createUser(ctx context.Context, fullName, email, phone, password, role string) (models.User, error) {
	if err := authutil.ValidatePassword(password); err != nil {
		return models.User{}, apierr.ValidationFields(err.Error(), map[string]string{"password": err.Error()})
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}

	u, err := h.Users.Create(ctx, models.User{
		FullName:     htmlsanitize.Text(fullName),
		Email:        email,
		Phone:        phone,
		Role:         role,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return models.User{}, apierr.ValidationFields("Email already registered", map[string]string{"email": "already registered"})
	}
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}
	return u, nil
}
