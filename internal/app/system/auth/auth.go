// Package auth resolves who is calling (bearer token or session cookie) and
// guards routes by sign-in and role.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated caller injected into r.Context().
type SessionUser struct {
	ID    models.UserID
	Name  string
	Email string
	Role  string // uppercase
}

// Is reports whether the user holds one of roles.
func (u *SessionUser) Is(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == models.NormalizeRole(r) {
			return true
		}
	}
	return false
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context. Tests use it to bypass LoadUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Loading the caller                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// UserFetcher loads the current state of a user. It returns nil when the
// user does not exist or is disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, id models.UserID) *SessionUser
}

// Authenticator resolves the caller of each request.
type Authenticator struct {
	Tokens   *TokenManager
	Sessions *SessionManager // optional
	Users    UserFetcher
	Log      *zap.Logger
}

// LoadUser puts the caller into the request context when the request carries
// a valid bearer token or, failing that, a valid session cookie. The user is
// re-read on every request so disabled accounts and role changes apply at once.
// Requests without credentials pass through anonymously.
func (a *Authenticator) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.callerID(r)
		if ok {
			if u := a.Users.FetchUser(r.Context(), id); u != nil {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) callerID(r *http.Request) (models.UserID, bool) {
	if raw, ok := BearerToken(r); ok {
		claims, err := a.Tokens.Verify(raw)
		if err != nil {
			if a.Log != nil {
				a.Log.Debug("bearer token rejected", zap.Error(err))
			}
			return models.UserID{}, false
		}
		return claims.UserID, true
	}
	if a.Sessions != nil {
		return a.Sessions.UserID(r)
	}
	return models.UserID{}, false
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| Guards                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireSignedIn answers 401 when there is no user in context.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user holds none of allowed.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[models.NormalizeRole(role)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Detail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if _, has := set[u.Role]; !has {
				respond.Detail(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
