package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionManager keeps the signed-in user id in a signed cookie, for browser
// clients that do not send a bearer token.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true), cookies are Secure + SameSite=None for
// cross-site use with HTTPS. In local dev over http://localhost, use
// secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "aloria-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SignIn records userID in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID models.UserID) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			m.log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("user_id", userID.Hex()))
		} else {
			m.log.Error("session store error during sign-in, using fresh session",
				zap.Error(err),
				zap.String("user_id", userID.Hex()))
		}
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID.Hex()
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// UserID returns the user id stored in the request's session, if any.
func (m *SessionManager) UserID(r *http.Request) (models.UserID, bool) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return models.UserID{}, false
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return models.UserID{}, false
	}
	hex, _ := sess.Values[userIDKey].(string)
	id, err := models.ParseUserID(hex)
	if err != nil {
		return models.UserID{}, false
	}
	return id, true
}
