package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

const testSecret = "test-token-secret-must-be-32-bytes-long"

type fakeFetcher map[models.UserID]*auth.SessionUser

func (f fakeFetcher) FetchUser(_ context.Context, id models.UserID) *auth.SessionUser {
	return f[id]
}

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager(testSecret, "aloria-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return tm
}

func newSessions(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestTokenManager_IssueVerify(t *testing.T) {
	tm := newTokens(t)
	uid := models.NewUserID()

	raw, exp, err := tm.Issue(uid, "manager")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Error("expected expiry in the future")
	}

	claims, err := tm.Verify(raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != uid {
		t.Errorf("UserID = %s, want %s", claims.UserID, uid)
	}
	if claims.Role != models.RoleManager {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleManager)
	}
}

func TestTokenManager_RejectsOtherSecretAndIssuer(t *testing.T) {
	tm := newTokens(t)
	raw, _, err := tm.Issue(models.NewUserID(), models.RoleClient)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other, _ := auth.NewTokenManager("another-secret-that-is-32-bytes-long!!", "aloria-test", time.Hour)
	if _, err := other.Verify(raw); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("other secret: err = %v, want ErrTokenInvalid", err)
	}

	otherIss, _ := auth.NewTokenManager(testSecret, "someone-else", time.Hour)
	if _, err := otherIss.Verify(raw); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("other issuer: err = %v, want ErrTokenInvalid", err)
	}

	if _, err := tm.Verify("not-a-jwt"); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("garbage: err = %v, want ErrTokenInvalid", err)
	}
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	if _, err := auth.NewTokenManager("", "x", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestLoadUser_Bearer(t *testing.T) {
	tm := newTokens(t)
	uid := models.NewUserID()
	user := &auth.SessionUser{ID: uid, Name: "Marie", Role: models.RoleEmployee}
	a := &auth.Authenticator{Tokens: tm, Users: fakeFetcher{uid: user}, Log: zap.NewNop()}

	raw, _, _ := tm.Issue(uid, models.RoleEmployee)

	var got *auth.SessionUser
	h := a.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/cases", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != uid {
		t.Fatalf("CurrentUser = %+v, want user %s", got, uid)
	}
}

func TestLoadUser_DisabledUserIsAnonymous(t *testing.T) {
	tm := newTokens(t)
	uid := models.NewUserID()
	a := &auth.Authenticator{Tokens: tm, Users: fakeFetcher{}, Log: zap.NewNop()}
	raw, _, _ := tm.Issue(uid, models.RoleEmployee)

	h := a.LoadUser(auth.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest("GET", "/cases", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoadUser_SessionCookie(t *testing.T) {
	sm := newSessions(t)
	uid := models.NewUserID()
	user := &auth.SessionUser{ID: uid, Role: models.RoleClient}
	a := &auth.Authenticator{Tokens: newTokens(t), Sessions: sm, Users: fakeFetcher{uid: user}}

	// Sign in and capture the cookie.
	signIn := httptest.NewRecorder()
	if err := sm.SignIn(signIn, httptest.NewRequest("POST", "/auth/login", nil), uid); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signIn.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	h := a.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != uid {
		t.Errorf("CurrentUser = %+v, want user %s", got, uid)
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	guard := auth.RequireRole(models.RoleManager, "superadmin")(ok)

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"client", &auth.SessionUser{ID: models.NewUserID(), Role: models.RoleClient}, http.StatusForbidden},
		{"manager", &auth.SessionUser{ID: models.NewUserID(), Role: models.RoleManager}, http.StatusOK},
		{"superadmin", &auth.SessionUser{ID: models.NewUserID(), Role: models.RoleSuperAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/payments/pending", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			guard.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := auth.BearerToken(req); ok {
		t.Error("expected no token without header")
	}
	req.Header.Set("Authorization", "bearer abc.def")
	if tok, ok := auth.BearerToken(req); !ok || tok != "abc.def" {
		t.Errorf("BearerToken = %q, %v", tok, ok)
	}
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	if _, ok := auth.BearerToken(req); ok {
		t.Error("expected Basic auth to be ignored")
	}
}
