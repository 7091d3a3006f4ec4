package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
)

func TestTokenManager_ExpiredVersusInvalid(t *testing.T) {
	tm, err := NewTokenManager("token-secret-for-tests-0123456789abcdef", "aloria-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := tm.Issue(models.NewUserID(), models.RoleEmployee)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	tm.now = time.Now

	if _, err := tm.Verify(stale); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("stale token: err = %v, want ErrTokenExpired", err)
	}

	fresh, _, err := tm.Issue(models.NewUserID(), models.RoleEmployee)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	other, _ := NewTokenManager("token-secret-for-tests-0123456789abcdef", "someone-else", time.Hour)
	_, err = other.Verify(fresh)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("wrong issuer: err = %v, want ErrTokenInvalid", err)
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Error("wrong issuer must not be reported as expired")
	}
}
