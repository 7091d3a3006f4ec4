package notifications_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aloria/backoffice/internal/app/features/notifications"
	notificationstore "github.com/aloria/backoffice/internal/app/store/notifications"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/aloria/backoffice/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestNotificationsFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := chi.NewRouter()
	r.Mount("/notifications", notifications.Routes(notifications.NewHandler(db, logger)))

	me := testutil.ManagerUser()
	other := testutil.SuperAdminUser()
	n := notify.New(notificationstore.New(db), logger)
	n.Notify(ctx, []models.UserID{me.ID, other.ID}, notify.Message{Type: models.NotifyNewClient, Title: "A", Body: "a"})
	n.Notify(ctx, []models.UserID{me.ID}, notify.Message{Type: models.NotifyPaymentDeclared, Title: "B", Body: "b"})

	do := func(method, path string, u testutil.TestUser) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(method, path, nil), u))
		return rec
	}

	var list []models.Notification
	rec := do(http.MethodGet, "/notifications", me)
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 2 || list[0].Title != "B" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	testutil.DecodeJSON(t, do(http.MethodGet, "/notifications/unread-count", me), &count)
	if count.Count != 2 {
		t.Errorf("unread count: got %d", count.Count)
	}

	// Someone else's notification looks missing.
	var theirs []models.Notification
	testutil.DecodeJSON(t, do(http.MethodGet, "/notifications", other), &theirs)
	testutil.AssertStatus(t, do(http.MethodPatch, "/notifications/"+theirs[0].ID.Hex()+"/read", me), http.StatusNotFound)

	testutil.AssertStatus(t, do(http.MethodPatch, "/notifications/"+list[0].ID.Hex()+"/read", me), http.StatusOK)

	var unread []models.Notification
	testutil.DecodeJSON(t, do(http.MethodGet, "/notifications?unread=true", me), &unread)
	if len(unread) != 1 || unread[0].ID != list[1].ID {
		t.Errorf("unread after mark: %+v", unread)
	}

	testutil.AssertStatus(t, do(http.MethodPatch, "/notifications/read-all", me), http.StatusOK)
	testutil.DecodeJSON(t, do(http.MethodGet, "/notifications/unread-count", me), &count)
	if count.Count != 0 {
		t.Errorf("unread count after read-all: got %d", count.Count)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}
