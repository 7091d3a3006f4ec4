package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

type fakeAppender struct {
	got   []models.Notification
	err   error
	panic bool
}

func (f *fakeAppender) InsertMany(_ context.Context, ns []models.Notification) error {
	if f.panic {
		panic("boom")
	}
	f.got = append(f.got, ns...)
	return f.err
}

func TestNotify_DedupesAndSkipsZero(t *testing.T) {
	store := &fakeAppender{}
	n := New(store, zap.NewNop())

	a, b := models.NewUserID(), models.NewUserID()
	written := n.Notify(context.Background(), []models.UserID{a, b, a, {}}, Message{
		Type: models.NotifyPaymentDeclared, Title: "Paiement déclaré", Body: "150 EUR", RelatedID: "p1",
	})

	if written != 2 || len(store.got) != 2 {
		t.Fatalf("expected 2 notifications, got written=%d stored=%d", written, len(store.got))
	}
	for _, doc := range store.got {
		if doc.Read {
			t.Error("new notifications must be unread")
		}
		if doc.Type != models.NotifyPaymentDeclared || doc.RelatedID != "p1" || doc.Message != "150 EUR" {
			t.Errorf("unexpected notification: %+v", doc)
		}
		if doc.ID.IsZero() || doc.CreatedAt.IsZero() {
			t.Error("expected id and timestamp")
		}
	}
}

func TestNotify_SwallowsErrorsAndPanics(t *testing.T) {
	id := models.NewUserID()

	failing := New(&fakeAppender{err: errors.New("db down")}, zap.NewNop())
	if got := failing.Notify(context.Background(), []models.UserID{id}, Message{Type: "x"}); got != 0 {
		t.Errorf("expected 0 on store error, got %d", got)
	}

	panicking := New(&fakeAppender{panic: true}, zap.NewNop())
	if got := panicking.Notify(context.Background(), []models.UserID{id}, Message{Type: "x"}); got != 0 {
		t.Errorf("expected 0 on panic, got %d", got)
	}

	var nilNotifier *Notifier
	if got := nilNotifier.Notify(context.Background(), []models.UserID{id}, Message{}); got != 0 {
		t.Errorf("expected nil notifier to be a no-op, got %d", got)
	}
}

func TestRecipients(t *testing.T) {
	a, b := models.NewUserID(), models.NewUserID()
	got := Recipients([]models.UserID{a}, nil, &b)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("unexpected recipients: %v", got)
	}
}
