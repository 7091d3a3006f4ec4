// internal/app/system/notify/notify.go
//
// Package notify fans in-app notifications out to recipients after a
// business write has committed. Delivery is best-effort: failures are
// logged and never reach the caller.
package notify

import (
	"context"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

// Appender persists notifications. notificationstore.Store satisfies it.
type Appender interface {
	InsertMany(ctx context.Context, ns []models.Notification) error
}

// Notifier writes notifications through an Appender.
type Notifier struct {
	store Appender
	log   *zap.Logger
	now   func() time.Time
}

// New returns a Notifier. A nil store makes Notify a no-op.
func New(store Appender, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Message is the content shared by every recipient of one fan-out.
type Message struct {
	Type      string
	Title     string
	Body      string
	RelatedID string
}

// Notify appends msg for each distinct non-zero recipient. It returns the
// number of notifications written.
func (n *Notifier) Notify(ctx context.Context, recipients []models.UserID, msg Message) (written int) {
	if n == nil || n.store == nil {
		return 0
	}
	defer func() {
		if rec := recover(); rec != nil {
			n.log.Error("notification fan-out panicked",
				zap.String("type", msg.Type),
				zap.Any("panic", rec))
			written = 0
		}
	}()

	now := n.now()
	seen := make(map[models.UserID]struct{}, len(recipients))
	docs := make([]models.Notification, 0, len(recipients))
	for _, id := range recipients {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		docs = append(docs, models.Notification{
			ID:          models.NewNotificationID(),
			RecipientID: id,
			Type:        msg.Type,
			Title:       msg.Title,
			Message:     msg.Body,
			RelatedID:   msg.RelatedID,
			CreatedAt:   now,
		})
	}
	if len(docs) == 0 {
		return 0
	}

	if err := n.store.InsertMany(ctx, docs); err != nil {
		n.log.Warn("notification write failed",
			zap.String("type", msg.Type),
			zap.String("related_id", msg.RelatedID),
			zap.Int("recipients", len(docs)),
			zap.Error(err))
		return 0
	}
	return len(docs)
}

// Recipients concatenates ids and optional single ids, skipping nil pointers.
func Recipients(ids []models.UserID, extra ...*models.UserID) []models.UserID {
	out := make([]models.UserID, 0, len(ids)+len(extra))
	out = append(out, ids...)
	for _, id := range extra {
		if id != nil {
			out = append(out, *id)
		}
	}
	return out
}
