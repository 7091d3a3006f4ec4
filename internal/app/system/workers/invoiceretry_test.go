package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

type fakeLister struct {
	payments []models.Payment
	err      error
	limit    int64
}

func (f *fakeLister) ListMissingInvoice(_ context.Context, limit int64) ([]models.Payment, error) {
	f.limit = limit
	return f.payments, f.err
}

type fakeRenderer struct {
	failFor map[models.PaymentID]bool
	calls   []models.PaymentID
}

func (f *fakeRenderer) Render(_ context.Context, p *models.Payment) error {
	f.calls = append(f.calls, p.ID)
	if f.failFor[p.ID] {
		return errors.New("render failed")
	}
	return nil
}

func TestInvoiceRetry_RunOnce(t *testing.T) {
	a, b, c := models.NewPaymentID(), models.NewPaymentID(), models.NewPaymentID()
	lister := &fakeLister{payments: []models.Payment{{ID: a}, {ID: b}, {ID: c}}}
	renderer := &fakeRenderer{failFor: map[models.PaymentID]bool{b: true}}

	w := NewInvoiceRetry(lister, renderer, zap.NewNop(), time.Minute, 0)
	if got := w.RunOnce(context.Background()); got != 2 {
		t.Errorf("rendered: got %d, want 2", got)
	}
	if len(renderer.calls) != 3 {
		t.Errorf("expected every payment to be attempted, got %d", len(renderer.calls))
	}
	if lister.limit != 20 {
		t.Errorf("default batch size: got %d, want 20", lister.limit)
	}
}

func TestInvoiceRetry_ListError(t *testing.T) {
	renderer := &fakeRenderer{}
	w := NewInvoiceRetry(&fakeLister{err: errors.New("db down")}, renderer, zap.NewNop(), time.Minute, 5)
	if got := w.RunOnce(context.Background()); got != 0 {
		t.Errorf("rendered: got %d, want 0", got)
	}
	if len(renderer.calls) != 0 {
		t.Error("expected no rendering when listing fails")
	}
}

func TestInvoiceRetry_StartStop(t *testing.T) {
	w := NewInvoiceRetry(&fakeLister{}, &fakeRenderer{}, zap.NewNop(), 10*time.Millisecond, 1)
	w.Start()
	time.Sleep(30 * time.Millisecond)
	w.Stop()
}
