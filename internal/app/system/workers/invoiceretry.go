// internal/app/system/workers/invoiceretry.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

// MissingInvoiceLister finds confirmed payments without a stored invoice.
type MissingInvoiceLister interface {
	ListMissingInvoice(ctx context.Context, limit int64) ([]models.Payment, error)
}

// InvoiceRenderer renders and stores one invoice. paymentflow.Service satisfies it.
type InvoiceRenderer interface {
	Render(ctx context.Context, p *models.Payment) error
}

// InvoiceRetry is a background worker that re-renders invoices whose first
// rendering failed at confirmation time.
type InvoiceRetry struct {
	payments  MissingInvoiceLister
	renderer  InvoiceRenderer
	log       *zap.Logger
	interval  time.Duration
	batchSize int64
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewInvoiceRetry creates a new invoice retry worker.
//
// Parameters:
//   - payments: source of confirmed payments missing an invoice
//   - renderer: renders and records one invoice
//   - logger: zap logger for logging
//   - interval: how often to look for missing invoices (e.g., 5 minutes)
//   - batchSize: maximum invoices rendered per pass
func NewInvoiceRetry(payments MissingInvoiceLister, renderer InvoiceRenderer, logger *zap.Logger, interval time.Duration, batchSize int64) *InvoiceRetry {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &InvoiceRetry{
		payments:  payments,
		renderer:  renderer,
		log:       logger,
		interval:  interval,
		batchSize: batchSize,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background retry loop.
func (w *InvoiceRetry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invoice retry worker started",
		zap.Duration("interval", w.interval),
		zap.Int64("batch_size", w.batchSize))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *InvoiceRetry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("invoice retry worker stopped")
}

func (w *InvoiceRetry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(context.Background())
		}
	}
}

// RunOnce performs one retry pass and returns how many invoices were stored.
func (w *InvoiceRetry) RunOnce(parent context.Context) int {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	list, err := w.payments.ListMissingInvoice(ctx, w.batchSize)
	if err != nil {
		w.log.Error("failed to list payments missing an invoice", zap.Error(err))
		return 0
	}

	rendered := 0
	for i := range list {
		if ctx.Err() != nil {
			break
		}
		// Render logs and audits its own failures.
		if err := w.renderer.Render(ctx, &list[i]); err == nil {
			rendered++
		}
	}

	if rendered > 0 {
		w.log.Info("rendered missing invoices", zap.Int("count", rendered), zap.Int("found", len(list)))
	}
	return rendered
}
