// internal/app/features/payments/invoice.go
package payments

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandleRender renders (again) the invoice of a confirmed payment.
//
// POST /payments/{id}/invoice/render
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	caller, _ := authz.UserCtx(r)

	id, err := models.ParsePaymentID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid payment id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "payments:render")
	defer cancel()

	p, err := h.Flow.Authorize(ctx, caller, h.Flow.ByID(id))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if p.Status != models.PaymentConfirmed {
		respond.Error(w, r, h.Log, apierr.Conflict("Only confirmed payments have an invoice"))
		return
	}
	if err := h.Flow.Render(ctx, p); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, h.view(*p))
}

// ServeInvoice downloads the invoice of a payment.
//
// GET /payments/{id}/invoice
func (h *Handler) ServeInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePaymentID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid payment id"))
		return
	}
	h.download(w, r, h.Flow.ByID(id))
}

// ServeInvoiceByNumber downloads an invoice by its number.
//
// GET /invoices/{number}
func (h *Handler) ServeInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.Flow.ByInvoiceNumber(chi.URLParam(r, "number")))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request, load func(context.Context) (*models.Payment, error)) {
	caller, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "payments:invoice")
	defer cancel()

	p, err := h.Flow.Authorize(ctx, caller, load)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	d, err := h.Flow.Invoice(ctx, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Bytes)
}
