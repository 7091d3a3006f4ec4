// internal/app/features/payments/declare.go
package payments

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/paymentflow"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type declareInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" validate:"omitempty,currency"`
	PaymentMethod string          `json:"payment_method" validate:"required,max=100"`
	Description   string          `json:"description" validate:"max=500"`
}

// HandleDeclare records a payment the signed-in client says they made.
//
// POST /payments/declare
func (h *Handler) HandleDeclare(w http.ResponseWriter, r *http.Request) {
	caller, _ := authz.UserCtx(r)

	var in declareInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "payments:declare")
	defer cancel()

	p, err := h.Flow.Declare(ctx, caller, paymentflow.Declaration{
		Amount:        in.Amount,
		Currency:      in.Currency,
		PaymentMethod: htmlsanitize.Text(in.PaymentMethod),
		Description:   htmlsanitize.Text(in.Description),
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Log.Info("payment declared",
		zap.String("payment_id", p.ID.Hex()),
		zap.String("client_id", p.ClientID.Hex()),
		zap.String("amount", p.AmountDecimal().String()),
		zap.String("currency", p.Currency))

	respond.Created(w, h.view(*p))
}

// ServePending lists payments awaiting a decision, oldest first.
//
// GET /payments/pending
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payments:pending")
	defer cancel()

	list, err := h.Flow.Payments.ListPending(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, h.views(list))
}

// ServeHistory lists decided payments, newest first.
//
// GET /payments/history
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payments:history")
	defer cancel()

	list, err := h.Flow.Payments.ListHistory(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, h.views(list))
}

// ServeClientHistory lists the signed-in client's own payments.
//
// GET /payments/client-history
func (h *Handler) ServeClientHistory(w http.ResponseWriter, r *http.Request) {
	caller, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "payments:client-history")
	defer cancel()

	list, err := h.Flow.Payments.ListByClientUser(ctx, caller.ID)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	respond.OK(w, h.views(list))
}
