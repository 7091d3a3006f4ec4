// internal/app/features/payments/confirm.go
package payments

import (
	"net/http"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/authz"
	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
	"github.com/aloria/backoffice/internal/app/system/paymentflow"
	"github.com/aloria/backoffice/internal/app/system/respond"
	"github.com/aloria/backoffice/internal/app/system/timeouts"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type decisionInput struct {
	Action           string `json:"action" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"max=32"`
	RejectionReason  string `json:"rejection_reason" validate:"max=1000"`
}

type codeIssuedResponse struct {
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
	Message          string `json:"message"`
}

// HandleConfirm runs one step of the confirmation state machine.
//
// PATCH /payments/{id}/confirm
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.UserCtx(r)

	id, err := models.ParsePaymentID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid payment id"))
		return
	}
	var in decisionInput
	if err := h.Val.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "payments:confirm")
	defer cancel()

	out, err := h.Flow.Process(ctx, actor, id, paymentflow.Decision{
		Action:           in.Action,
		ConfirmationCode: in.ConfirmationCode,
		RejectionReason:  htmlsanitize.Text(in.RejectionReason),
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if out.CodeIssued != "" {
		respond.OK(w, codeIssuedResponse{
			Status:           models.PaymentPending,
			ConfirmationCode: out.CodeIssued,
			Message:          "Confirmation code generated. Submit it again with the CONFIRMED action to finalize.",
		})
		return
	}
	v := h.view(out.Payment)
	v.InvoiceURL = out.InvoiceURL
	v.ConfirmationEmailed = out.EmailSent
	respond.OK(w, v)
}
