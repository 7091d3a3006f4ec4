// internal/app/features/payments/handler.go
package payments

import (
	"time"

	"github.com/aloria/backoffice/internal/app/system/inputval"
	"github.com/aloria/backoffice/internal/app/system/paymentflow"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler serves payment declaration, the two-step confirmation and invoice downloads.
type Handler struct {
	Flow *paymentflow.Service
	Val  *inputval.Validator
	Log  *zap.Logger
}

func NewHandler(flow *paymentflow.Service, logger *zap.Logger) *Handler {
	return &Handler{Flow: flow, Val: inputval.New(), Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| JSON shape                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// paymentView is the API form of a payment. The confirmation code is never
// included; it is returned once, by the call that issues it.
type paymentView struct {
	ID                  models.PaymentID       `json:"id"`
	ClientID            models.ClientProfileID `json:"client_id"`
	ClientUserID        models.UserID          `json:"client_user_id"`
	ClientName          string                 `json:"client_name"`
	Amount              decimal.Decimal        `json:"amount"`
	Currency            string                 `json:"currency"`
	Description         string                 `json:"description"`
	PaymentMethod       string                 `json:"payment_method"`
	Status              string                 `json:"status"`
	DeclaredAt          time.Time              `json:"declared_at"`
	AwaitingCode        bool                   `json:"awaiting_code"`
	ConfirmedAt         *time.Time             `json:"confirmed_at,omitempty"`
	ConfirmedBy         *models.UserID         `json:"confirmed_by,omitempty"`
	RejectedAt          *time.Time             `json:"rejected_at,omitempty"`
	RejectionReason     string                 `json:"rejection_reason,omitempty"`
	InvoiceNumber       *string                `json:"invoice_number"`
	InvoiceURL          string                 `json:"invoice_url,omitempty"`
	InvoiceAvailable    bool                   `json:"invoice_available"`
	ConfirmationEmailed bool                   `json:"email_sent"`
}

func (h *Handler) view(p models.Payment) paymentView {
	v := paymentView{
		ID:                  p.ID,
		ClientID:            p.ClientID,
		ClientUserID:        p.ClientUserID,
		ClientName:          p.ClientName,
		Amount:              p.AmountDecimal(),
		Currency:            p.Currency,
		Description:         p.Description,
		PaymentMethod:       p.PaymentMethod,
		Status:              p.Status,
		DeclaredAt:          p.DeclaredAt,
		AwaitingCode:        p.Status == models.PaymentPending && p.ConfirmationCode != nil,
		ConfirmedAt:         p.ConfirmedAt,
		ConfirmedBy:         p.ConfirmedBy,
		RejectedAt:          p.RejectedAt,
		RejectionReason:     p.RejectionReason,
		InvoiceNumber:       p.InvoiceNumber,
		InvoiceAvailable:    p.InvoicePath != nil,
		ConfirmationEmailed: p.EmailSent,
	}
	if p.InvoiceNumber != nil {
		v.InvoiceURL = h.Flow.InvoiceURL(*p.InvoiceNumber)
	}
	return v
}

func (h *Handler) views(ps []models.Payment) []paymentView {
	out := make([]paymentView, 0, len(ps))
	for _, p := range ps {
		out = append(out, h.view(p))
	}
	return out
}
