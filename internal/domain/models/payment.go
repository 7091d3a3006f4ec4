// internal/domain/models/payment.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses. Confirmed and rejected are terminal.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentRejected  = "rejected"
)

// Currencies accepted at declaration.
var Currencies = []string{"EUR", "USD", "CAD", "GBP", "XAF"}

// Payment is a client-declared payment awaiting two-step manager confirmation.
//
// Amount and Currency are fixed at declaration. InvoiceNumber is set if and
// only if Status is confirmed.
type Payment struct {
	ID            PaymentID            `bson:"_id"`
	ClientID      ClientProfileID      `bson:"client_id"`
	ClientUserID  UserID               `bson:"client_user_id"`
	ClientName    string               `bson:"client_name"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Currency      string               `bson:"currency"`
	Description   string               `bson:"description"`
	PaymentMethod string               `bson:"payment_method"`
	Status        string               `bson:"status"`
	DeclaredAt    time.Time            `bson:"declared_at"`

	ConfirmationCode *string `bson:"confirmation_code,omitempty"`

	ConfirmedAt     *time.Time `bson:"confirmed_at,omitempty"`
	ConfirmedBy     *UserID    `bson:"confirmed_by,omitempty"`
	RejectedAt      *time.Time `bson:"rejected_at,omitempty"`
	RejectionReason string     `bson:"rejection_reason,omitempty"`

	InvoiceNumber      *string `bson:"invoice_number,omitempty"`
	InvoicePath        *string `bson:"invoice_path,omitempty"`
	InvoiceContentType string  `bson:"invoice_content_type,omitempty"`

	EmailSent bool `bson:"email_sent"`
}

// AmountDecimal returns Amount as a decimal.Decimal.
// A malformed stored value decodes as zero.
func (p Payment) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(p.Amount.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToBSON converts an amount to its stored form.
func DecimalToBSON(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

// IsTerminal reports whether no further transition is allowed.
func (p Payment) IsTerminal() bool {
	return p.Status == PaymentConfirmed || p.Status == PaymentRejected
}
