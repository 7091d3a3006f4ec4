// internal/app/system/paymentflow/paymentflow.go
//
// Package paymentflow runs the payment lifecycle: declaration by a client,
// two-step confirmation or rejection by a manager, and invoice rendering.
//
// State changes are single compare-and-swap writes in paymentstore. Everything
// after a committed transition (rendering, notifications, email) is
// best-effort and never changes the outcome.
package paymentflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	clientstore "github.com/aloria/backoffice/internal/app/store/clients"
	counterstore "github.com/aloria/backoffice/internal/app/store/counters"
	paymentstore "github.com/aloria/backoffice/internal/app/store/payments"
	userstore "github.com/aloria/backoffice/internal/app/store/users"
	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/app/system/artifacts"
	"github.com/aloria/backoffice/internal/app/system/auditlog"
	"github.com/aloria/backoffice/internal/app/system/auth"
	"github.com/aloria/backoffice/internal/app/system/authutil"
	"github.com/aloria/backoffice/internal/app/system/invoice"
	"github.com/aloria/backoffice/internal/app/system/mailer"
	"github.com/aloria/backoffice/internal/app/system/normalize"
	"github.com/aloria/backoffice/internal/app/system/notify"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Actions accepted by Process.
const (
	ActionConfirm = "CONFIRMED"
	ActionReject  = "REJECTED"
)

// DefaultCurrency applies when a declaration names none.
const DefaultCurrency = "EUR"

// Service coordinates payment transitions and their side effects.
type Service struct {
	Payments  *paymentstore.Store
	Clients   *clientstore.Store
	Users     *userstore.Store
	Counters  *counterstore.Store
	Renderer  invoice.Renderer
	Artifacts artifacts.Store
	Notifier  *notify.Notifier
	Mailer    *mailer.Mailer
	Audit     *auditlog.Logger
	Issuer    invoice.Issuer
	SiteName  string
	// BaseURL prefixes invoice download links in emails and responses.
	BaseURL string
	Now     func() time.Time
	Log     *zap.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Declaration                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// Declaration is what a client submits.
type Declaration struct {
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	Description   string
}

// Declare records a pending payment for the caller's client profile.
func (s *Service) Declare(ctx context.Context, caller *auth.SessionUser, d Declaration) (*models.Payment, error) {
	if !d.Amount.IsPositive() {
		return nil, apierr.ValidationFields("amount must be greater than 0", map[string]string{"amount": "amount must be greater than 0"})
	}
	currency := strings.ToUpper(normalize.Code(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !isCurrency(currency) {
		return nil, apierr.ValidationFields("unsupported currency", map[string]string{"currency": "currency is not supported"})
	}

	client, err := s.Clients.GetByUserID(ctx, caller.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.NotFound("Client profile not found")
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	amount, err := models.DecimalToBSON(d.Amount)
	if err != nil {
		return nil, apierr.Validation("invalid amount")
	}
	p, err := s.Payments.Create(ctx, models.Payment{
		ClientID:      client.ID,
		ClientUserID:  caller.ID,
		ClientName:    caller.Name,
		Amount:        amount,
		Currency:      currency,
		Description:   d.Description,
		PaymentMethod: d.PaymentMethod,
		DeclaredAt:    s.now(),
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}

	managers, err := s.Users.ActiveIDsByRole(ctx, models.RoleManager)
	if err != nil {
		s.Log.Warn("could not list managers for notification", zap.Error(err))
	}
	s.Notifier.Notify(ctx, notify.Recipients(managers, client.AssignedEmployeeID), notify.Message{
		Type:      models.NotifyPaymentDeclared,
		Title:     "Paiement déclaré",
		Body:      fmt.Sprintf("%s a déclaré un paiement de %s %s.", caller.Name, invoice.FormatAmount(d.Amount, currency), currency),
		RelatedID: p.ID.Hex(),
	})
	return &p, nil
}

func isCurrency(c string) bool {
	for _, known := range models.Currencies {
		if c == known {
			return true
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| Confirmation / rejection                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// Decision is a manager's request against a pending payment.
type Decision struct {
	Action           string
	ConfirmationCode string
	RejectionReason  string
}

// Outcome is the result of Process.
type Outcome struct {
	Payment models.Payment
	// CodeIssued is set when the call was the first step of a confirmation.
	CodeIssued string
	InvoiceURL string
	EmailSent  bool
}

// Process applies d to the payment. A confirmation without a code issues a
// fresh code and leaves the payment pending; with a code it confirms.
func (s *Service) Process(ctx context.Context, actor *auth.SessionUser, id models.PaymentID, d Decision) (*Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(d.Action)) {
	case ActionConfirm:
		code := normalize.Code(d.ConfirmationCode)
		if code == "" {
			return s.issueCode(ctx, actor, id)
		}
		return s.confirm(ctx, actor, id, code)
	case ActionReject:
		return s.reject(ctx, actor, id, d.RejectionReason)
	default:
		return nil, apierr.ValidationFields("action must be CONFIRMED or REJECTED", map[string]string{"action": "action must be one of: CONFIRMED, REJECTED"})
	}
}

func (s *Service) issueCode(ctx context.Context, actor *auth.SessionUser, id models.PaymentID) (*Outcome, error) {
	code, err := authutil.GenerateConfirmationCode()
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if err := s.Payments.SetCode(ctx, id, code); err != nil {
		return nil, mapTransitionErr(err)
	}
	p, err := s.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	s.Audit.PaymentCodeIssued(ctx, nil, actor.ID, id)
	return &Outcome{Payment: *p, CodeIssued: code}, nil
}

func (s *Service) confirm(ctx context.Context, actor *auth.SessionUser, id models.PaymentID, code string) (*Outcome, error) {
	// Check before consuming an invoice sequence number so ordinary
	// mistakes do not leave gaps. The CAS below remains authoritative.
	current, err := s.Payments.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apierr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if current.Status != models.PaymentPending {
		return nil, apierr.Conflict("Payment already processed")
	}
	if current.ConfirmationCode == nil {
		return nil, apierr.Validation("No confirmation code has been issued for this payment")
	}
	if *current.ConfirmationCode != code {
		s.Audit.PaymentCodeMismatch(ctx, nil, actor.ID, id)
		return nil, apierr.Validation("Invalid confirmation code")
	}

	now := s.now()
	seq, err := s.Counters.Next(ctx, invoice.CounterKey(now))
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("next invoice number: %w", err))
	}
	number := invoice.NumberFor(now, seq)

	p, err := s.Payments.Confirm(ctx, id, code, actor.ID, number, now)
	if err != nil {
		if errors.Is(err, paymentstore.ErrCodeMismatch) {
			s.Audit.PaymentCodeMismatch(ctx, nil, actor.ID, id)
		}
		return nil, mapTransitionErr(err)
	}
	s.Audit.PaymentConfirmed(ctx, nil, actor.ID, *p)
	s.Log.Info("payment confirmed",
		zap.String("payment_id", p.ID.Hex()),
		zap.String("invoice_number", number),
		zap.String("confirmed_by", actor.ID.Hex()))

	out := &Outcome{}
	if err := s.Render(ctx, p); err == nil {
		out.InvoiceURL = s.InvoiceURL(number)
	}

	client, _ := s.Clients.GetByID(ctx, p.ClientID)
	var employee *models.UserID
	if client != nil {
		employee = client.AssignedEmployeeID
	}
	amount := invoice.FormatAmount(p.AmountDecimal(), p.Currency)
	s.Notifier.Notify(ctx, notify.Recipients([]models.UserID{p.ClientUserID}, employee), notify.Message{
		Type:      models.NotifyPaymentConfirmed,
		Title:     "Paiement confirmé",
		Body:      fmt.Sprintf("Paiement de %s %s confirmé. Facture %s.", amount, p.Currency, number),
		RelatedID: p.ID.Hex(),
	})

	if u, err := s.Users.GetByID(ctx, p.ClientUserID); err == nil {
		out.EmailSent = s.Mailer.TrySend(ctx, mailer.BuildPaymentConfirmedEmail(mailer.PaymentConfirmedEmailData{
			SiteName:      s.SiteName,
			To:            u.Email,
			FullName:      u.FullName,
			Amount:        amount,
			Currency:      p.Currency,
			InvoiceNumber: number,
			InvoiceURL:    out.InvoiceURL,
		}))
	}
	if err := s.Payments.SetEmailSent(ctx, p.ID, out.EmailSent); err != nil {
		s.Log.Warn("could not record email outcome", zap.String("payment_id", p.ID.Hex()), zap.Error(err))
	}
	p.EmailSent = out.EmailSent

	if fresh, err := s.Payments.GetByID(ctx, p.ID); err == nil {
		p = fresh
	}
	out.Payment = *p
	return out, nil
}

func (s *Service) reject(ctx context.Context, actor *auth.SessionUser, id models.PaymentID, reason string) (*Outcome, error) {
	p, err := s.Payments.Reject(ctx, id, reason, s.now())
	if err != nil {
		return nil, mapTransitionErr(err)
	}
	s.Audit.PaymentRejected(ctx, nil, actor.ID, *p)
	s.Log.Info("payment rejected", zap.String("payment_id", p.ID.Hex()), zap.String("rejected_by", actor.ID.Hex()))

	client, _ := s.Clients.GetByID(ctx, p.ClientID)
	var employee *models.UserID
	if client != nil {
		employee = client.AssignedEmployeeID
	}
	amount := invoice.FormatAmount(p.AmountDecimal(), p.Currency)
	s.Notifier.Notify(ctx, notify.Recipients([]models.UserID{p.ClientUserID}, employee), notify.Message{
		Type:      models.NotifyPaymentRejected,
		Title:     "Paiement rejeté",
		Body:      fmt.Sprintf("Paiement de %s %s rejeté.", amount, p.Currency),
		RelatedID: p.ID.Hex(),
	})

	out := &Outcome{Payment: *p}
	if u, err := s.Users.GetByID(ctx, p.ClientUserID); err == nil {
		out.EmailSent = s.Mailer.TrySend(ctx, mailer.BuildPaymentRejectedEmail(mailer.PaymentRejectedEmailData{
			SiteName: s.SiteName,
			To:       u.Email,
			FullName: u.FullName,
			Amount:   amount,
			Currency: p.Currency,
			Reason:   reason,
		}))
	}
	return out, nil
}

func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.NotFound("Payment not found")
	case errors.Is(err, paymentstore.ErrNotPending):
		return apierr.Conflict("Payment already processed")
	case errors.Is(err, paymentstore.ErrCodeMismatch):
		return apierr.Validation("Invalid confirmation code")
	default:
		return apierr.Internal(err)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Invoices                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// InvoiceURL is the download link for an invoice number.
func (s *Service) InvoiceURL(number string) string {
	return s.BaseURL + "/invoices/" + number
}

// Render draws the invoice of a confirmed payment, stores it and records its
// location on the payment. Failures are logged and returned; the payment
// stays confirmed either way.
func (s *Service) Render(ctx context.Context, p *models.Payment) error {
	if p.Status != models.PaymentConfirmed || p.InvoiceNumber == nil {
		return apierr.NotFound("Invoice not available for this payment")
	}
	number := *p.InvoiceNumber

	err := s.render(ctx, p)
	if err != nil {
		s.Log.Error("invoice rendering failed",
			zap.String("payment_id", p.ID.Hex()),
			zap.String("invoice_number", number),
			zap.Error(err))
		s.Audit.InvoiceRenderFailed(ctx, p.ID, number, err)
		return apierr.Internal(err)
	}
	s.Audit.InvoiceRendered(ctx, p.ID, number, *p.InvoicePath)
	return nil
}

func (s *Service) render(ctx context.Context, p *models.Payment) error {
	var clientEmail, confirmedBy string
	if u, err := s.Users.GetByID(ctx, p.ClientUserID); err == nil {
		clientEmail = u.Email
	}
	if p.ConfirmedBy != nil {
		if u, err := s.Users.GetByID(ctx, *p.ConfirmedBy); err == nil {
			confirmedBy = u.FullName
		}
	}

	art, err := s.Renderer.Render(invoice.FromPayment(*p, clientEmail, confirmedBy, s.Issuer, s.now()))
	if err != nil {
		return err
	}
	key := invoice.Key(*p.InvoiceNumber, s.Renderer.Format())
	if err := s.Artifacts.Put(ctx, key, bytes.NewReader(art.Bytes), &artifacts.PutOptions{ContentType: art.ContentType}); err != nil {
		return fmt.Errorf("store invoice: %w", err)
	}
	if err := s.Payments.SetInvoice(ctx, p.ID, key, art.ContentType); err != nil {
		return fmt.Errorf("record invoice path: %w", err)
	}
	p.InvoicePath = &key
	p.InvoiceContentType = art.ContentType
	return nil
}

// Download is an invoice ready to send.
type Download struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

// Invoice returns the stored invoice of p, rendering it first when it is
// missing.
func (s *Service) Invoice(ctx context.Context, p *models.Payment) (*Download, error) {
	if p.Status != models.PaymentConfirmed || p.InvoiceNumber == nil {
		return nil, apierr.NotFound("Invoice not available for this payment")
	}

	if p.InvoicePath == nil {
		if err := s.Render(ctx, p); err != nil {
			return nil, apierr.NotFound("Invoice not available for this payment")
		}
	}

	data, err := artifacts.ReadAll(ctx, s.Artifacts, *p.InvoicePath)
	if errors.Is(err, artifacts.ErrNotFound) {
		if rerr := s.Render(ctx, p); rerr != nil {
			return nil, apierr.NotFound("Invoice not available for this payment")
		}
		data, err = artifacts.ReadAll(ctx, s.Artifacts, *p.InvoicePath)
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}

	contentType := p.InvoiceContentType
	if contentType == "" {
		contentType = invoice.ContentTypeFor(s.Renderer.Format())
	}
	return &Download{
		Filename:    *p.InvoiceNumber + extFor(contentType),
		ContentType: contentType,
		Bytes:       data,
	}, nil
}

func extFor(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".pdf"
}

/*─────────────────────────────────────────────────────────────────────────────*
| Access                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// forbidden is the single answer a client gets for any payment that is not
// theirs, whether or not it exists.
var forbidden = apierr.Forbidden("Access denied")

// Authorize loads a payment the caller may see. Managers and superadmins see
// every payment. A client sees a payment only when its client_id is the
// profile owned by the caller; anything else is forbidden.
func (s *Service) Authorize(ctx context.Context, caller *auth.SessionUser, load func(context.Context) (*models.Payment, error)) (*models.Payment, error) {
	switch {
	case caller.Is(models.RoleSuperAdmin, models.RoleManager):
		p, err := load(ctx)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apierr.NotFound("Payment not found")
		}
		if err != nil {
			return nil, apierr.Internal(err)
		}
		return p, nil

	case caller.Is(models.RoleClient):
		profile, err := s.Clients.GetByUserID(ctx, caller.ID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, forbidden
		}
		if err != nil {
			return nil, apierr.Internal(err)
		}
		p, err := load(ctx)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, forbidden
		}
		if err != nil {
			return nil, apierr.Internal(err)
		}
		if p.ClientID != profile.ID {
			return nil, forbidden
		}
		return p, nil

	default:
		return nil, forbidden
	}
}

// ByID returns a loader for Authorize.
func (s *Service) ByID(id models.PaymentID) func(context.Context) (*models.Payment, error) {
	return func(ctx context.Context) (*models.Payment, error) { return s.Payments.GetByID(ctx, id) }
}

// ByInvoiceNumber returns a loader for Authorize.
func (s *Service) ByInvoiceNumber(number string) func(context.Context) (*models.Payment, error) {
	return func(ctx context.Context) (*models.Payment, error) {
		if !invoice.ValidNumber(number) {
			return nil, mongo.ErrNoDocuments
		}
		return s.Payments.GetByInvoiceNumber(ctx, number)
	}
}
