// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aloria/backoffice/internal/app/store/audit"
	"github.com/aloria/backoffice/internal/app/system/ratelimit"
	"github.com/aloria/backoffice/internal/domain/models"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, password, superadmin bootstrap).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for back-office actions (prospect pipeline, clients, cases, payments, invoices).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// requestInfo returns the client IP and user agent. r may be nil for events
// raised outside a request (startup bootstrap, background rendering).
func requestInfo(r *http.Request) (ip, userAgent string) {
	if r == nil {
		return "", ""
	}
	return ratelimit.ClientIP(r), r.UserAgent()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) auth(ctx context.Context, r *http.Request, event audit.Event) {
	event.Category = audit.CategoryAuth
	event.IP, event.UserAgent = requestInfo(r)
	l.Log(ctx, event)
}

func (l *Logger) admin(ctx context.Context, r *http.Request, actorID models.UserID, event audit.Event) {
	event.Category = audit.CategoryAdmin
	event.ActorID = &actorID
	event.IP, event.UserAgent = requestInfo(r)
	event.Success = true
	l.Log(ctx, event)
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID models.UserID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID models.UserID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedUserDisabled logs a failed login by a disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID models.UserID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		FailureReason: "user disabled",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedRateLimit logs a login refused by the limiter. limitType is "ip" or "email".
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventLoginFailedRateLimit,
		FailureReason: "rate limit exceeded",
		Details: map[string]string{
			"email":      email,
			"limit_type": limitType,
		},
	})
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID models.UserID) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventLogout,
		UserID:    &userID,
		Success:   true,
	})
}

// PasswordChanged logs a password change.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID models.UserID, wasTemporary bool) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventPasswordChanged,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"was_temporary": strconv.FormatBool(wasTemporary)},
	})
}

// Registered logs a public self-registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID models.UserID, email string) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventRegistered,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// SuperAdminBootstrap logs the creation or promotion of a superadmin.
// via is "startup" or "endpoint". r is nil at startup.
func (l *Logger) SuperAdminBootstrap(ctx context.Context, r *http.Request, userID models.UserID, email, via string) {
	l.auth(ctx, r, audit.Event{
		EventType: audit.EventSuperAdminBootstrap,
		UserID:    &userID,
		Success:   true,
		Details: map[string]string{
			"email": email,
			"via":   via,
		},
	})
}

// SuperAdminSecretRejected logs a bootstrap attempt with a bad secret.
func (l *Logger) SuperAdminSecretRejected(ctx context.Context, r *http.Request) {
	l.auth(ctx, r, audit.Event{
		EventType:     audit.EventSuperAdminSecretRejected,
		FailureReason: "invalid secret",
	})
}

// --- Back-office Events ---

// UserCreated logs an admin-created account.
func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID, targetUserID models.UserID, role string) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventUserCreated,
		UserID:    &targetUserID,
		TargetID:  targetUserID.Hex(),
		Details:   map[string]string{"role": role},
	})
}

// ProspectAssigned logs a prospect being assigned to staff.
func (l *Logger) ProspectAssigned(ctx context.Context, r *http.Request, actorID models.UserID, prospectID models.ProspectID, assigneeID models.UserID) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventProspectAssigned,
		UserID:    &assigneeID,
		TargetID:  prospectID.Hex(),
	})
}

// ProspectReferred logs a prospect sent to consultation. consultantID may be nil.
func (l *Logger) ProspectReferred(ctx context.Context, r *http.Request, actorID models.UserID, prospectID models.ProspectID, consultantID *models.UserID) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventProspectReferred,
		UserID:    consultantID,
		TargetID:  prospectID.Hex(),
		Details:   map[string]string{"payment_50k_amount": strconv.Itoa(models.ReferralPaymentAmount)},
	})
}

// ProspectConverted logs a prospect becoming a client.
func (l *Logger) ProspectConverted(ctx context.Context, r *http.Request, actorID models.UserID, prospectID models.ProspectID, clientUserID models.UserID, clientID models.ClientProfileID) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventProspectConverted,
		UserID:    &clientUserID,
		TargetID:  prospectID.Hex(),
		Details:   map[string]string{"client_id": clientID.Hex()},
	})
}

// ClientCreated logs a client created directly by staff.
func (l *Logger) ClientCreated(ctx context.Context, r *http.Request, actorID, clientUserID models.UserID, clientID models.ClientProfileID) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventClientCreated,
		UserID:    &clientUserID,
		TargetID:  clientID.Hex(),
	})
}

// ClientReassigned logs a client moved to another employee.
func (l *Logger) ClientReassigned(ctx context.Context, r *http.Request, actorID models.UserID, clientID models.ClientProfileID, from *models.UserID, to models.UserID) {
	details := map[string]string{"new_employee_id": to.Hex()}
	if from != nil {
		details["previous_employee_id"] = from.Hex()
	}
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventClientReassigned,
		UserID:    &to,
		TargetID:  clientID.Hex(),
		Details:   details,
	})
}

// CaseUpdated logs a case progress change.
func (l *Logger) CaseUpdated(ctx context.Context, r *http.Request, actorID models.UserID, c models.Case) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventCaseUpdated,
		UserID:    &c.ClientID,
		TargetID:  c.ID.Hex(),
		Details: map[string]string{
			"status":             c.Status,
			"current_step_index": strconv.Itoa(c.CurrentStepIndex),
		},
	})
}

// PaymentCodeIssued logs step one of a payment confirmation.
func (l *Logger) PaymentCodeIssued(ctx context.Context, r *http.Request, actorID models.UserID, paymentID models.PaymentID) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventPaymentCodeIssued,
		TargetID:  paymentID.Hex(),
	})
}

// PaymentConfirmed logs step two of a payment confirmation.
func (l *Logger) PaymentConfirmed(ctx context.Context, r *http.Request, actorID models.UserID, p models.Payment) {
	details := map[string]string{
		"amount":   p.Amount.String(),
		"currency": p.Currency,
	}
	if p.InvoiceNumber != nil {
		details["invoice_number"] = *p.InvoiceNumber
	}
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventPaymentConfirmed,
		UserID:    &p.ClientUserID,
		TargetID:  p.ID.Hex(),
		Details:   details,
	})
}

// PaymentRejected logs a rejected payment.
func (l *Logger) PaymentRejected(ctx context.Context, r *http.Request, actorID models.UserID, p models.Payment) {
	l.admin(ctx, r, actorID, audit.Event{
		EventType: audit.EventPaymentRejected,
		UserID:    &p.ClientUserID,
		TargetID:  p.ID.Hex(),
		Details:   map[string]string{"reason": p.RejectionReason},
	})
}

// PaymentCodeMismatch logs a confirmation attempt with the wrong code.
func (l *Logger) PaymentCodeMismatch(ctx context.Context, r *http.Request, actorID models.UserID, paymentID models.PaymentID) {
	ip, ua := requestInfo(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventPaymentCodeMismatch,
		ActorID:       &actorID,
		TargetID:      paymentID.Hex(),
		IP:            ip,
		UserAgent:     ua,
		FailureReason: "confirmation code mismatch",
	})
}

// InvoiceRendered logs a stored invoice artifact.
func (l *Logger) InvoiceRendered(ctx context.Context, paymentID models.PaymentID, invoiceNumber, path string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventInvoiceRendered,
		TargetID:  paymentID.Hex(),
		Success:   true,
		Details: map[string]string{
			"invoice_number": invoiceNumber,
			"path":           path,
		},
	})
}

// InvoiceRenderFailed logs a rendering or storage failure. The payment stays confirmed.
func (l *Logger) InvoiceRenderFailed(ctx context.Context, paymentID models.PaymentID, invoiceNumber string, cause error) {
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventInvoiceRenderFailed,
		TargetID:      paymentID.Hex(),
		FailureReason: reason,
		Details:       map[string]string{"invoice_number": invoiceNumber},
	})
}
