// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrNoRecipient is returned when an Email has no To address.
var ErrNoRecipient = errors.New("mailer: email has no recipient")

// Email is one outgoing message. Senders use HTMLBody when set and always
// include TextBody as the plain alternative.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, from Address, e Email) error
}

// Address is a sender identity.
type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%q <%s>", a.Name, a.Email)
}

// Mailer sends transactional email through a Sender.
// It is constructed once at startup and injected into handlers.
type Mailer struct {
	sender Sender
	from   Address
	log    *zap.Logger
}

// New creates a Mailer. A nil logger is replaced by a no-op logger.
func New(sender Sender, from Address, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{sender: sender, from: from, log: log}
}

// Send delivers e. Callers treat any error as "email not sent" and carry on.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if m == nil || m.sender == nil {
		return errors.New("mailer: not configured")
	}
	if strings.TrimSpace(e.To) == "" {
		return ErrNoRecipient
	}
	if err := m.sender.Send(ctx, m.from, e); err != nil {
		m.log.Warn("email send failed",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.Error(err))
		return err
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// TrySend sends e and reports whether it was delivered. Failures are logged, never returned.
func (m *Mailer) TrySend(ctx context.Context, e Email) bool {
	return m.Send(ctx, e) == nil
}

// LogSender writes email envelopes to the log instead of delivering them.
// Used in development and when no provider is configured. Bodies can carry
// credentials and are never logged.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, from Address, e Email) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("email (log only)",
		zap.String("from", from.String()),
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.Int("body_bytes", len(e.TextBody)))
	return nil
}

// MemorySender keeps sent emails in memory. Tests use it to inspect output.
type MemorySender struct {
	mu   sync.Mutex
	sent []Email
	// Err, when set, is returned from every Send.
	Err error
}

func (s *MemorySender) Send(_ context.Context, _ Address, e Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, e)
	return nil
}

// Sent returns a copy of the emails sent so far.
func (s *MemorySender) Sent() []Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Email, len(s.sent))
	copy(out, s.sent)
	return out
}
