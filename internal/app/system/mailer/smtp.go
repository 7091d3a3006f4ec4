// internal/app/system/mailer/smtp.go
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"

	"github.com/google/uuid"
)

// SMTPConfig holds relay settings. User and Pass are optional.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// SMTPSender delivers through an SMTP relay with STARTTLS when offered.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}, nil
}

func (s *SMTPSender) Send(ctx context.Context, from Address, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, from.Email, []string{e.To}, buildMIME(from, e)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// buildMIME renders e as multipart/alternative (text first, then HTML).
func buildMIME(from Address, e Email) []byte {
	boundary := "aloria-" + uuid.NewString()
	to := Address{Email: e.To, Name: e.ToName}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", encodeAddress(from))
	fmt.Fprintf(&b, "To: %s\r\n", encodeAddress(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if e.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(e.TextBody)
		return b.Bytes()
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, e.TextBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, e.HTMLBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

func encodeAddress(a Address) string {
	if a.Name == "" {
		return "<" + a.Email + ">"
	}
	return mime.QEncoding.Encode("utf-8", a.Name) + " <" + a.Email + ">"
}
