// internal/app/system/mailer/sendgrid.go
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
}

// NewSendGridSender creates a sender for apiKey.
func NewSendGridSender(apiKey string) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid: api key is required")
	}
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey)}, nil
}

func (s *SendGridSender) Send(ctx context.Context, from Address, e Email) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(from.Name, from.Email),
		e.Subject,
		mail.NewEmail(e.ToName, e.To),
		e.TextBody,
		e.HTMLBody,
	)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d", resp.StatusCode)
	}
	return nil
}
