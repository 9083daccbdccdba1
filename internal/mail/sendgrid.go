package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/tribithub/portal/backend/internal/models"
)

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client      *sendgrid.Client
	fromAddress string
	sandbox     bool
}

func NewSendGridSender(apiKey, fromAddress string, sandbox bool) *SendGridSender {
	return &SendGridSender{
		client:      sendgrid.NewSendClient(apiKey),
		fromAddress: fromAddress,
		sandbox:     sandbox,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg models.Email) error {
	from := sgmail.NewEmail(msg.FromName, s.fromAddress)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	if s.sandbox {
		ms := sgmail.NewMailSettings()
		ms.SetSandboxMode(sgmail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
