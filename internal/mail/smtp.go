package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/tribithub/portal/backend/internal/models"
)

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	dialer      *gomail.Dialer
	fromAddress string
}

func NewSMTPSender(host string, port int, username, password, fromAddress string) *SMTPSender {
	return &SMTPSender{
		dialer:      gomail.NewDialer(host, port, username, password),
		fromAddress: fromAddress,
	}
}

// Send ignores ctx: gomail has no cancellation support.
func (s *SMTPSender) Send(_ context.Context, msg models.Email) error {
	if msg.To == "" {
		return fmt.Errorf("no recipient specified")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromAddress, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
		if msg.Text != "" {
			m.AddAlternative("text/plain", msg.Text)
		}
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
