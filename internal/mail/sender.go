// Package mail sends transactional email through a configurable driver.
package mail

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/models"
)

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg models.Email) error
}

// LogSender writes messages to the log instead of delivering them. Used for
// local development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg models.Email) error {
	logger.Log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"kind":    msg.Kind,
	}).Info(msg.Text)
	return nil
}
