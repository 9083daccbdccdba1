package mail

import (
	"context"
	"time"

	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/models"
)

// DeliveryLog persists send attempts.
type DeliveryLog interface {
	Insert(ctx context.Context, d *models.Delivery) error
	ListRecent(ctx context.Context, limit int64) ([]models.Delivery, error)
}

// Recorded wraps a Sender and records every attempt in a DeliveryLog. A
// failure to record never fails the send.
type Recorded struct {
	next Sender
	log  DeliveryLog
	now  func() time.Time
}

func NewRecorded(next Sender, log DeliveryLog) *Recorded {
	return &Recorded{next: next, log: log, now: time.Now}
}

func (r *Recorded) Send(ctx context.Context, msg models.Email) error {
	sendErr := r.next.Send(ctx, msg)

	d := &models.Delivery{
		To:      msg.To,
		Subject: msg.Subject,
		Kind:    msg.Kind,
		Status:  models.DeliverySent,
		SentAt:  r.now(),
	}
	if sendErr != nil {
		d.Status = models.DeliveryFailed
		d.Error = sendErr.Error()
	}
	if err := r.log.Insert(ctx, d); err != nil {
		logger.Log.WithError(err).Warn("record email delivery")
	}
	return sendErr
}
