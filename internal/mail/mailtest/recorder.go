// Package mailtest provides a recording mail.Sender.
package mailtest

import (
	"context"
	"sync"

	"github.com/tribithub/portal/backend/internal/models"
)

// Recorder keeps every message it is asked to send.
type Recorder struct {
	mu   sync.Mutex
	sent []models.Email

	// Err, when set, is returned by Send and the message is not kept.
	Err error
}

func (r *Recorder) Send(_ context.Context, msg models.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []models.Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Email(nil), r.sent...)
}
