package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tribithub/portal/backend/internal/logger"
)

// Cleaner removes codes that can no longer validate.
type Cleaner struct {
	codes CodeStore
	now   func() time.Time
}

func NewCleaner(codes CodeStore) *Cleaner {
	return &Cleaner{codes: codes, now: time.Now}
}

func (c *Cleaner) Run(ctx context.Context) error {
	n, err := c.codes.DeleteExpired(ctx, c.now())
	if err != nil {
		return fmt.Errorf("delete expired codes: %w", err)
	}
	logger.Log.WithField("deleted", n).Info("Expired verification codes cleaned up")
	return nil
}

// Schedule registers Run on cr using a standard five-field cron spec.
func (c *Cleaner) Schedule(cr *cron.Cron, spec string) error {
	_, err := cr.AddFunc(spec, func() {
		if err := c.Run(context.Background()); err != nil {
			logger.Log.WithError(err).Error("Scheduled verification-codes cleanup failed")
		}
	})
	return err
}
