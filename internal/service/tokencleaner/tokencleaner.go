package tokencleaner

import (
	"context"
	"time"

	"github.com/chatkaro/server/internal/logger"
)

const defaultCleanInterval = time.Hour

type refreshRepo interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Cleaner periodically deletes refresh token records that expired.
// Purely a housekeeping job: correctness never depends on it because expired
// records are unusable anyway
type Cleaner struct {
	interval    time.Duration
	refreshRepo refreshRepo
	logger      logger.Logger
}

func New(interval time.Duration, refreshRepo refreshRepo, l logger.Logger) *Cleaner {
	if interval == 0 {
		interval = defaultCleanInterval
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Cleaner{
		interval:    interval,
		refreshRepo: refreshRepo,
		logger:      l,
	}
}

// Run starts the cleaning loop and returns a channel closed when the loop
// fully stops after the context is done
func (c *Cleaner) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	c.logger.Debug("Starting token cleaner", "interval", c.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Debug("Token cleaner stopped by context")
				return

			case <-ticker.C:
				deleted, err := c.refreshRepo.DeleteExpired(ctx, time.Now())
				if err != nil {
					c.logger.Error("Failed to delete expired refresh tokens", "error", err)
					continue
				}

				if deleted > 0 {
					c.logger.Info("Expired refresh tokens deleted", "count", deleted)
				}
			}
		}
	}()

	return idleStopped
}
