package report

import (
	"context"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

// Drainer periodically re-delivers spooled reports to the store.
type Drainer struct {
	Spool    Spool
	Store    Store
	Interval time.Duration
	Log      *logger.Logger
}

// RunOnce drains until the spool is empty or a save fails.
func (d *Drainer) RunOnce(ctx context.Context) (int, error) {
	return d.Spool.Drain(ctx, func(r Report) error {
		_, err := d.Store.SaveReport(ctx, r)
		return err
	})
}

func (d *Drainer) Run(ctx context.Context) {
	interval := d.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := d.RunOnce(ctx)
			if n > 0 {
				log.Info("spooled reports delivered", "count", n)
			}
			if err != nil && ctx.Err() == nil {
				log.Warn("spool drain stopped", "error", err)
			}
		}
	}
}
