package detect

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Driver schedules detection passes. With a zero interval it runs exactly one
// pass; otherwise it ticks until the context is cancelled.
type Driver struct {
	processor *Processor
	interval  time.Duration
	logger    *zap.SugaredLogger
}

// NewDriver creates a new scheduling driver.
func NewDriver(processor *Processor, interval time.Duration, logger *zap.SugaredLogger) *Driver {
	return &Driver{processor: processor, interval: interval, logger: logger}
}

// Run executes detection passes until the context is cancelled. Per-rule
// failures never stop the loop; only a failed job listing ends the run.
func (d *Driver) Run(ctx context.Context) error {
	if d.interval <= 0 {
		_, err := d.processor.RunOnce(ctx, time.Now().UTC())
		return err
	}

	d.logger.Infof("Starting detection loop, interval %s", d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	if _, err := d.processor.RunOnce(ctx, time.Now().UTC()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Infof("Detection loop stopped")
			return nil
		case <-ticker.C:
			if _, err := d.processor.RunOnce(ctx, time.Now().UTC()); err != nil {
				return err
			}
		}
	}
}
