package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// FeedConfig sets the capture cadence.
type FeedConfig struct {
	// Interval is the delay between successful captures.
	Interval time.Duration
	// RetryInterval is the delay after the target was not found or a capture failed.
	RetryInterval time.Duration
}

// Feed captures from a Source into a Mailbox until its context ends.
type Feed struct {
	src    Source
	box    *Mailbox
	cfg    FeedConfig
	logger *slog.Logger
}

// NewFeed creates a feed. A nil logger discards output.
func NewFeed(src Source, box *Mailbox, cfg FeedConfig, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Feed{src: src, box: box, cfg: cfg, logger: logger}
}

// Run captures until ctx is cancelled or the source is exhausted. It returns
// nil in both cases.
func (f *Feed) Run(ctx context.Context) error {
	found := true
	for {
		img, err := f.src.Capture(ctx)
		delay := f.cfg.Interval

		switch {
		case err == nil:
			if !found {
				f.logger.Info("capture target found")
				found = true
			}
			f.box.Publish(img)
		case errors.Is(err, ErrExhausted):
			f.box.Fail(err)
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			if errors.Is(err, ErrTargetNotFound) {
				if found {
					f.logger.Warn("capture target lost")
				}
				found = false
			} else {
				f.logger.Error("capture failed", "error", err)
			}
			f.box.Fail(err)
			delay = f.cfg.RetryInterval
		}

		if !sleep(ctx, delay) {
			return nil
		}
	}
}

// sleep waits for d or until ctx is done. It reports whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
