package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/stylus-audio/stylus/internal/discogs"
	"github.com/stylus-audio/stylus/internal/models"
)

// RunUntilComplete runs the engine repeatedly until the sync completes or fails,
// sleeping out rate-limit pauses in between.
//
// Each attempt that ends in a rate-limit pause schedules the next attempt after the
// duration the remote asked for; any other outcome (completed, failed, cancelled)
// ends the loop. This is the --wait mode of the sync command: a single invocation
// that rides out 429s instead of asking the user to resume manually.
func RunUntilComplete[R any](ctx context.Context, engine *Engine[R], progress chan<- ProgressUpdate) (*models.SyncRun, error) {
	var run *models.SyncRun

	delay := time.Second
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		run, err = engine.Run(ctx, progress)

		var rateErr *discogs.RateLimitError
		if errors.As(err, &rateErr) {
			delay = rateErr.RetryAfter
			return retry.RetryableError(err)
		}
		return err
	})

	return run, err
}
