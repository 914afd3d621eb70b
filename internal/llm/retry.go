package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// retry runs fn until it succeeds, the context ends, or maxRetries retries
// have been spent. The wait doubles after every failed attempt.
func retry(ctx context.Context, maxRetries int, backoff time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || ctx.Err() != nil || errors.Is(err, ErrUnfilledTemplate) {
			return err
		}

		wait := backoff << attempt
		log.Debug().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Msg("Retrying LLM call")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
