package stream

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const maxRPCBackoff = 10 * time.Second

// rpcRetry re-issues a failed node call with doubling backoff.
type rpcRetry struct {
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

func newRPCRetry(retries int, backoff time.Duration, logger *zap.Logger) rpcRetry {
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return rpcRetry{retries: retries, backoff: backoff, logger: logger}
}

// do calls fn until it succeeds, the retries run out or ctx ends.
// Every failure is logged under op with its attempt number.
func (r rpcRetry) do(ctx context.Context, op string, fn func(context.Context) error, fields ...zap.Field) error {
	delay := r.backoff
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn(op+" failed", append(fields, zap.Int("attempt", attempt), zap.Error(err))...)
		if attempt > r.retries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, maxRPCBackoff)
	}
}
