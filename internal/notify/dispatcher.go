package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pairAlert/internal/metrics"
)

// Dispatcher hands messages to a Sender without blocking the caller.
// Failures are logged and counted, never retried.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Dispatch sends message in the background. Fields are attached to the
// result log line. done, if set, receives the send error from the sending
// goroutine before Wait returns.
func (d *Dispatcher) Dispatch(message string, done func(error), fields ...zap.Field) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		err := d.sender.Send(ctx, message)
		d.metrics.DispatchFinished(time.Since(start), err)
		if done != nil {
			defer done(err)
		}
		if err != nil {
			d.logger.Warn("send message failed", append(fields, zap.Error(err))...)
			return
		}
		d.logger.Info("send message successfully", fields...)
	}()
}

// Wait blocks until all in-flight sends have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
