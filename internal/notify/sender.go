package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers one alert message.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// LogSender only logs messages. Used for dry runs.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, message string) error {
	s.logger.Info("dry run alert", zap.String("message", message))
	return nil
}
