package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// LogSource delivers raw pair logs into ch until the subscription ends.
// A source that finishes on its own closes the subscription's Err channel
// after its last send.
type LogSource interface {
	Subscribe(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error)
}

// LogSubscriber opens live log subscriptions.
type LogSubscriber interface {
	SubscribeLogs(ctx context.Context, addresses []common.Address, topic0 []common.Hash, ch chan<- types.Log) (ethereum.Subscription, error)
}

// LiveSource follows new pair logs over eth_subscribe and resubscribes
// with backoff when the connection drops.
type LiveSource struct {
	client     LogSubscriber
	addresses  []common.Address
	topics     []common.Hash
	backoffMax time.Duration
	logger     *zap.Logger
}

func NewLiveSource(client LogSubscriber, pair common.Address, topics []common.Hash, backoffMax time.Duration, logger *zap.Logger) *LiveSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backoffMax <= 0 {
		backoffMax = 30 * time.Second
	}
	return &LiveSource{
		client:     client,
		addresses:  []common.Address{pair},
		topics:     topics,
		backoffMax: backoffMax,
		logger:     logger,
	}
}

// Subscribe fails fast if the first subscription cannot be opened.
func (s *LiveSource) Subscribe(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error) {
	if s.client == nil {
		return nil, fmt.Errorf("log subscriber is nil")
	}

	first, err := s.client.SubscribeLogs(ctx, s.addresses, s.topics, ch)
	if err != nil {
		return nil, fmt.Errorf("subscribe logs: %w", err)
	}
	s.logger.Info("log subscription open", zap.String("pair", s.addresses[0].Hex()))

	return event.ResubscribeErr(s.backoffMax, func(ctx context.Context, lastErr error) (event.Subscription, error) {
		if first != nil {
			sub := first
			first = nil
			return sub, nil
		}
		s.logger.Warn("log subscription dropped, resubscribing", zap.Error(lastErr))
		return s.client.SubscribeLogs(ctx, s.addresses, s.topics, ch)
	}), nil
}
