package stream

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"pairAlert/internal/dex"
	"pairAlert/internal/metrics"
	"pairAlert/internal/model"
)

const (
	DefaultDedupeSize = 4096
	logBufferSize     = 256
)

// Stream turns raw pair logs from a LogSource into PoolEvent values.
type Stream struct {
	source  LogSource
	decoder *dex.PairDecoder
	seen    *lru.Cache[string, struct{}]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewStream(source LogSource, decoder *dex.PairDecoder, dedupeSize int, m *metrics.Metrics, logger *zap.Logger) (*Stream, error) {
	if source == nil {
		return nil, fmt.Errorf("log source is nil")
	}
	if decoder == nil {
		return nil, fmt.Errorf("pair decoder is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dedupeSize <= 0 {
		dedupeSize = DefaultDedupeSize
	}
	seen, err := lru.New[string, struct{}](dedupeSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}

	return &Stream{
		source:  source,
		decoder: decoder,
		seen:    seen,
		metrics: m,
		logger:  logger,
	}, nil
}

// Subscribe pushes decoded events into out. Unsubscribe stops the source and
// the forwarding loop; out is never closed. When the source finishes, the
// returned subscription's Err channel closes after the last event is sent.
func (s *Stream) Subscribe(ctx context.Context, out chan<- model.PoolEvent) (ethereum.Subscription, error) {
	logs := make(chan types.Log, logBufferSize)
	inner, err := s.source.Subscribe(ctx, logs)
	if err != nil {
		return nil, err
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer inner.Unsubscribe()
		for {
			select {
			case <-quit:
				return nil
			case log := <-logs:
				if !s.forward(log, out, quit) {
					return nil
				}
			case err := <-inner.Err():
				// The source has made its last send; drain what is buffered.
				for {
					select {
					case log := <-logs:
						if !s.forward(log, out, quit) {
							return nil
						}
					default:
						return err
					}
				}
			}
		}
	}), nil
}

// forward decodes one log and sends it; false means quit was signalled.
func (s *Stream) forward(log types.Log, out chan<- model.PoolEvent, quit <-chan struct{}) bool {
	if log.Removed {
		s.logger.Debug("skip removed log", zap.String("tx_hash", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
		return true
	}
	if s.isDuplicate(log) {
		return true
	}

	ev, err := s.decoder.Decode(log)
	if err != nil {
		s.metrics.DecodeFailed("log")
		s.logger.Warn("skip undecodable log",
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Uint("log_index", log.Index),
			zap.Error(err),
		)
		return true
	}

	select {
	case out <- ev:
		return true
	case <-quit:
		return false
	}
}

func (s *Stream) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	found, _ := s.seen.ContainsOrAdd(id, struct{}{})
	return found
}
