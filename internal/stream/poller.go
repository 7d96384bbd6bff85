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

// LogFilterer reads historical logs and the chain head.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// PollConfig holds settings for the polling source.
type PollConfig struct {
	Pair   common.Address
	Topics []common.Hash
	// FromBlock 0 starts at the current head.
	FromBlock uint64
	// ToBlock 0 follows the head every Interval; otherwise the source ends after ToBlock.
	ToBlock           uint64
	BatchSize         uint64
	Interval          time.Duration
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Poller delivers pair logs by repeated eth_getLogs over block ranges.
type Poller struct {
	cfg        PollConfig
	client     LogFilterer
	checkpoint *CheckpointStore
	retry      rpcRetry
	logger     *zap.Logger
}

func NewPoller(cfg PollConfig, client LogFilterer, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	return &Poller{
		cfg:        cfg,
		client:     client,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled, cfg.Pair),
		retry:      newRPCRetry(cfg.MaxRetries, cfg.RetryBackoff, logger),
		logger:     logger,
	}
}

// Subscribe resolves the start block and begins polling in the background.
func (p *Poller) Subscribe(ctx context.Context, ch chan<- types.Log) (ethereum.Subscription, error) {
	if p.client == nil {
		return nil, fmt.Errorf("log filterer is nil")
	}
	if p.cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if p.cfg.ToBlock != 0 && p.cfg.ToBlock < p.cfg.FromBlock {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	start, err := p.startBlock(ctx)
	if err != nil {
		return nil, err
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-quit:
				cancel()
			case <-ctx.Done():
			}
		}()
		return p.run(ctx, start, ch)
	}), nil
}

func (p *Poller) startBlock(ctx context.Context) (uint64, error) {
	from := p.cfg.FromBlock
	if from == 0 {
		latest, err := p.latestWithRetry(ctx)
		if err != nil {
			return 0, fmt.Errorf("get latest block: %w", err)
		}
		from = latest
	}

	cp, ok, err := p.checkpoint.Load()
	if err != nil {
		return 0, err
	}
	// Following the head resumes from any checkpoint; a fixed range only skips ahead.
	if ok && (p.cfg.FromBlock == 0 || cp.LastProcessedBlock >= from) {
		from = cp.LastProcessedBlock + 1
		p.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
	}
	return from, nil
}

func (p *Poller) run(ctx context.Context, next uint64, ch chan<- types.Log) error {
	follow := p.cfg.ToBlock == 0
	for {
		head, err := p.latestWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("get latest block: %w", err)
		}

		if batches := pollWindow(next, head, p.cfg.ToBlock, p.cfg.BatchSize); len(batches) > 0 {
			next, err = p.deliver(ctx, batches, ch)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}

		if !follow && next > p.cfg.ToBlock {
			p.logger.Info("range complete", zap.Uint64("to", p.cfg.ToBlock))
			return nil
		}

		timer := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// deliver sends the logs of each batch and returns the next block to poll.
// The checkpoint advances once every log of a batch is on ch.
func (p *Poller) deliver(ctx context.Context, batches []BlockRange, ch chan<- types.Log) (uint64, error) {
	for _, blockRange := range batches {
		p.logger.Debug("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := p.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return blockRange.From, fmt.Errorf("filter logs: %w", err)
		}

		for _, log := range logs {
			select {
			case ch <- log:
			case <-ctx.Done():
				return blockRange.From, ctx.Err()
			}
		}

		if err := p.checkpoint.Save(blockRange.To); err != nil {
			return blockRange.To + 1, err
		}
		if len(logs) > 0 {
			p.logger.Info("batch complete", zap.Int("logs", len(logs)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		}
	}

	return batches[len(batches)-1].To + 1, nil
}

func (p *Poller) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := p.retry.do(ctx, "filter logs", func(ctx context.Context) error {
		var err error
		logs, err = p.client.FilterLogs(ctx, fromBlock, toBlock, []common.Address{p.cfg.Pair}, p.cfg.Topics)
		return err
	}, zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
	return logs, err
}

func (p *Poller) latestWithRetry(ctx context.Context) (uint64, error) {
	var latest uint64
	err := p.retry.do(ctx, "latest block fetch", func(ctx context.Context) error {
		var err error
		latest, err = p.client.LatestBlockNumber(ctx)
		return err
	})
	return latest, err
}
