package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairAlert/internal/chain"
	"pairAlert/internal/config"
	"pairAlert/internal/dex"
	"pairAlert/internal/metrics"
	"pairAlert/internal/model"
	"pairAlert/internal/stream"
)

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadBackfill(configSource(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pair, err := stream.ParseAddress(cfg.Pair)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	m := metrics.New()
	p, err := newPipeline(ctx, cfg.AlertConfig, chainClient, m, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	decoder, err := dex.NewPairDecoder()
	if err != nil {
		return err
	}

	poller := stream.NewPoller(stream.PollConfig{
		Pair:         pair,
		Topics:       decoder.Topics(),
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, logger)

	events, err := stream.NewStream(poller, decoder, stream.DefaultDedupeSize, m, logger)
	if err != nil {
		return err
	}

	ch := make(chan model.PoolEvent, 64)
	sub, err := events.Subscribe(ctx, ch)
	if err != nil {
		return err
	}

	logger.Info("backfill start",
		zap.String("pair", pair.Hex()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Bool("dry_run", cfg.DryRun),
	)

	return p.handler.Run(ctx, ch, sub)
}
