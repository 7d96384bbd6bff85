package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairAlert/internal/chain"
	"pairAlert/internal/config"
	"pairAlert/internal/dex"
	"pairAlert/internal/metrics"
	"pairAlert/internal/model"
	"pairAlert/internal/server"
	"pairAlert/internal/stream"
)

const resubscribeBackoffMax = 30 * time.Second

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWatch(configSource(cmd), cmd.Flags())
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

	checkPairMeta(ctx, chainClient, pair, cfg.AlertConfig, logger)

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		admin := server.New(cfg.MetricsAddr, m, logger)
		admin.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = admin.Shutdown(shutdownCtx)
		}()
	}

	p, err := newPipeline(ctx, cfg.AlertConfig, chainClient, m, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	decoder, err := dex.NewPairDecoder()
	if err != nil {
		return err
	}

	var source stream.LogSource
	switch cfg.Mode {
	case config.ModePoll:
		source = stream.NewPoller(stream.PollConfig{
			Pair:              pair,
			Topics:            decoder.Topics(),
			FromBlock:         cfg.FromBlock,
			BatchSize:         cfg.BatchSize,
			Interval:          cfg.PollInterval,
			CheckpointPath:    cfg.Checkpoint,
			CheckpointEnabled: cfg.CheckpointEnabled,
			MaxRetries:        cfg.MaxRetries,
			RetryBackoff:      cfg.RetryBackoff,
		}, chainClient, logger)
	default:
		source = stream.NewLiveSource(chainClient, pair, decoder.Topics(), resubscribeBackoffMax, logger)
	}

	events, err := stream.NewStream(source, decoder, cfg.DedupeSize, m, logger)
	if err != nil {
		return err
	}

	ch := make(chan model.PoolEvent, 64)
	sub, err := events.Subscribe(ctx, ch)
	if err != nil {
		return err
	}

	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pair", pair.Hex()),
		zap.String("mode", cfg.Mode),
		zap.String("threshold_token0", cfg.Threshold0.String()),
		zap.String("threshold_token1", cfg.Threshold1.String()),
		zap.Bool("dry_run", cfg.DryRun),
	)

	err = p.handler.Run(ctx, ch, sub)
	logger.Info("watch stopped, waiting for in-flight alerts")
	return err
}
