package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairAlert/internal/alert"
	"pairAlert/internal/chain"
	"pairAlert/internal/config"
	"pairAlert/internal/dex"
	"pairAlert/internal/metrics"
	"pairAlert/internal/notify"
	"pairAlert/internal/storage"
	"pairAlert/internal/storage/postgres"
)

// pipeline is the application context shared by the event handlers.
type pipeline struct {
	handler    *alert.Handler
	dispatcher *notify.Dispatcher
	closers    []func()
}

// Close waits for in-flight sends and releases the journal.
func (p *pipeline) Close() {
	p.dispatcher.Wait()
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

func newPipeline(ctx context.Context, cfg config.AlertConfig, client *chain.Client, m *metrics.Metrics, logger *zap.Logger) (*pipeline, error) {
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return nil, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	sender, err := newSender(cfg, logger)
	if err != nil {
		return nil, err
	}
	p := &pipeline{dispatcher: notify.NewDispatcher(sender, cfg.SendTimeout, m, logger)}

	journal, err := p.openJournal(ctx, cfg, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	opts := []alert.Option{alert.WithMetrics(m)}
	if journal != nil {
		opts = append(opts, alert.WithJournal(journal))
	}

	p.handler, err = alert.NewHandler(alert.Config{
		ChainID:     chainID.Uint64(),
		Labels:      alert.Labels{Token0: cfg.Token0Label, Token1: cfg.Token1Label},
		Decimals:    cfg.Decimals,
		ExplorerURL: cfg.ExplorerURL,
		Thresholds: alert.Thresholds{
			Token0: cfg.Threshold0,
			Token1: cfg.Threshold1,
		},
		LookupTimeout: cfg.LookupTimeout,
	}, client, p.dispatcher, logger, opts...)
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func newSender(cfg config.AlertConfig, logger *zap.Logger) (notify.Sender, error) {
	if cfg.DryRun {
		logger.Info("dry run, alerts are logged only")
		return notify.NewLogSender(logger), nil
	}
	return notify.NewTelegramSender(notify.TelegramConfig{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramToken,
		ChatID:  cfg.TelegramChatID,
		Timeout: cfg.SendTimeout,
	})
}

func (p *pipeline) openJournal(ctx context.Context, cfg config.AlertConfig, logger *zap.Logger) (storage.Journal, error) {
	var journals storage.Multi
	if cfg.Journal != "" {
		journals = append(journals, storage.NewJsonlJournal(cfg.Journal))
		logger.Info("alert journal enabled", zap.String("path", cfg.Journal))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		p.closers = append(p.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		journals = append(journals, store)
		logger.Info("postgres alert journal enabled")
	}

	switch len(journals) {
	case 0:
		return nil, nil
	case 1:
		return journals[0], nil
	default:
		return journals, nil
	}
}

// checkPairMeta logs the pair's on-chain tokens and warns when the
// configured labels disagree. It never fails startup.
func checkPairMeta(ctx context.Context, client *chain.Client, pair common.Address, cfg config.AlertConfig, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	meta, err := dex.FetchPairMeta(ctx, client, pair, logger)
	if err != nil {
		logger.Warn("pair metadata check failed", zap.String("pair", pair.Hex()), zap.Error(err))
		return
	}

	logger.Info("pair tokens",
		zap.String("token0", meta.Token0.Address),
		zap.String("token0_symbol", meta.Token0.Symbol),
		zap.Uint8("token0_decimals", meta.Token0.Decimals),
		zap.String("token1", meta.Token1.Address),
		zap.String("token1_symbol", meta.Token1.Symbol),
		zap.Uint8("token1_decimals", meta.Token1.Decimals),
	)

	for _, side := range []struct {
		name  string
		label string
		token string
		dec   uint8
	}{
		{"token0", cfg.Token0Label, meta.Token0.Symbol, meta.Token0.Decimals},
		{"token1", cfg.Token1Label, meta.Token1.Symbol, meta.Token1.Decimals},
	} {
		if side.token != "" && !labelMatches(side.label, side.token) {
			logger.Warn("configured label differs from on-chain symbol",
				zap.String("side", side.name),
				zap.String("label", side.label),
				zap.String("symbol", side.token),
			)
		}
		if side.dec != 0 && side.dec != cfg.Decimals {
			logger.Warn("configured decimals differ from on-chain decimals",
				zap.String("side", side.name),
				zap.Uint8("configured", cfg.Decimals),
				zap.Uint8("on_chain", side.dec),
			)
		}
	}
}

// labelMatches accepts wrapped-native symbols, e.g. "WASA" for "ASA".
func labelMatches(label, symbol string) bool {
	label = strings.ToUpper(strings.TrimSpace(label))
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return label == symbol || "W"+label == symbol
}
