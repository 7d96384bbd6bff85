package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairAlert/internal/dex"
	"pairAlert/internal/metrics"
	"pairAlert/internal/model"
	"pairAlert/internal/storage"
)

const (
	skipBelowThreshold = "below_threshold"
	skipLookupFailed   = "lookup_failed"
)

// TxLookup fetches the transaction that emitted a log.
type TxLookup interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (model.Tx, error)
}

// Dispatcher delivers a message without blocking the caller and reports
// the outcome to done.
type Dispatcher interface {
	Dispatch(message string, done func(error), fields ...zap.Field)
}

// Config holds the per-deployment alert settings.
type Config struct {
	ChainID       uint64
	Labels        Labels
	Decimals      uint8
	ExplorerURL   string
	Thresholds    Thresholds
	LookupTimeout time.Duration
}

// Handler turns pair events into alerts. It holds no per-event state.
type Handler struct {
	cfg        Config
	format     MessageFormatter
	lookup     TxLookup
	calls      *dex.CallDecoder
	dispatcher Dispatcher
	journal    storage.Journal
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithJournal records every handled event.
func WithJournal(journal storage.Journal) Option {
	return func(h *Handler) { h.journal = journal }
}

// WithMetrics counts handled events.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func NewHandler(cfg Config, lookup TxLookup, dispatcher Dispatcher, logger *zap.Logger, opts ...Option) (*Handler, error) {
	if lookup == nil {
		return nil, fmt.Errorf("tx lookup is nil")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 15 * time.Second
	}

	calls, err := dex.NewCallDecoder()
	if err != nil {
		return nil, fmt.Errorf("build calldata decoder: %w", err)
	}

	h := &Handler{
		cfg: cfg,
		format: MessageFormatter{
			Labels:      cfg.Labels,
			Decimals:    cfg.Decimals,
			ExplorerURL: cfg.ExplorerURL,
		},
		lookup:     lookup,
		calls:      calls,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Run consumes events until ctx is done or the subscription ends, then
// unsubscribes. A subscription error is returned.
func (h *Handler) Run(ctx context.Context, events <-chan model.PoolEvent, sub ethereum.Subscription) error {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			h.Handle(ctx, ev)
		case err := <-sub.Err():
			h.drain(ctx, events)
			if err != nil {
				return fmt.Errorf("event stream: %w", err)
			}
			return nil
		}
	}
}

// drain handles events already sent before the stream ended.
func (h *Handler) drain(ctx context.Context, events <-chan model.PoolEvent) {
	for {
		select {
		case ev := <-events:
			h.Handle(ctx, ev)
		default:
			return
		}
	}
}

// Handle processes one event. A panic is logged and does not propagate.
func (h *Handler) Handle(ctx context.Context, ev model.PoolEvent) {
	if ev == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("event handler panic",
				zap.String("event", string(ev.Kind())),
				zap.String("tx_hash", ev.Meta().TxHash.Hex()),
				zap.Any("panic", r),
			)
		}
	}()

	h.metrics.EventReceived(string(ev.Kind()))
	h.logger.Debug("event received",
		zap.String("event", string(ev.Kind())),
		zap.Uint64("block_number", ev.Meta().BlockNumber),
		zap.String("tx_hash", ev.Meta().TxHash.Hex()),
	)

	switch typed := ev.(type) {
	case model.SwapEvent:
		h.HandleSwap(ctx, typed)
	case model.MintEvent:
		h.HandleMint(ctx, typed)
	case model.BurnEvent:
		h.HandleBurn(ctx, typed)
	default:
		h.logger.Warn("unsupported event type", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

// HandleSwap looks up the transaction, resolves the destination and
// dispatches when the swap reaches a threshold.
func (h *Handler) HandleSwap(ctx context.Context, ev model.SwapEvent) {
	record := model.NewAlertRecord(ev)

	lookupCtx, cancel := context.WithTimeout(ctx, h.cfg.LookupTimeout)
	tx, err := h.lookup.TransactionByHash(lookupCtx, ev.TxHash)
	cancel()
	if err != nil {
		h.metrics.LookupFailed()
		h.metrics.AlertSuppressed(string(ev.Kind()), skipLookupFailed)
		h.logger.Warn("event dropped",
			zap.String("event", string(ev.Kind())),
			zap.String("tx_hash", ev.TxHash.Hex()),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err),
		)
		record.SkipReason = skipLookupFailed
		h.record(ctx, record)
		return
	}

	destination := h.destination(tx)
	record.Message = h.format.Swap(ev, tx.From, destination)

	if !h.cfg.Thresholds.Passes(ev, h.cfg.Decimals) {
		h.metrics.AlertSuppressed(string(ev.Kind()), skipBelowThreshold)
		h.logger.Info("swap below threshold",
			zap.String("tx_hash", ev.TxHash.Hex()),
			zap.String("to", destination),
		)
		record.SkipReason = skipBelowThreshold
		h.record(ctx, record)
		return
	}

	h.dispatch(ctx, record)
}

// HandleMint always dispatches.
func (h *Handler) HandleMint(ctx context.Context, ev model.MintEvent) {
	record := model.NewAlertRecord(ev)
	record.Message = h.format.Mint(ev)
	h.dispatch(ctx, record)
}

// HandleBurn always dispatches.
func (h *Handler) HandleBurn(ctx context.Context, ev model.BurnEvent) {
	record := model.NewAlertRecord(ev)
	record.Message = h.format.Burn(ev)
	h.dispatch(ctx, record)
}

func (h *Handler) destination(tx model.Tx) string {
	label, call, err := h.calls.DestinationLabel(tx.Data)
	if err != nil {
		h.metrics.DecodeFailed("calldata")
		h.logger.Warn("unknown destination",
			zap.String("tx_hash", tx.Hash.Hex()),
			zap.String("function", call.Name),
			zap.Error(err),
		)
	}
	return label
}

// dispatch journals the record once the send has an outcome.
func (h *Handler) dispatch(ctx context.Context, record model.AlertRecord) {
	h.metrics.AlertDispatched(record.EventName)
	journalCtx := context.WithoutCancel(ctx)
	h.dispatcher.Dispatch(record.Message, func(err error) {
		record.Dispatched = err == nil
		if err != nil {
			record.SendError = err.Error()
		}
		h.record(journalCtx, record)
	},
		zap.String("event", record.EventName),
		zap.String("tx_hash", record.TxHash),
	)
}

func (h *Handler) record(ctx context.Context, record model.AlertRecord) {
	if h.journal == nil {
		return
	}
	record.ChainID = h.cfg.ChainID
	record.CreatedAt = h.now().UTC().Format(time.RFC3339Nano)
	if err := h.journal.PutAlert(ctx, record); err != nil {
		h.logger.Warn("journal write failed", zap.String("tx_hash", record.TxHash), zap.Error(err))
	}
}
