package alert

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"pairAlert/internal/dex"
	"pairAlert/internal/metrics"
	"pairAlert/internal/model"
)

func newTestHandler(t *testing.T, cfg Config, lookup TxLookup, opts ...Option) (*Handler, *fakeDispatcher) {
	t.Helper()
	dispatcher := &fakeDispatcher{}
	h, err := NewHandler(cfg, lookup, dispatcher, nil, opts...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h, dispatcher
}

func TestHandleSwapEndToEnd(t *testing.T) {
	lookup := &fakeLookup{tx: model.Tx{From: testFrom, Data: routerCalldata(t, testRecipient)}}
	journal := &memoryJournal{}
	h, dispatcher := newTestHandler(t, testConfig("100", "100"), lookup, WithJournal(journal))

	h.Handle(context.Background(), swapEvent(big.NewInt(0), tokens(1000), tokens(500), big.NewInt(0)))

	sent := dispatcher.sent()
	if len(sent) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(sent))
	}
	msg := sent[0]
	for _, want := range []string{
		"ASA In: 1000",
		"USDT Out: 500",
		"from: " + testFrom.Hex(),
		"to: " + testRecipient.Hex(),
		"txHash: https://explorer.example/tx/" + testTxHash.Hex(),
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}

	if len(journal.records) != 1 {
		t.Fatalf("journal records: %d", len(journal.records))
	}
	record := journal.records[0]
	if !record.Dispatched || record.EventName != "Swap" || record.LogIndex != 2 || record.ChainID != 1 {
		t.Fatalf("record mismatch: %+v", record)
	}
	if record.CreatedAt == "" {
		t.Fatalf("record missing created_at")
	}
}

func TestHandleSwapThresholdGate(t *testing.T) {
	lookup := &fakeLookup{tx: model.Tx{From: testFrom, Data: routerCalldata(t, testRecipient)}}
	journal := &memoryJournal{}
	h, dispatcher := newTestHandler(t, testConfig("50", "50"), lookup, WithJournal(journal))
	zero := big.NewInt(0)

	h.Handle(context.Background(), swapEvent(tokens(100), zero, zero, tokens(10)))
	if got := len(dispatcher.sent()); got != 1 {
		t.Fatalf("amount0In above threshold should dispatch, got %d", got)
	}

	h.Handle(context.Background(), swapEvent(tokens(10), tokens(10), tokens(10), tokens(10)))
	if got := len(dispatcher.sent()); got != 1 {
		t.Fatalf("sub-threshold swap should not dispatch, got %d", got)
	}

	last := journal.records[len(journal.records)-1]
	if last.Dispatched || last.SkipReason != skipBelowThreshold || last.Message == "" {
		t.Fatalf("sub-threshold record mismatch: %+v", last)
	}
}

func TestHandleSwapLookupFailureDropsEvent(t *testing.T) {
	lookup := &fakeLookup{err: errLookup}
	journal := &memoryJournal{}
	m := metrics.New()
	h, dispatcher := newTestHandler(t, testConfig("0", "0"), lookup, WithJournal(journal), WithMetrics(m))

	h.Handle(context.Background(), swapEvent(tokens(100), nil, nil, tokens(1)))

	if got := len(dispatcher.sent()); got != 0 {
		t.Fatalf("dropped event dispatched %d messages", got)
	}
	if lookup.calls != 1 {
		t.Fatalf("lookup calls: %d", lookup.calls)
	}
	if len(journal.records) != 1 || journal.records[0].SkipReason != skipLookupFailed {
		t.Fatalf("journal mismatch: %+v", journal.records)
	}
}

type slowLookup struct{}

func (slowLookup) TransactionByHash(ctx context.Context, _ common.Hash) (model.Tx, error) {
	<-ctx.Done()
	return model.Tx{}, ctx.Err()
}

func TestHandleSwapLookupTimeout(t *testing.T) {
	cfg := testConfig("0", "0")
	cfg.LookupTimeout = 20 * time.Millisecond
	h, dispatcher := newTestHandler(t, cfg, slowLookup{})

	done := make(chan struct{})
	go func() {
		h.Handle(context.Background(), swapEvent(tokens(1), nil, nil, nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("lookup timeout not applied")
	}
	if got := len(dispatcher.sent()); got != 0 {
		t.Fatalf("timed out event dispatched %d messages", got)
	}
}

func TestHandleSwapUnknownDestination(t *testing.T) {
	lookup := &fakeLookup{tx: model.Tx{From: testFrom, Data: []byte{0xde, 0xad, 0xbe, 0xef}}}
	h, dispatcher := newTestHandler(t, testConfig("1", "1"), lookup)

	h.Handle(context.Background(), swapEvent(tokens(5), nil, nil, tokens(5)))

	sent := dispatcher.sent()
	if len(sent) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(sent))
	}
	if !strings.Contains(sent[0], "to: "+dex.UnknownDestination+"\n") {
		t.Fatalf("expected unknown destination:\n%s", sent[0])
	}
}

func TestHandleSwapZapDestination(t *testing.T) {
	zapABI, err := dex.ZapABI()
	if err != nil {
		t.Fatalf("zap abi: %v", err)
	}
	data, err := zapABI.Pack("zapInEth", testPair, tokens(1), testRecipient, big.NewInt(1))
	if err != nil {
		t.Fatalf("pack zap: %v", err)
	}
	lookup := &fakeLookup{tx: model.Tx{From: testFrom, Data: data}}
	h, dispatcher := newTestHandler(t, testConfig("1", "1"), lookup)

	h.Handle(context.Background(), swapEvent(nil, tokens(5), tokens(5), nil))

	sent := dispatcher.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "to: "+testRecipient.Hex()+"\n") {
		t.Fatalf("zap destination mismatch: %v", sent)
	}
}

func TestHandleMintBurnAlwaysDispatch(t *testing.T) {
	lookup := &fakeLookup{err: errLookup}
	h, dispatcher := newTestHandler(t, testConfig("1000000", "1000000"), lookup)

	h.Handle(context.Background(), model.MintEvent{
		EventMeta: model.EventMeta{TxHash: testTxHash},
		Amount0:   big.NewInt(1),
		Amount1:   big.NewInt(1),
	})
	if got := len(dispatcher.sent()); got != 1 {
		t.Fatalf("mint dispatches: %d", got)
	}

	h.Handle(context.Background(), model.BurnEvent{
		EventMeta: model.EventMeta{TxHash: testTxHash},
		Amount0:   big.NewInt(1),
		Amount1:   big.NewInt(1),
		To:        testRecipient,
	})
	if got := len(dispatcher.sent()); got != 2 {
		t.Fatalf("burn dispatches: %d", got)
	}
	if lookup.calls != 0 {
		t.Fatalf("mint/burn should not look up transactions, calls=%d", lookup.calls)
	}
}

func TestHandleJournalsSendOutcome(t *testing.T) {
	journal := &memoryJournal{}
	h, dispatcher := newTestHandler(t, testConfig("0", "0"), &fakeLookup{}, WithJournal(journal))
	dispatcher.err = errors.New("telegram 502")

	// A cancelled handler context must not lose the outcome record.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.HandleMint(ctx, model.MintEvent{
		EventMeta: model.EventMeta{TxHash: testTxHash},
		Amount0:   big.NewInt(1),
		Amount1:   big.NewInt(1),
	})

	if len(journal.records) != 1 {
		t.Fatalf("journal records: %d", len(journal.records))
	}
	record := journal.records[0]
	if record.Dispatched || record.SendError != "telegram 502" || record.Message == "" {
		t.Fatalf("failed send recorded as %+v", record)
	}
}

func TestHandlePanicIsolated(t *testing.T) {
	lookup := &fakeLookup{panic: true}
	h, dispatcher := newTestHandler(t, testConfig("0", "0"), lookup)

	h.Handle(context.Background(), swapEvent(tokens(1), nil, nil, nil))
	h.Handle(context.Background(), model.MintEvent{
		EventMeta: model.EventMeta{TxHash: testTxHash},
		Amount0:   big.NewInt(1),
		Amount1:   big.NewInt(1),
	})

	if got := len(dispatcher.sent()); got != 1 {
		t.Fatalf("event after panic not handled, dispatches=%d", got)
	}
}

func TestHandleJournalErrorNotFatal(t *testing.T) {
	journal := &memoryJournal{err: errors.New("disk full")}
	h, dispatcher := newTestHandler(t, testConfig("0", "0"), &fakeLookup{}, WithJournal(journal))

	h.Handle(context.Background(), model.MintEvent{
		EventMeta: model.EventMeta{TxHash: testTxHash},
		Amount0:   big.NewInt(1),
		Amount1:   big.NewInt(1),
	})
	if got := len(dispatcher.sent()); got != 1 {
		t.Fatalf("journal failure blocked dispatch: %d", got)
	}
}

func TestRunConsumesUntilStreamEnds(t *testing.T) {
	h, dispatcher := newTestHandler(t, testConfig("0", "0"), &fakeLookup{})

	events := make(chan model.PoolEvent, 3)
	for i := 0; i < 3; i++ {
		events <- model.MintEvent{
			EventMeta: model.EventMeta{TxHash: testTxHash, LogIndex: uint(i)},
			Amount0:   big.NewInt(1),
			Amount1:   big.NewInt(1),
		}
	}
	sub := event.NewSubscription(func(<-chan struct{}) error { return nil })

	if err := h.Run(context.Background(), events, sub); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := len(dispatcher.sent()); got != 3 {
		t.Fatalf("expected 3 dispatches, got %d", got)
	}
}

func TestRunReturnsStreamError(t *testing.T) {
	h, _ := newTestHandler(t, testConfig("0", "0"), &fakeLookup{})
	sub := event.NewSubscription(func(<-chan struct{}) error { return errors.New("ws closed") })

	if err := h.Run(context.Background(), make(chan model.PoolEvent), sub); err == nil {
		t.Fatalf("expected stream error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h, _ := newTestHandler(t, testConfig("0", "0"), &fakeLookup{})
	ctx, cancel := context.WithCancel(context.Background())

	var sub ethereum.Subscription = event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	})
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, make(chan model.PoolEvent), sub) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}

func TestNewHandlerValidates(t *testing.T) {
	if _, err := NewHandler(Config{}, nil, &fakeDispatcher{}, nil); err == nil {
		t.Fatalf("expected error for nil lookup")
	}
	if _, err := NewHandler(Config{}, &fakeLookup{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil dispatcher")
	}
}
