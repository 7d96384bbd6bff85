package alert

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pairAlert/internal/dex"
	"pairAlert/internal/model"
)

var (
	testPair      = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testFrom      = common.HexToAddress("0x4444444444444444444444444444444444444444")
	testRecipient = common.HexToAddress("0x5555555555555555555555555555555555555555")
	testTxHash    = common.HexToHash("0xabc")
)

type fakeLookup struct {
	tx    model.Tx
	err   error
	calls int
	panic bool
}

func (f *fakeLookup) TransactionByHash(_ context.Context, hash common.Hash) (model.Tx, error) {
	f.calls++
	if f.panic {
		panic("lookup exploded")
	}
	if f.err != nil {
		return model.Tx{}, f.err
	}
	tx := f.tx
	tx.Hash = hash
	return tx, nil
}

// fakeDispatcher sends synchronously and reports err as the outcome.
type fakeDispatcher struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeDispatcher) Dispatch(message string, done func(error), _ ...zap.Field) {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	err := f.err
	f.mu.Unlock()
	if done != nil {
		done(err)
	}
}

func (f *fakeDispatcher) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type memoryJournal struct {
	mu      sync.Mutex
	records []model.AlertRecord
	err     error
}

func (m *memoryJournal) PutAlert(_ context.Context, record model.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return m.err
}

var errLookup = errors.New("not found")

// tokens returns whole-token amounts scaled by 18 decimals.
func tokens(value int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(value), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func swapEvent(amount0In, amount1In, amount0Out, amount1Out *big.Int) model.SwapEvent {
	return model.SwapEvent{
		EventMeta: model.EventMeta{
			Pair:        testPair,
			BlockNumber: 100,
			TxHash:      testTxHash,
			LogIndex:    2,
		},
		Sender:     testFrom,
		Amount0In:  amount0In,
		Amount1In:  amount1In,
		Amount0Out: amount0Out,
		Amount1Out: amount1Out,
		To:         testPair,
	}
}

func routerCalldata(t *testing.T, to common.Address) []byte {
	t.Helper()
	router, err := dex.RouterABI()
	if err != nil {
		t.Fatalf("router abi: %v", err)
	}
	data, err := router.Pack("swapExactTokensForTokens",
		tokens(1000),
		tokens(400),
		[]common.Address{common.HexToAddress("0xA625BF1c3565775B1859B579DF980Fef324E7315"), common.HexToAddress("0x2039A56173fDac411975Bce6F756059Ac33d0d79")},
		to,
		big.NewInt(1700000000),
	)
	if err != nil {
		t.Fatalf("pack calldata: %v", err)
	}
	return data
}

func testConfig(threshold0, threshold1 string) Config {
	return Config{
		ChainID:     1,
		Labels:      Labels{Token0: "USDT", Token1: "ASA"},
		Decimals:    18,
		ExplorerURL: "https://explorer.example/",
		Thresholds: Thresholds{
			Token0: decimal.RequireFromString(threshold0),
			Token1: decimal.RequireFromString(threshold1),
		},
	}
}
