package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBuildQuery(t *testing.T) {
	pair := common.HexToAddress("0x1111111111111111111111111111111111111111")
	topic := common.HexToHash("0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822")
	from, to := uint64(10), uint64(20)

	query := buildQuery([]common.Address{pair}, []common.Hash{topic}, &from, &to)
	if query.FromBlock.Uint64() != 10 || query.ToBlock.Uint64() != 20 {
		t.Fatalf("range mismatch: %v-%v", query.FromBlock, query.ToBlock)
	}
	if len(query.Topics) != 1 || query.Topics[0][0] != topic {
		t.Fatalf("topics mismatch: %+v", query.Topics)
	}
	if len(query.Addresses) != 1 || query.Addresses[0] != pair {
		t.Fatalf("addresses mismatch: %+v", query.Addresses)
	}
}

func TestBuildQueryLive(t *testing.T) {
	query := buildQuery(nil, nil, nil, nil)
	if query.FromBlock != nil || query.ToBlock != nil {
		t.Fatalf("live query should leave range open")
	}
	if query.Topics != nil {
		t.Fatalf("expected no topic filter")
	}
}

func newRPCServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Method != "eth_getTransactionByHash" {
			t.Errorf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
}

func TestTransactionByHash(t *testing.T) {
	srv := newRPCServer(t, `{"from":"0x4444444444444444444444444444444444444444","input":"0x38ed1739","hash":"0xabc"}`)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	hash := common.HexToHash("0xabc")
	tx, err := client.TransactionByHash(context.Background(), hash)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if tx.From != common.HexToAddress("0x4444444444444444444444444444444444444444") {
		t.Fatalf("from mismatch: %s", tx.From.Hex())
	}
	if len(tx.Data) != 4 || tx.Data[0] != 0x38 || tx.Hash != hash {
		t.Fatalf("tx mismatch: %+v", tx)
	}
}

func TestTransactionByHashNotFound(t *testing.T) {
	srv := newRPCServer(t, `null`)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	_, err = client.TransactionByHash(context.Background(), common.HexToHash("0x01"))
	if !errors.Is(err, ErrTxNotFound) {
		t.Fatalf("expected ErrTxNotFound, got %v", err)
	}
}
