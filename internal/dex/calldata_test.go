package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testTo    = common.HexToAddress("0x4444444444444444444444444444444444444444")
	testPath  = []common.Address{common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")}
	testPair  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testToken = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func TestCallDecoderRouter(t *testing.T) {
	router, err := RouterABI()
	if err != nil {
		t.Fatalf("router abi: %v", err)
	}
	decoder, err := NewCallDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := router.Pack("swapExactTokensForTokens", big.NewInt(1000), big.NewInt(900), testPath, testTo, big.NewInt(1700000000))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	call, err := decoder.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.Interface != InterfaceRouter || call.Name != "swapExactTokensForTokens" {
		t.Fatalf("unexpected call: %+v", call)
	}
	if len(call.Args) != 5 {
		t.Fatalf("args: %d", len(call.Args))
	}
	if amountIn, ok := call.Args[0].(*big.Int); !ok || amountIn.Int64() != 1000 {
		t.Fatalf("amountIn mismatch: %v", call.Args[0])
	}

	dest, err := Destination(call)
	if err != nil {
		t.Fatalf("destination: %v", err)
	}
	if dest != testTo {
		t.Fatalf("destination mismatch: %s", dest.Hex())
	}
}

func TestCallDecoderRouterETHVariants(t *testing.T) {
	router, err := RouterABI()
	if err != nil {
		t.Fatalf("router abi: %v", err)
	}
	decoder, err := NewCallDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	for _, method := range []string{"swapExactETHForTokens", "swapETHForExactTokens"} {
		data, err := router.Pack(method, big.NewInt(5), testPath, testTo, big.NewInt(1700000000))
		if err != nil {
			t.Fatalf("pack %s: %v", method, err)
		}
		label, call, err := decoder.DestinationLabel(data)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		if call.Name != method || label != testTo.Hex() {
			t.Fatalf("%s: got %s -> %s", method, call.Name, label)
		}
	}
}

func TestCallDecoderFeeOnTransferETHSwap(t *testing.T) {
	router, err := RouterABI()
	if err != nil {
		t.Fatalf("router abi: %v", err)
	}
	decoder, err := NewCallDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	const method = "swapExactETHForTokensSupportingFeeOnTransferTokens"
	data, err := router.Pack(method, big.NewInt(5), testPath, testTo, big.NewInt(1700000000))
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}

	call, err := decoder.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if call.Interface != InterfaceRouter || call.Name != method || len(call.Args) != 4 {
		t.Fatalf("call mismatch: %+v", call)
	}

	// Not in the index table, so position 3 (deadline) is read and rejected.
	if DestinationIndex(method) != 3 {
		t.Fatalf("unexpected index for %s", method)
	}
	label, _, err := decoder.DestinationLabel(data)
	if err == nil || errors.Is(err, ErrUnknownCalldata) {
		t.Fatalf("expected a non-address destination error, got %v", err)
	}
	if label != UnknownDestination {
		t.Fatalf("label: %s", label)
	}
}

func TestCallDecoderZapFallback(t *testing.T) {
	zap, err := ZapABI()
	if err != nil {
		t.Fatalf("zap abi: %v", err)
	}
	decoder, err := NewCallDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	cases := map[string][]interface{}{
		"zapInEth": {testPair, big.NewInt(1), testTo, big.NewInt(1700000000)},
		"zapIn":    {testToken, big.NewInt(10), testPair, big.NewInt(1), testTo, big.NewInt(1700000000)},
		"zapOut":   {testPair, big.NewInt(10), testToken, big.NewInt(1), testTo, big.NewInt(1700000000)},
	}

	for method, args := range cases {
		data, err := zap.Pack(method, args...)
		if err != nil {
			t.Fatalf("pack %s: %v", method, err)
		}
		call, err := decoder.Decode(data)
		if err != nil {
			t.Fatalf("decode %s: %v", method, err)
		}
		if call.Interface != InterfaceZap || call.Name != method {
			t.Fatalf("expected zap %s, got %+v", method, call)
		}
		dest, err := Destination(call)
		if err != nil {
			t.Fatalf("destination %s: %v", method, err)
		}
		if dest != testTo {
			t.Fatalf("%s destination mismatch: %s", method, dest.Hex())
		}
	}
}

func TestCallDecoderUnknown(t *testing.T) {
	decoder, err := NewCallDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	inputs := [][]byte{
		nil,
		{0x01, 0x02},
		{0xde, 0xad, 0xbe, 0xef, 0x00},
	}
	for _, input := range inputs {
		_, err := decoder.Decode(input)
		if !errors.Is(err, ErrUnknownCalldata) {
			t.Fatalf("expected ErrUnknownCalldata for %x, got %v", input, err)
		}
		label, _, err := decoder.DestinationLabel(input)
		if err == nil || label != UnknownDestination {
			t.Fatalf("expected unknown destination for %x, got %s", input, label)
		}
	}
}

func TestCallDecoderMalformedArgs(t *testing.T) {
	router, err := RouterABI()
	if err != nil {
		t.Fatalf("router abi: %v", err)
	}
	decoder, err := NewCallDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	selector := router.Methods["swapExactTokensForTokens"].ID
	data := append(append([]byte{}, selector...), 0x01, 0x02, 0x03)
	if _, err := decoder.Decode(data); !errors.Is(err, ErrUnknownCalldata) {
		t.Fatalf("expected ErrUnknownCalldata for truncated args, got %v", err)
	}
}

func TestDestinationIndex(t *testing.T) {
	want := map[string]int{
		"swapExactETHForTokens":    2,
		"swapETHForExactTokens":    2,
		"zapInEth":                 2,
		"zapIn":                    4,
		"zapOut":                   4,
		"swapExactTokensForTokens": 3,
		"swapTokensForExactETH":    3,
		"somethingElse":            3,
		"":                         3,
	}
	for name, idx := range want {
		if got := DestinationIndex(name); got != idx {
			t.Fatalf("DestinationIndex(%q) = %d, want %d", name, got, idx)
		}
	}
}

func TestDestinationOutOfRange(t *testing.T) {
	call := modelCall("zapIn", testPair)
	if _, err := Destination(call); err == nil {
		t.Fatalf("expected error for short arg list")
	}
	call = modelCall("swapExactTokensForTokens", 1, 2, 3, "not-an-address")
	if _, err := Destination(call); err == nil {
		t.Fatalf("expected error for non-address destination")
	}
}
