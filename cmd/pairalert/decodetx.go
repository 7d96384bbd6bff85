package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairAlert/internal/chain"
	"pairAlert/internal/config"
	"pairAlert/internal/dex"
	"pairAlert/internal/model"
	"pairAlert/internal/stream"
)

func runDecodeTx(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDecodeTx(configSource(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	hash, err := stream.ParseHash(cfg.TxHash)
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

	tx, err := chainClient.TransactionByHash(ctx, hash)
	if err != nil {
		return err
	}

	decoder, err := dex.NewCallDecoder()
	if err != nil {
		return err
	}
	destination, call, decodeErr := decoder.DestinationLabel(tx.Data)
	if decodeErr != nil {
		logger.Warn("unknown destination", zap.String("tx_hash", hash.Hex()), zap.Error(decodeErr))
	}

	printDecodedTx(cmd.OutOrStdout(), tx, call, destination)
	return nil
}

func printDecodedTx(w io.Writer, tx model.Tx, call model.DecodedCall, destination string) {
	fmt.Fprintf(w, "tx:          %s\n", tx.Hash.Hex())
	fmt.Fprintf(w, "from:        %s\n", tx.From.Hex())
	if call.Name == "" {
		fmt.Fprintf(w, "function:    (undecoded, %d bytes)\n", len(tx.Data))
	} else {
		fmt.Fprintf(w, "function:    %s (%s)\n", call.Name, call.Interface)
		for i, arg := range call.Args {
			fmt.Fprintf(w, "  arg[%d]:    %s\n", i, formatArg(arg))
		}
	}
	fmt.Fprintf(w, "destination: %s\n", destination)
}

func formatArg(arg interface{}) string {
	switch v := arg.(type) {
	case common.Address:
		return v.Hex()
	case []common.Address:
		out := "["
		for i, addr := range v {
			if i > 0 {
				out += ", "
			}
			out += addr.Hex()
		}
		return out + "]"
	case []byte:
		return hexutil.Encode(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
