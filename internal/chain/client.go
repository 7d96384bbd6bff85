package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"pairAlert/internal/model"
)

// ErrTxNotFound is returned when the node has no record of a transaction.
var ErrTxNotFound = errors.New("transaction not found")

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
// Subscriptions require a ws:// or ipc endpoint.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

type rpcTx struct {
	From  common.Address `json:"from"`
	Input hexutil.Bytes  `json:"input"`
}

// TransactionByHash returns the sender and calldata of a transaction.
// The raw call avoids signature recovery, which fails on chains with
// non-standard transaction types.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (model.Tx, error) {
	var raw *rpcTx
	if err := c.rpcClient.CallContext(ctx, &raw, "eth_getTransactionByHash", hash); err != nil {
		return model.Tx{}, fmt.Errorf("get transaction %s: %w", hash.Hex(), err)
	}
	if raw == nil {
		return model.Tx{}, fmt.Errorf("%w: %s", ErrTxNotFound, hash.Hex())
	}

	return model.Tx{
		Hash: hash,
		From: raw.From,
		Data: []byte(raw.Input),
	}, nil
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	return c.ethClient.FilterLogs(ctx, buildQuery(addresses, topic0, &fromBlock, &toBlock))
}

// SubscribeLogs opens a live log subscription for addresses and topic0 filters.
func (c *Client) SubscribeLogs(
	ctx context.Context,
	addresses []common.Address,
	topic0 []common.Hash,
	ch chan<- types.Log,
) (ethereum.Subscription, error) {
	return c.ethClient.SubscribeFilterLogs(ctx, buildQuery(addresses, topic0, nil, nil), ch)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

func buildQuery(addresses []common.Address, topic0 []common.Hash, fromBlock, toBlock *uint64) ethereum.FilterQuery {
	query := ethereum.FilterQuery{Addresses: addresses}
	if fromBlock != nil {
		query.FromBlock = new(big.Int).SetUint64(*fromBlock)
	}
	if toBlock != nil {
		query.ToBlock = new(big.Int).SetUint64(*toBlock)
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	return query
}
