package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind names a pair event variant.
type EventKind string

const (
	KindSwap EventKind = "Swap"
	KindMint EventKind = "Mint"
	KindBurn EventKind = "Burn"
)

// EventMeta locates a decoded event on chain.
type EventMeta struct {
	Pair        common.Address
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// PoolEvent is one of SwapEvent, MintEvent or BurnEvent.
type PoolEvent interface {
	Kind() EventKind
	Meta() EventMeta
}

// SwapEvent is the pair Swap log. Amount fields follow the pair's fixed token0/token1 order.
type SwapEvent struct {
	EventMeta
	Sender     common.Address
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
	To         common.Address
}

// MintEvent is the pair Mint log (liquidity added).
type MintEvent struct {
	EventMeta
	Sender  common.Address
	Amount0 *big.Int
	Amount1 *big.Int
}

// BurnEvent is the pair Burn log (liquidity removed).
type BurnEvent struct {
	EventMeta
	Sender  common.Address
	Amount0 *big.Int
	Amount1 *big.Int
	To      common.Address
}

func (SwapEvent) Kind() EventKind { return KindSwap }
func (MintEvent) Kind() EventKind { return KindMint }
func (BurnEvent) Kind() EventKind { return KindBurn }

func (e SwapEvent) Meta() EventMeta { return e.EventMeta }
func (e MintEvent) Meta() EventMeta { return e.EventMeta }
func (e BurnEvent) Meta() EventMeta { return e.EventMeta }
