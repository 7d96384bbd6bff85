package model

import "github.com/ethereum/go-ethereum/common"

// Tx is the subset of a transaction needed to describe a swap.
type Tx struct {
	Hash common.Hash
	From common.Address
	Data []byte
}

// DecodedCall is a transaction's calldata matched against a known interface.
type DecodedCall struct {
	Interface string
	Name      string
	Args      []interface{}
}
