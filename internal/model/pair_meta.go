package model

// PairMeta captures the immutable token assignment of a pair.
type PairMeta struct {
	Token0 TokenMeta `json:"token0"`
	Token1 TokenMeta `json:"token1"`
}
